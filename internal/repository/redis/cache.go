package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelsk/tutor-gateway/internal/domain"
)

const (
	sessionCachePrefix = "session:"
	sessionCacheTTL    = 5 * time.Minute
)

// SessionCache is a read-through cache for backend session details,
// keyed by the backend-assigned session identifier. The backend stays
// the source of truth; entries expire or are invalidated on write.
type SessionCache struct {
	client *Client
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *Client) *SessionCache {
	return &SessionCache{client: client}
}

// Get retrieves a cached session detail. A miss returns (nil, nil).
func (c *SessionCache) Get(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	key := sessionCachePrefix + sessionID

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var detail domain.SessionDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &detail, nil
}

// Set caches a session detail
func (c *SessionCache) Set(ctx context.Context, detail *domain.SessionDetail) error {
	key := sessionCachePrefix + detail.ID

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, sessionCacheTTL).Err()
}

// Invalidate removes a cached session, e.g. after a message stream
// completes or the session is updated.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.rdb.Del(ctx, sessionCachePrefix+sessionID).Err()
}
