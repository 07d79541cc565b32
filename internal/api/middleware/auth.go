package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avelsk/tutor-gateway/internal/api/response"
	"github.com/avelsk/tutor-gateway/internal/repository/redis"
	"github.com/avelsk/tutor-gateway/internal/security"
)

type contextKey string

const (
	TokenKey   contextKey = "token"
	SubjectKey contextKey = "subject"
)

// Authenticate requires a bearer credential and stores it in the
// request context. The gateway does not validate tokens; the tutor
// backend owns authentication and rejects bad credentials on every
// forwarded call. The token is snapshotted here once per request, so a
// credential change mid-stream does not affect an in-flight request.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), TokenKey, parts[1])
		ctx = context.WithValue(ctx, SubjectKey, security.Subject(parts[1]))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetToken gets the bearer token from context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok && token != ""
}

// GetSubject gets the token subject from context, if one was present
func GetSubject(ctx context.Context) string {
	subject, _ := ctx.Value(SubjectKey).(string)
	return subject
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	rateLimiter *redis.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(rateLimiter *redis.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter}
}

// Limit applies rate limiting keyed by the token subject, falling back
// to the remote address for opaque tokens.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetSubject(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		allowed, remaining, resetTime, err := m.rateLimiter.Allow(r.Context(), key)
		if err != nil {
			// If rate limiter fails, allow the request
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.Format(time.RFC3339))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
