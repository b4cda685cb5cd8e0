package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// store counts hits per identifier inside a fixed window.
type store interface {
	Allow(identifier string) (bool, error)
}

type RateLimiter struct {
	store store
	log   zerolog.Logger
}

// NewRateLimiter allows limit requests per window and client. Counters live
// in redis when a client is given, in process memory otherwise.
func NewRateLimiter(limit int, window time.Duration, client *redis.Client, log zerolog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	var s store
	if client != nil {
		s = &redisStore{redis: client, limit: int64(limit), window: window}
	} else {
		s = newMemoryStore(limit, window)
	}
	return &RateLimiter{store: s, log: log.With().Str("component", "ratelimit").Logger()}
}

// AuthRateLimit throttles the login routes per client address.
func (r *RateLimiter) AuthRateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return "auth:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			r.log.Warn().Err(err).Msg("rate limit identifier")
			return c.JSON(http.StatusForbidden, map[string]any{
				"ok":      false,
				"message": "Access denied",
			})
		},
	})
}

// AntiBotMiddleware keeps crawlers away from the flow endpoints.
func (r *RateLimiter) AntiBotMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isSuspiciousUserAgent(c.Request().Header.Get("User-Agent")) {
				r.log.Debug().Str("ip", c.RealIP()).Msg("bot rejected")
				return c.JSON(http.StatusForbidden, map[string]any{
					"ok":      false,
					"message": "Access denied",
				})
			}
			return next(c)
		}
	}
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

type redisStore struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func (s *redisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("ratelimit:%s", identifier)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		// Redis down: let the request through.
		return true, nil
	}
	if count == 1 {
		s.redis.Expire(ctx, key, s.window)
	}
	return count <= s.limit, nil
}

type window struct {
	start time.Time
	count int
}

type memoryStore struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*window
	now     func() time.Time
}

func newMemoryStore(limit int, w time.Duration) *memoryStore {
	return &memoryStore{
		limit:   limit,
		window:  w,
		clients: map[string]*window{},
		now:     time.Now,
	}
}

func (s *memoryStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.clients[identifier]
	if !ok || now.Sub(w.start) >= s.window {
		s.sweep(now)
		s.clients[identifier] = &window{start: now, count: 1}
		return true, nil
	}
	w.count++
	return w.count <= s.limit, nil
}

// sweep drops expired windows. Caller holds mu.
func (s *memoryStore) sweep(now time.Time) {
	for id, w := range s.clients {
		if now.Sub(w.start) >= s.window {
			delete(s.clients, id)
		}
	}
}
