package middleware

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default rate limit per minute
	DefaultRateLimit = 30
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 10
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// Rate-limited actions
const (
	ActionCreateBooking = "booking.create"
	ActionCancelBooking = "booking.cancel"
)

// RateLimiter is a token bucket per (user, action) pair
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	rateLimit rate.Limit
	burstSize int
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new RateLimiter with default settings
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rateLimit: rate.Limit(float64(requestsPerMinute) / 60.0), // Convert to per-second
		burstSize: burstSize,
		now:       time.Now,
	}
}

// SetClock replaces the time source (for tests)
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func limiterKey(userID uuid.UUID, action string) string {
	return userID.String() + ":" + action
}

// Allow takes a token for (userID, action). When the bucket is empty it
// returns false and how long until the next token.
func (r *RateLimiter) Allow(userID uuid.UUID, action string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := limiterKey(userID, action)
	entry, exists := r.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup removes limiters idle for longer than LimiterTTL and returns how
// many were removed
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, entry := range r.limiters {
		if now.Sub(entry.lastSeen) > LimiterTTL {
			delete(r.limiters, key)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("Cleaned up stale rate limiters")
	}
	return removed
}

// Len returns the number of tracked limiters
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// Limit returns an Echo middleware that rate limits action per authenticated
// user. Unauthenticated requests pass through.
func (r *RateLimiter) Limit(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID == uuid.Nil {
				return next(c)
			}

			allowed, wait := r.Allow(userID, action)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				log.Warn().
					Str("user_id", userID.String()).
					Str("action", action).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return rateLimitedError(c, retryAfter)
			}

			return next(c)
		}
	}
}
