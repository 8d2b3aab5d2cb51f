// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// visitor is one caller's bucket on one route.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	limiters       map[string]*visitor
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   endpointLimit
	blockDuration  time.Duration
	idleTimeout    time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		limiters:       make(map[string]*visitor),
		blockedIPs:     make(map[string]time.Time),
		defaultLimit:   endpointLimit{limit: config.RateLimitDefault, burst: config.RateLimitDefaultBurst},
		blockDuration:  time.Minute,
		idleTimeout:    config.RateLimitIdleTimeout,
		endpointLimits: make(map[string]endpointLimit),
		now:            time.Now,
	}

	// Token issuance and the payment endpoints are public
	strict := endpointLimit{limit: config.RateLimitStrict, burst: config.RateLimitStrictBurst}
	limiter.SetEndpointLimit("/jwt", strict.limit, strict.burst)
	limiter.SetEndpointLimit("/payments", strict.limit, strict.burst)
	limiter.SetEndpointLimit("/create-payment-intent", strict.limit, strict.burst)

	return limiter
}

// SetEndpointLimit overrides the limit for one route path as registered with Echo.
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

// Cleanup drops expired blocks and their limiters, and any limiter idle for
// longer than idleTimeout. main runs it on a ticker.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if !now.After(blockUntil) {
			continue
		}
		delete(r.blockedIPs, ip)
		for key := range r.limiters {
			if strings.HasPrefix(key, ip+"|") {
				delete(r.limiters, key)
			}
		}
	}
	for key, v := range r.limiters {
		if now.Sub(v.lastSeen) > r.idleTimeout {
			delete(r.limiters, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Path()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				delete(r.blockedIPs, ip)
			}
			limit, ok := r.endpointLimits[path]
			if !ok {
				path = "*"
				limit = r.defaultLimit
			}
			key := ip + "|" + path
			now := r.now()
			v, exists := r.limiters[key]
			if !exists {
				v = &visitor{limiter: rate.NewLimiter(limit.limit, limit.burst)}
				r.limiters[key] = v
			}
			v.lastSeen = now
			if !v.limiter.AllowN(now, 1) {
				blockUntil := now.Add(r.blockDuration)
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				return tooManyRequests(c, blockUntil)
			}
			r.mu.Unlock()

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Kind:    "RateLimited",
		Message: "Too many requests",
	})
}
