package ratelimit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/httpx"
)

type Middleware struct {
	limiter *Limiter
	enabled bool
	log     *zap.Logger
}

func NewMiddleware(limiter *Limiter, enabled bool, log *zap.Logger) *Middleware {
	return &Middleware{limiter: limiter, enabled: enabled, log: log}
}

// Limit rejects requests over the class budget with 429 and Retry-After.
// When the counter store fails the request is let through.
func (m *Middleware) Limit(class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		fp := Fingerprint(c.ClientIP(), c.Request.UserAgent())
		err := m.limiter.Allow(c.Request.Context(), class, fp)

		var limitErr *LimitError
		switch {
		case err == nil:
			c.Next()
		case errors.As(err, &limitErr):
			m.log.Info("rate limit exceeded",
				zap.String("class", class),
				zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(limitErr.RetryAfterSeconds()))
			httpx.Fail(c, http.StatusTooManyRequests, ErrRateLimited.Error())
		default:
			m.log.Warn("rate limit store unavailable, allowing request",
				zap.String("class", class),
				zap.Error(err))
			c.Next()
		}
	}
}
