package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

const userContextKey = "auth.user"

type Middleware struct {
	service    *Service
	cookieName string
	log        *zap.Logger
}

func NewMiddleware(cfg *config.AuthConfig, service *Service, log *zap.Logger) *Middleware {
	return &Middleware{
		service:    service,
		cookieName: cfg.CookieName,
		log:        log,
	}
}

// Authenticate requires a valid session, read from the Authorization header
// or the session cookie, and stores the account on the gin context.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.service.Authenticate(c.Request.Context(), m.sessionToken(c))
		if err != nil {
			if IsUnauthenticated(err) {
				httpx.Fail(c, http.StatusUnauthorized, err.Error())
				return
			}
			httpx.Internal(c, m.log, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RestrictTo must run after Authenticate.
func (m *Middleware) RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.service.RestrictTo(CurrentUser(c), roles...); err != nil {
			httpx.Fail(c, http.StatusForbidden, err.Error())
			return
		}
		c.Next()
	}
}

// RequireVerifiedEmail must run after Authenticate.
func (m *Middleware) RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.service.RequireEmailVerification(CurrentUser(c)); err != nil {
			httpx.Fail(c, http.StatusForbidden, err.Error())
			return
		}
		c.Next()
	}
}

func (m *Middleware) sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if scheme, raw, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(raw)
		}
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != loggedOutCookie {
		return cookie
	}
	return ""
}

// CurrentUser returns the account Authenticate stored, or nil.
func CurrentUser(c *gin.Context) *User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*User)
	return user
}

// CurrentUserID is CurrentUser(c).ID, or "" when unauthenticated.
func CurrentUserID(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}
