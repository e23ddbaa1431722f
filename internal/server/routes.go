package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elskow/airdrop-journal/internal/api"
	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

func (s *Server) registerRoutes(p Params, db Pinger) {
	authenticate := p.AuthMiddleware.Authenticate()

	// handle prepends the rate limit for throttled endpoints and session
	// authentication for everything not public.
	handle := func(e api.Endpoint, handlers ...gin.HandlerFunc) {
		chain := make([]gin.HandlerFunc, 0, len(handlers)+2)
		if class, ok := api.RateLimited[e]; ok {
			chain = append(chain, p.RateLimit.Limit(class))
		}
		if !api.PublicEndpoints[e] {
			chain = append(chain, authenticate)
		}
		s.engine.Handle(e.Method, e.Path, append(chain, handlers...)...)
	}

	handle(api.Health, healthHandler(db))

	users := p.AuthHandler
	handle(api.Signup, users.Signup)
	handle(api.Login, users.Login)
	handle(api.Logout, users.Logout)
	handle(api.ForgotPassword, users.ForgotPassword)
	handle(api.ResetPassword, users.ResetPassword)
	handle(api.VerifyEmail, users.VerifyEmail)
	handle(api.UpdatePassword, users.UpdatePassword)
	handle(api.ResendVerification, users.ResendVerification)
	handle(api.GetMe, users.GetMe)
	handle(api.UpdateMe, users.UpdateMe)
	handle(api.DeleteMe, users.DeleteMe)
	handle(api.ListUsers, p.AuthMiddleware.RestrictTo(auth.RoleAdmin), users.ListUsers)

	handle(api.ListAirdrops, p.Airdrops.List)
	handle(api.CreateAirdrop, p.Airdrops.Create)
	handle(api.GetAirdrop, p.Airdrops.Get)
	handle(api.UpdateAirdrop, p.Airdrops.Update)
	handle(api.DeleteAirdrop, p.Airdrops.Delete)
	handle(api.FavoriteToggle, p.Airdrops.ToggleFavorite)

	handle(api.ListTasks, p.Tasks.List)
	handle(api.CreateTask, p.Tasks.Create)
	handle(api.GetTask, p.Tasks.Get)
	handle(api.UpdateTask, p.Tasks.Update)
	handle(api.DeleteTask, p.Tasks.Delete)
	handle(api.ToggleTask, p.Tasks.Toggle)

	handle(api.ListTags, p.Tags.List)
	handle(api.CreateTag, p.Tags.Create)
	handle(api.UpdateTag, p.Tags.Update)
	handle(api.DeleteTag, p.Tags.Delete)

	handle(api.Stats, p.AuthMiddleware.RequireVerifiedEmail(), p.Stats.Get)
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			httpx.Fail(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
