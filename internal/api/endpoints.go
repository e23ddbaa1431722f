package api

import (
	"net/http"

	"github.com/elskow/airdrop-journal/internal/ratelimit"
)

const BasePath = "/api/v1"

// Endpoint is a method and a gin route pattern.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string {
	return e.Method + " " + e.Path
}

// Account endpoints
var (
	Signup             = Endpoint{http.MethodPost, BasePath + "/users/signup"}
	Login              = Endpoint{http.MethodPost, BasePath + "/users/login"}
	Logout             = Endpoint{http.MethodPost, BasePath + "/users/logout"}
	ForgotPassword     = Endpoint{http.MethodPost, BasePath + "/users/forgot-password"}
	ResetPassword      = Endpoint{http.MethodPatch, BasePath + "/users/reset-password/:token"}
	UpdatePassword     = Endpoint{http.MethodPatch, BasePath + "/users/update-password"}
	VerifyEmail        = Endpoint{http.MethodPost, BasePath + "/users/verify-email/:token"}
	ResendVerification = Endpoint{http.MethodPost, BasePath + "/users/resend-verification"}
	GetMe              = Endpoint{http.MethodGet, BasePath + "/users/me"}
	UpdateMe           = Endpoint{http.MethodPatch, BasePath + "/users/me"}
	DeleteMe           = Endpoint{http.MethodDelete, BasePath + "/users/me"}
	ListUsers          = Endpoint{http.MethodGet, BasePath + "/users"}
)

// Journal endpoints
var (
	ListAirdrops   = Endpoint{http.MethodGet, BasePath + "/airdrops"}
	CreateAirdrop  = Endpoint{http.MethodPost, BasePath + "/airdrops"}
	GetAirdrop     = Endpoint{http.MethodGet, BasePath + "/airdrops/:id"}
	UpdateAirdrop  = Endpoint{http.MethodPatch, BasePath + "/airdrops/:id"}
	DeleteAirdrop  = Endpoint{http.MethodDelete, BasePath + "/airdrops/:id"}
	FavoriteToggle = Endpoint{http.MethodPatch, BasePath + "/airdrops/:id/favorite"}

	ListTasks  = Endpoint{http.MethodGet, BasePath + "/tasks"}
	CreateTask = Endpoint{http.MethodPost, BasePath + "/tasks"}
	GetTask    = Endpoint{http.MethodGet, BasePath + "/tasks/:id"}
	UpdateTask = Endpoint{http.MethodPatch, BasePath + "/tasks/:id"}
	DeleteTask = Endpoint{http.MethodDelete, BasePath + "/tasks/:id"}
	ToggleTask = Endpoint{http.MethodPatch, BasePath + "/tasks/:id/toggle"}

	ListTags  = Endpoint{http.MethodGet, BasePath + "/tags"}
	CreateTag = Endpoint{http.MethodPost, BasePath + "/tags"}
	UpdateTag = Endpoint{http.MethodPatch, BasePath + "/tags/:id"}
	DeleteTag = Endpoint{http.MethodDelete, BasePath + "/tags/:id"}

	Stats = Endpoint{http.MethodGet, BasePath + "/stats"}
)

var Health = Endpoint{http.MethodGet, "/healthz"}

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[Endpoint]bool{
	Signup:         true,
	Login:          true,
	Logout:         true,
	ForgotPassword: true,
	ResetPassword:  true,
	VerifyEmail:    true,
	Health:         true,
}

// RateLimited maps throttled endpoints to their limiter class.
var RateLimited = map[Endpoint]string{
	Signup:             ratelimit.ClassSignup,
	Login:              ratelimit.ClassLogin,
	ForgotPassword:     ratelimit.ClassForgotPassword,
	ResendVerification: ratelimit.ClassResendVerification,
}
