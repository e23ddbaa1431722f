package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/password"
)

// loggedOutCookie replaces the session cookie on logout.
const loggedOutCookie = "loggedout"

var userSortFields = httpx.SortFields{
	"createdAt": "created_at",
	"email":     "email",
	"lastName":  "last_name",
}

type Handler struct {
	service *Service
	config  *config.AuthConfig
	log     *zap.Logger
}

func NewHandler(service *Service, cfg *config.AuthConfig, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		config:  cfg,
		log:     log,
	}
}

type signupRequest struct {
	FirstName       string `json:"firstName" binding:"required,max=50"`
	LastName        string `json:"lastName" binding:"required,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Username        string `json:"username" binding:"omitempty,min=3,max=30,alphanum"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

type updateMeRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Username  *string `json:"username" binding:"omitempty,max=30"`
}

type deleteMeRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	user, session, err := h.service.Signup(c.Request.Context(), SignupInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.ConfirmPassword,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendSession(c, http.StatusCreated, user, session)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	user, session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, user, session)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.config.CookieName, loggedOutCookie, -1, "/", "", h.config.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	user, session, err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, user, session)
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	user := CurrentUser(c)
	session, err := h.service.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	var policyErr *password.PolicyError
	switch {
	case errors.As(err, &policyErr):
		httpx.Invalid(c, httpx.NewValidationError("newPassword", policyErr.Error()))
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, user, session)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.service.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}

	httpx.OK(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	if err := h.service.ResendVerification(c.Request.Context(), CurrentUser(c)); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Verification email sent.",
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	httpx.OK(c, http.StatusOK, gin.H{"user": CurrentUser(c)})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), CurrentUser(c), ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	httpx.OK(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) DeleteMe(c *gin.Context) {
	var req deleteMeRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), CurrentUser(c), req.Password); err != nil {
		h.fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.config.CookieName, loggedOutCookie, -1, "/", "", h.config.CookieSecure, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListUsers(c *gin.Context) {
	q, err := httpx.ParseListQuery(c, userSortFields, "-createdAt")
	if err != nil {
		h.fail(c, err)
		return
	}

	var filter UserFilter
	if role := c.Query("role"); role != "" {
		if role != RoleUser && role != RoleAdmin {
			httpx.Invalid(c, httpx.NewValidationError("role", "must be one of: user admin"))
			return
		}
		filter.Role = role
	}
	if filter.Active, err = httpx.ParseBool(c, "active"); err != nil {
		h.fail(c, err)
		return
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), filter, q)
	if err != nil {
		h.fail(c, err)
		return
	}

	httpx.List(c, users, httpx.NewPage(q, total, len(users)))
}

func (h *Handler) sendSession(c *gin.Context, code int, user *User, session Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.config.CookieName, session.Token, int(h.service.SessionTTL().Seconds()), "/", "", h.config.CookieSecure, true)
	c.JSON(code, gin.H{
		"status": "success",
		"token":  session.Token,
		"data":   gin.H{"user": user},
	})
}

// fail maps service errors to HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var policyErr *password.PolicyError
	switch {
	case errors.As(err, &policyErr):
		httpx.Invalid(c, httpx.NewValidationError("password", policyErr.Error()))
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicateUsername):
		httpx.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrIncorrectPassword), IsUnauthenticated(err):
		httpx.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAccountLocked):
		httpx.Fail(c, http.StatusLocked, err.Error())
	case errors.Is(err, ErrInvalidOrExpiredToken), errors.Is(err, ErrAlreadyVerified):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrEmailNotVerified):
		httpx.Fail(c, http.StatusForbidden, err.Error())
	default:
		httpx.Internal(c, h.log, err)
	}
}
