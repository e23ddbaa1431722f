package airdrop

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/tag"
)

var sortFields = httpx.SortFields{
	"name":           "name",
	"createdAt":      "created_at",
	"deadline":       "deadline",
	"estimatedValue": "estimated_value",
	"status":         "status",
}

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type createRequest struct {
	Name           string     `json:"name" binding:"required,max=100"`
	Description    string     `json:"description" binding:"max=2000"`
	Chain          string     `json:"chain" binding:"max=50"`
	Status         string     `json:"status" binding:"omitempty,oneof=planned active completed claimed missed"`
	Website        string     `json:"website" binding:"omitempty,url,max=500"`
	Twitter        string     `json:"twitter" binding:"omitempty,url,max=500"`
	Discord        string     `json:"discord" binding:"omitempty,url,max=500"`
	Deadline       *time.Time `json:"deadline"`
	EstimatedValue float64    `json:"estimatedValue" binding:"gte=0"`
	RewardValue    float64    `json:"rewardValue" binding:"gte=0"`
	Notes          string     `json:"notes" binding:"max=5000"`
	Favorite       bool       `json:"favorite"`
	Tags           []string   `json:"tags" binding:"max=20"`
}

type updateRequest struct {
	Name           *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Description    *string    `json:"description" binding:"omitempty,max=2000"`
	Chain          *string    `json:"chain" binding:"omitempty,max=50"`
	Status         *string    `json:"status" binding:"omitempty,oneof=planned active completed claimed missed"`
	Website        *string    `json:"website" binding:"omitempty,url,max=500"`
	Twitter        *string    `json:"twitter" binding:"omitempty,url,max=500"`
	Discord        *string    `json:"discord" binding:"omitempty,url,max=500"`
	Deadline       *time.Time `json:"deadline"`
	ClearDeadline  bool       `json:"clearDeadline"`
	EstimatedValue *float64   `json:"estimatedValue" binding:"omitempty,gte=0"`
	RewardValue    *float64   `json:"rewardValue" binding:"omitempty,gte=0"`
	Notes          *string    `json:"notes" binding:"omitempty,max=5000"`
	Favorite       *bool      `json:"favorite"`
	Tags           []string   `json:"tags" binding:"omitempty,max=20"`
}

func (h *Handler) List(c *gin.Context) {
	q, err := httpx.ParseListQuery(c, sortFields, "-createdAt")
	if err != nil {
		h.fail(c, err)
		return
	}

	f, err := parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	airdrops, total, err := h.service.List(c.Request.Context(), auth.CurrentUserID(c), f, q)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.List(c, airdrops, httpx.NewPage(q, total, len(airdrops)))
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	a, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), Input{
		Name:           req.Name,
		Description:    req.Description,
		Chain:          req.Chain,
		Status:         req.Status,
		Website:        req.Website,
		Twitter:        req.Twitter,
		Discord:        req.Discord,
		Deadline:       req.Deadline,
		EstimatedValue: req.EstimatedValue,
		RewardValue:    req.RewardValue,
		Notes:          req.Notes,
		Favorite:       req.Favorite,
		TagIDs:         req.Tags,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, a)
}

func (h *Handler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, a)
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	a, err := h.service.Update(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), Patch{
		Name:           req.Name,
		Description:    req.Description,
		Chain:          req.Chain,
		Status:         req.Status,
		Website:        req.Website,
		Twitter:        req.Twitter,
		Discord:        req.Discord,
		Deadline:       req.Deadline,
		ClearDeadline:  req.ClearDeadline,
		EstimatedValue: req.EstimatedValue,
		RewardValue:    req.RewardValue,
		Notes:          req.Notes,
		Favorite:       req.Favorite,
		TagIDs:         req.Tags,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, a)
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	a, err := h.service.ToggleFavorite(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, a)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), auth.CurrentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseFilter(c *gin.Context) (Filter, error) {
	verr := &httpx.ValidationError{}
	f := Filter{Chain: c.Query("chain")}

	if status := c.Query("status"); status != "" {
		if !slices.Contains(Statuses, status) {
			verr.Add("status", "must be one of: planned active completed claimed missed")
		}
		f.Status = status
	}
	if tagID := c.Query("tag"); tagID != "" {
		if _, err := uuid.Parse(tagID); err != nil {
			verr.Add("tag", "must be a tag id")
		}
		f.TagID = tagID
	}
	favorite, err := httpx.ParseBool(c, "favorite")
	if err != nil {
		verr.Add("favorite", "must be true or false")
	}
	f.Favorite = favorite

	return f, verr.Err()
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, tag.ErrNotFound):
		httpx.Invalid(c, httpx.NewValidationError("tags", "contains an unknown tag"))
	default:
		httpx.Internal(c, h.log, err)
	}
}
