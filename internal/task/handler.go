package task

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
)

var sortFields = httpx.SortFields{
	"title":     "title",
	"dueDate":   "due_date",
	"priority":  "priority",
	"createdAt": "created_at",
}

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type createRequest struct {
	AirdropID   string     `json:"airdropId" binding:"omitempty,uuid"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateRequest struct {
	AirdropID    *string    `json:"airdropId" binding:"omitempty,uuid"`
	ClearAirdrop bool       `json:"clearAirdrop"`
	Title        *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" binding:"omitempty,max=2000"`
	Priority     *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
	Completed    *bool      `json:"completed"`
}

func (h *Handler) List(c *gin.Context) {
	q, err := httpx.ParseListQuery(c, sortFields, "-createdAt")
	if err != nil {
		h.fail(c, err)
		return
	}

	opts, err := parseListOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	tasks, total, err := h.service.List(c.Request.Context(), auth.CurrentUserID(c), opts, q)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.List(c, tasks, httpx.NewPage(q, total, len(tasks)))
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	t, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), Input{
		AirdropID:   req.AirdropID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, t)
}

func (h *Handler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, t)
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	t, err := h.service.Update(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), Patch{
		AirdropID:    req.AirdropID,
		ClearAirdrop: req.ClearAirdrop,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		Completed:    req.Completed,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, t)
}

func (h *Handler) Toggle(c *gin.Context) {
	t, err := h.service.Toggle(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, t)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), auth.CurrentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseListOptions(c *gin.Context) (ListOptions, error) {
	verr := &httpx.ValidationError{}
	var opts ListOptions

	if airdropID := c.Query("airdropId"); airdropID != "" {
		if _, err := uuid.Parse(airdropID); err != nil {
			verr.Add("airdropId", "must be an airdrop id")
		}
		opts.AirdropID = airdropID
	}
	if priority := c.Query("priority"); priority != "" {
		if !slices.Contains(Priorities, priority) {
			verr.Add("priority", "must be one of: low medium high")
		}
		opts.Priority = priority
	}
	completed, err := httpx.ParseBool(c, "completed")
	if err != nil {
		verr.Add("completed", "must be true or false")
	}
	opts.Completed = completed

	overdue, err := httpx.ParseBool(c, "overdue")
	if err != nil {
		verr.Add("overdue", "must be true or false")
	}
	opts.Overdue = overdue != nil && *overdue

	return opts, verr.Err()
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	default:
		httpx.Internal(c, h.log, err)
	}
}
