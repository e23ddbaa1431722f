package tag

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type createRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=30"`
	Color string `json:"color" binding:"omitempty,hexcolor,len=7"`
}

type updateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=30"`
	Color *string `json:"color" binding:"omitempty,hexcolor,len=7"`
}

func (h *Handler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(tags), "data": tags})
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	t, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), Input{Name: req.Name, Color: req.Color})
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, t)
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if verr := httpx.BindJSON(c, &req); verr != nil {
		httpx.Invalid(c, verr)
		return
	}

	t, err := h.service.Update(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), Patch{Name: req.Name, Color: req.Color})
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

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateName):
		httpx.Fail(c, http.StatusConflict, err.Error())
	default:
		httpx.Internal(c, h.log, err)
	}
}
