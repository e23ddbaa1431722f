package stats

import (
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

func (h *Handler) Get(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		httpx.Internal(c, h.log, err)
		return
	}
	httpx.OK(c, http.StatusOK, summary)
}
