package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/database"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// OK writes {"status":"success","data":data}.
func OK(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"status": statusSuccess, "data": data})
}

// List writes a page of results along with its pagination metadata.
func List(c *gin.Context, items any, page Page) {
	c.JSON(http.StatusOK, gin.H{
		"status":     statusSuccess,
		"results":    page.Count,
		"pagination": page,
		"data":       items,
	})
}

// Fail writes a client error the caller can act on.
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"status": statusFail, "message": message})
}

// Invalid writes a 400 with per-field detail.
func Invalid(c *gin.Context, err *ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status":  statusFail,
		"message": err.Error(),
		"errors":  err.Fields,
	})
}

// Internal handles errors no handler mapped: transient store failures become
// 503, everything else is logged in full and reported as a generic 500.
func Internal(c *gin.Context, log *zap.Logger, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		Invalid(c, verr)
		return
	}

	if errors.Is(err, database.ErrTransient) {
		log.Warn("transient storage failure",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"status":  statusError,
			"message": "service temporarily unavailable, please retry",
		})
		return
	}

	log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  statusError,
		"message": "something went wrong",
	})
}
