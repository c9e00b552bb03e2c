// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents standard API response
type Response struct {
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler provides methods for standard API responses
type Handler struct {
	ctx    *gin.Context
	logger *zap.Logger
}

// New creates new response handler
func New(c *gin.Context, logger *zap.Logger) *Handler {
	return &Handler{
		ctx:    c,
		logger: logger,
	}
}

// Success sends success response
func (h *Handler) Success(data any) {
	h.Status(http.StatusOK, "success", data)
}

// Status sends data with an explicit status code and message
func (h *Handler) Status(status int, message string, data any) {
	h.ctx.JSON(status, Response{
		Code:      status,
		Message:   message,
		Data:      data,
		RequestID: h.ctx.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends an error response
func (h *Handler) Error(status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", h.ctx.GetString("request_id")),
			zap.Int("status", status),
			zap.Error(err))
	}
	h.ctx.JSON(status, Response{
		Code:      status,
		Message:   "error",
		Error:     err.Error(),
		RequestID: h.ctx.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	})
}

// InternalError sends an internal server error response
func (h *Handler) InternalError(err error) {
	h.Error(http.StatusInternalServerError, err)
}
