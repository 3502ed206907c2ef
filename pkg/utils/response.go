package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *AppError   `json:"error,omitempty"`
	RateLimit *RateLimit  `json:"rate_limit,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// RateLimit is attached to 429 responses so callers know when the rolling
// window frees up.
type RateLimit struct {
	Limit     int    `json:"limit"`
	Window    string `json:"window"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"reset_at"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: timestamp(),
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success:   false,
		Error:     err,
		Timestamp: timestamp(),
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendUnauthorized(c *gin.Context, message string, details ...string) {
	SendError(c, http.StatusUnauthorized, NewAppError(ErrCodeUnauthorized, message, details...))
}

func SendForbidden(c *gin.Context, message string) {
	SendError(c, http.StatusForbidden, NewAppError(ErrCodeForbidden, message))
}

func SendUnavailable(c *gin.Context, message string) {
	SendError(c, http.StatusServiceUnavailable, NewAppError(ErrCodeUnavailable, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

// SendRateLimited emits a 429 carrying the window metadata callers need to
// back off correctly.
func SendRateLimited(c *gin.Context, limit int, resetAt time.Time) {
	c.JSON(http.StatusTooManyRequests, Response{
		Success: false,
		Error: NewAppError(ErrCodeRateLimited, "Rate limit exceeded",
			"Wait for the window to reset or request a higher limit"),
		RateLimit: &RateLimit{
			Limit:     limit,
			Window:    "1h",
			Remaining: 0,
			ResetAt:   resetAt.UTC().Format(time.RFC3339),
		},
		Timestamp: timestamp(),
	})
}
