package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// KeysHandler manages API keys. Both endpoints sit behind the master secret.
type KeysHandler struct {
	keys *services.KeyService
}

func NewKeysHandler(keys *services.KeyService) *KeysHandler {
	return &KeysHandler{keys: keys}
}

type createKeyRequest struct {
	Name      string `json:"name" binding:"required"`
	RateLimit int    `json:"rate_limit"`
	TTLDays   int    `json:"ttl_days"`
}

// CreateKey issues a fresh key. The full token appears in this response and
// nowhere else.
func (h *KeysHandler) CreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", "name is required")
		return
	}
	if req.RateLimit < 0 || req.TTLDays < 0 {
		utils.SendValidationError(c, "Invalid request body", "rate_limit and ttl_days must not be negative")
		return
	}

	created, err := h.keys.Create(c.Request.Context(), req.Name, req.RateLimit,
		time.Duration(req.TTLDays)*24*time.Hour)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "Failed to create API key"))
		return
	}
	c.JSON(http.StatusCreated, utils.Response{
		Success:   true,
		Data:      created,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListKeys returns every key with its token redacted.
func (h *KeysHandler) ListKeys(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context())
	if err != nil {
		utils.SendUnavailable(c, "Failed to list API keys")
		return
	}
	utils.SendSuccess(c, gin.H{
		"count": len(keys),
		"keys":  keys,
	})
}
