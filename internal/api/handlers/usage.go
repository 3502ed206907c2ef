package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/api/middleware"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// UsageHandler serves a caller's own usage statistics.
type UsageHandler struct {
	usage *services.UsageService
}

func NewUsageHandler(usage *services.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// GetUsage returns the authenticated key's daily rollups for the last
// `days` days (1-90, default 7).
func (h *UsageHandler) GetUsage(c *gin.Context) {
	key := keyFromContext(c)
	if key == nil {
		utils.SendUnauthorized(c, "No authenticated API key on request")
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			utils.SendValidationError(c, "Invalid days parameter", "days must be an integer between 1 and 90")
			return
		}
		days = parsed
	}

	summary, err := h.usage.Stats(c.Request.Context(), key.ID, days)
	if err != nil {
		utils.SendUnavailable(c, "Failed to load usage statistics")
		return
	}
	utils.SendSuccess(c, gin.H{
		"key_name":   key.Name,
		"rate_limit": key.RateLimit,
		"usage":      summary,
	})
}

// keyFromContext pulls the credential the request gate attached.
func keyFromContext(c *gin.Context) *models.APIKey {
	value, exists := c.Get(middleware.ContextKeyAPIKey)
	if !exists {
		return nil
	}
	key, ok := value.(*models.APIKey)
	if !ok {
		return nil
	}
	return key
}
