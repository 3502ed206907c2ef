package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// PredictHandler exposes the prediction orchestrator and read endpoints.
type PredictHandler struct {
	predict *services.PredictService
	store   storage.Store
}

func NewPredictHandler(predict *services.PredictService, store storage.Store) *PredictHandler {
	return &PredictHandler{predict: predict, store: store}
}

// Generate predicts all upcoming fixtures. Missing prerequisites come back
// success-shaped with guidance naming the next pipeline step; only storage
// failures surface as errors.
func (h *PredictHandler) Generate(c *gin.Context) {
	result := h.predict.Generate(c.Request.Context())
	if !result.Success && len(result.Errors) > 0 {
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "Prediction generation failed",
				strings.Join(result.Errors, "; ")))
		return
	}
	utils.SendSuccess(c, result)
}

// GenerateStatus summarizes the prediction state of the pipeline.
func (h *PredictHandler) GenerateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.store.CountPredictions(ctx)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read prediction status")
		return
	}
	upcoming, err := h.store.ListUpcomingFixtures(ctx)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read prediction status")
		return
	}

	utils.SendSuccess(c, gin.H{
		"total_predictions": total,
		"upcoming_fixtures": len(upcoming),
	})
}

// Latest returns the most recent N predictions (default 10, max 100).
func (h *PredictHandler) Latest(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			utils.SendValidationError(c, "Invalid limit parameter", "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	predictions, err := h.predict.Latest(c.Request.Context(), limit)
	if err != nil {
		utils.SendUnavailable(c, "Failed to load predictions")
		return
	}
	utils.SendSuccess(c, gin.H{
		"count":       len(predictions),
		"predictions": predictions,
	})
}
