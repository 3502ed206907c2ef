package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// TrainHandler exposes the training orchestrator.
type TrainHandler struct {
	train *services.TrainService
}

func NewTrainHandler(train *services.TrainService) *TrainHandler {
	return &TrainHandler{train: train}
}

// RunTraining executes one training pass. A training failure is a hard
// failure: a trained model whose metrics were never recorded would be worse
// than an explicit error.
func (h *TrainHandler) RunTraining(c *gin.Context) {
	result := h.train.Run(c.Request.Context())
	if result.Success {
		utils.SendSuccess(c, result)
		return
	}

	detail := strings.Join(result.Errors, "; ")
	if strings.Contains(detail, "insufficient data") {
		utils.SendError(c, http.StatusBadRequest,
			utils.NewAppError(utils.ErrCodeValidation, "Not enough completed matches to train", detail))
		return
	}
	utils.SendError(c, http.StatusInternalServerError,
		utils.NewAppError(utils.ErrCodeInternal, "Model training failed", detail))
}

// TrainingStatus returns the recent training history.
func (h *TrainHandler) TrainingStatus(c *gin.Context) {
	runs, err := h.train.History(c.Request.Context(), 10)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read training history")
		return
	}
	utils.SendSuccess(c, gin.H{
		"trained": len(runs) > 0,
		"runs":    runs,
	})
}
