package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// SystemHandler serves the aggregate health endpoint.
type SystemHandler struct {
	status *services.StatusService
}

func NewSystemHandler(status *services.StatusService) *SystemHandler {
	return &SystemHandler{status: status}
}

// Status reports the health of the four subsystems. Always 200: the body
// carries the per-subsystem state so monitors can alert on specifics.
func (h *SystemHandler) Status(c *gin.Context) {
	utils.SendSuccess(c, h.status.Check(c.Request.Context()))
}
