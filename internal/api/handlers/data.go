package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// DataHandler exposes the sync orchestrator.
type DataHandler struct {
	sync  *services.SyncService
	store storage.Store
}

func NewDataHandler(sync *services.SyncService, store storage.Store) *DataHandler {
	return &DataHandler{sync: sync, store: store}
}

// RunSync executes the sync pipeline. The report is success-shaped even on
// partial failure: stage errors are listed by name so callers can see what
// ingested and what did not.
func (h *DataHandler) RunSync(c *gin.Context) {
	result := h.sync.Run(c.Request.Context())
	utils.SendSuccess(c, result)
}

// SyncStatus reports current row counts plus the last in-process sync run.
func (h *DataHandler) SyncStatus(c *gin.Context) {
	ctx := c.Request.Context()

	teams, err := h.store.CountTeams(ctx)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read sync status")
		return
	}
	players, err := h.store.CountPlayers(ctx)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read sync status")
		return
	}
	fixtures, err := h.store.CountFixtures(ctx)
	if err != nil {
		utils.SendUnavailable(c, "Failed to read sync status")
		return
	}

	utils.SendSuccess(c, gin.H{
		"teams":     teams,
		"players":   players,
		"fixtures":  fixtures,
		"synced":    teams > 0 && players > 0 && fixtures > 0,
		"last_sync": h.sync.LastResult(),
	})
}
