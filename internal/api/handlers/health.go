package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health is the unauthenticated liveness probe: always 200 while the
// process is up. Readiness detail lives at /api/system/status.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "pl-ml-system",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
