package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

const headerMasterKey = "X-Master-Key"

// MasterSecretAuth gates the key-management endpoints behind the separate
// higher-privilege secret. Deployments without a configured secret have key
// management disabled outright.
func MasterSecretAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			utils.SendUnavailable(c, "Key management is disabled: no master secret configured")
			c.Abort()
			return
		}

		provided := c.GetHeader(headerMasterKey)
		if provided == "" {
			utils.SendUnauthorized(c, "Master secret required",
				"Provide the master secret via the "+headerMasterKey+" header")
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			utils.SendForbidden(c, "Invalid master secret")
			c.Abort()
			return
		}

		c.Next()
	}
}
