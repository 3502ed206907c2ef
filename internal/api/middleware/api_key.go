package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/utils"
)

// ContextKeyAPIKey is where the resolved credential is attached for handlers.
const ContextKeyAPIKey = "api_key"

const (
	headerAPIKey = "X-API-Key"

	// RateWindow is the rolling lookback for per-key throughput limits,
	// recomputed from wall-clock "now" on every request.
	RateWindow = time.Hour
)

// APIKeyAuth is the request gate wrapping every protected route: it
// authenticates the caller's key, enforces the key's hourly rate limit, and
// records one usage event per request once a key has been resolved —
// whether the request was dispatched, rejected or panicked.
//
// Two deliberate asymmetries: a storage failure during authentication is a
// 503 (callers must be able to tell "wrong key" from "service down"), while
// a storage failure during rate-limit counting fails open with a logged
// warning (availability over strict enforcement when accounting degrades).
func APIKeyAuth(store storage.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		token := extractToken(c)
		if token == "" {
			utils.SendUnauthorized(c, "API key required",
				fmt.Sprintf("Provide your key via the %s header or Authorization: Bearer", headerAPIKey))
			c.Abort()
			return
		}

		// Format check runs before any storage access; malformed
		// credentials never cost a lookup.
		if !models.HasKeyPrefix(token) {
			utils.SendUnauthorized(c, "Invalid API key format",
				fmt.Sprintf("API keys must start with the %q prefix", models.KeyPrefix))
			c.Abort()
			return
		}

		key, err := store.GetAPIKeyByToken(c.Request.Context(), token)
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendUnauthorized(c, "Unknown API key",
				"The key does not exist; request a new one from the administrator")
			c.Abort()
			return
		}
		if err != nil {
			logger.Errorf("API key lookup failed: %v", err)
			utils.SendUnavailable(c, "Authentication backend unavailable, retry shortly")
			c.Abort()
			return
		}

		now := time.Now().UTC()
		if !key.Active {
			utils.SendForbidden(c, "API key has been deactivated")
			c.Abort()
			logUsage(store, logger, key.ID, c, http.StatusForbidden, start)
			return
		}
		if key.Expired(now) {
			utils.SendForbidden(c, "API key has expired")
			c.Abort()
			logUsage(store, logger, key.ID, c, http.StatusForbidden, start)
			return
		}

		if limited, resetAt := checkRateLimit(c.Request.Context(), store, logger, key, now); limited {
			utils.SendRateLimited(c, key.RateLimit, resetAt)
			c.Abort()
			logUsage(store, logger, key.ID, c, http.StatusTooManyRequests, start)
			return
		}

		c.Set(ContextKeyAPIKey, key)

		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("Handler panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
				utils.SendInternalError(c, "An internal error occurred")
				c.Abort()
				logUsage(store, logger, key.ID, c, http.StatusInternalServerError, start)
				return
			}
			logUsage(store, logger, key.ID, c, c.Writer.Status(), start)
		}()

		c.Next()
	}
}

// extractToken reads the credential from the designated header, falling back
// to a bearer-style Authorization header.
func extractToken(c *gin.Context) string {
	if token := c.GetHeader(headerAPIKey); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// checkRateLimit counts the key's usage inside the rolling window. The count
// is read-then-compare with no atomic increment; a brief overshoot under
// concurrent requests from one key is tolerated.
func checkRateLimit(ctx context.Context, store storage.Store, logger *logrus.Logger, key *models.APIKey, now time.Time) (bool, time.Time) {
	since := now.Add(-RateWindow)
	count, err := store.CountUsageSince(ctx, key.ID, since)
	if err != nil {
		logger.Warnf("Rate-limit count failed for key %d, failing open: %v", key.ID, err)
		return false, time.Time{}
	}
	if count < int64(key.RateLimit) {
		return false, time.Time{}
	}

	resetAt := now.Add(RateWindow)
	if oldest, err := store.OldestUsageSince(ctx, key.ID, since); err == nil {
		resetAt = oldest.Add(RateWindow)
	}
	return true, resetAt
}

// logUsage persists one usage event and folds it into the daily rollup,
// asynchronously so accounting latency never adds to request latency.
// Failures are logged and discarded.
func logUsage(store storage.Store, logger *logrus.Logger, keyID uint, c *gin.Context, status int, start time.Time) {
	event := &models.APIUsage{
		APIKeyID:   keyID,
		Endpoint:   c.FullPath(),
		Method:     c.Request.Method,
		StatusCode: status,
		LatencyMs:  float64(time.Since(start).Microseconds()) / 1000.0,
		UserAgent:  c.Request.UserAgent(),
		ClientIP:   c.ClientIP(),
	}
	if event.Endpoint == "" {
		event.Endpoint = c.Request.URL.Path
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.SaveUsage(ctx, event); err != nil {
			logger.Debugf("Failed to record usage event: %v", err)
		}
		date := event.CreatedAt
		if date.IsZero() {
			date = time.Now().UTC()
		}
		if err := store.BumpDailyUsage(ctx, keyID, date.UTC().Format("2006-01-02"), status, event.LatencyMs); err != nil {
			logger.Debugf("Failed to update daily usage rollup: %v", err)
		}
		if err := store.TouchAPIKey(ctx, keyID, time.Now().UTC()); err != nil {
			logger.Debugf("Failed to refresh key last-used time: %v", err)
		}
	}()
}
