package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

func TestCreateKeyIssuesPrefixedToken(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewKeyService(store, 100, testLogger())

	created, err := service.Create(context.Background(), "dashboard", 0, 0)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Key, models.KeyPrefix))
	assert.Len(t, created.Key, len(models.KeyPrefix)+32)
	assert.Equal(t, 100, created.RateLimit, "zero rate limit selects the configured default")
	assert.Nil(t, created.ExpiresAt)

	// The issued token authenticates.
	key, err := store.GetAPIKeyByToken(context.Background(), created.Key)
	require.NoError(t, err)
	assert.True(t, key.Active)
}

func TestCreateKeyRequiresName(t *testing.T) {
	service := NewKeyService(storage.NewMemoryStore(), 100, testLogger())
	_, err := service.Create(context.Background(), "", 50, 0)
	assert.Error(t, err)
}

func TestCreateKeyWithTTL(t *testing.T) {
	service := NewKeyService(storage.NewMemoryStore(), 100, testLogger())

	created, err := service.Create(context.Background(), "trial", 10, 30*24*time.Hour)

	require.NoError(t, err)
	require.NotNil(t, created.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *created.ExpiresAt, time.Minute)
}

func TestListKeysRedactsTokens(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewKeyService(store, 100, testLogger())

	created, err := service.Create(context.Background(), "client-a", 50, 0)
	require.NoError(t, err)

	listed, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)

	assert.NotEqual(t, created.Key, listed[0].Key)
	assert.True(t, strings.HasPrefix(listed[0].Key, models.KeyPrefix+"****"))
	assert.True(t, strings.HasSuffix(listed[0].Key, created.Key[len(created.Key)-4:]),
		"last four characters stay visible for identification")
	assert.Equal(t, "client-a", listed[0].Name)
}

func TestUsageStatsAggregateDailyRollups(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewUsageService(store)
	ctx := context.Background()

	today := time.Now().UTC().Format("2006-01-02")
	require.NoError(t, store.BumpDailyUsage(ctx, 1, today, 200, 10))
	require.NoError(t, store.BumpDailyUsage(ctx, 1, today, 200, 30))
	require.NoError(t, store.BumpDailyUsage(ctx, 1, today, 500, 20))
	require.NoError(t, store.BumpDailyUsage(ctx, 2, today, 200, 5)) // other key

	summary, err := service.Stats(ctx, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRequests)
	assert.Equal(t, 2, summary.TotalSuccess)
	assert.Equal(t, 1, summary.TotalErrors)
	assert.InDelta(t, 20.0, summary.AvgLatencyMs, 1e-9)
	require.Len(t, summary.Daily, 1)
}

func TestUsageStatsValidatesDayRange(t *testing.T) {
	service := NewUsageService(storage.NewMemoryStore())

	for _, days := range []int{0, -1, 91} {
		_, err := service.Stats(context.Background(), 1, days)
		assert.Error(t, err, "days=%d", days)
	}
}
