package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/providers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

const bootstrapPayload = `{
	"events": [
		{"id": 1, "is_current": false, "is_next": false, "finished": true},
		{"id": 2, "is_current": true, "is_next": false, "finished": false}
	],
	"teams": [
		{"id": 1, "name": "Arsenal", "short_name": "ARS", "strength_overall_home": 1300},
		{"id": 2, "name": "Chelsea", "short_name": "CHE", "strength_overall_away": 1250}
	],
	"elements": [
		{"id": 10, "team": 1, "element_type": 4, "web_name": "Saka", "form": "6.5", "ict_index": "120.4"},
		{"id": 11, "team": 2, "element_type": 3, "web_name": "Palmer", "form": "7.0", "ict_index": "133.1"}
	]
}`

const fixturesPayload = `[
	{"id": 100, "event": 1, "team_h": 1, "team_a": 2, "team_h_score": 2, "team_a_score": 1,
	 "finished": true, "kickoff_time": "2025-08-16T14:00:00Z"},
	{"id": 101, "event": 2, "team_h": 2, "team_a": 1, "finished": false,
	 "kickoff_time": "2025-08-23T14:00:00Z"}
]`

// fakeFPL serves the two upstream resources; individual paths can be forced
// to fail.
func fakeFPL(t *testing.T, failPaths map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failPaths[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/bootstrap-static/":
			w.Write([]byte(bootstrapPayload))
		case "/fixtures/":
			w.Write([]byte(fixturesPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func syncClient(baseURL string) *providers.FPLClient {
	return providers.NewFPLClient(providers.FPLClientOptions{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
		PacingDelay: time.Microsecond,
	}, testLogger())
}

func TestSyncIngestsAllStages(t *testing.T) {
	server := fakeFPL(t, nil)
	defer server.Close()

	store := storage.NewMemoryStore()
	service := NewSyncService(store, syncClient(server.URL), testLogger())

	result := service.Run(context.Background())

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.TeamCount)
	assert.Equal(t, 2, result.PlayerCount)
	assert.Equal(t, 2, result.FixtureCount)
	assert.Equal(t, 2, result.CurrentGameweek)

	// Stat parsing carried into the stored rows.
	players, err := store.ListPlayersByTeam(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.InDelta(t, 120.4, players[0].ICTIndex, 1e-9)
	assert.Equal(t, "FWD", players[0].Position)
}

func TestSyncIsIdempotent(t *testing.T) {
	server := fakeFPL(t, nil)
	defer server.Close()

	store := storage.NewMemoryStore()
	service := NewSyncService(store, syncClient(server.URL), testLogger())
	ctx := context.Background()

	first := service.Run(ctx)
	second := service.Run(ctx)

	require.True(t, first.Success)
	require.True(t, second.Success)

	teams, _ := store.CountTeams(ctx)
	players, _ := store.CountPlayers(ctx)
	fixtures, _ := store.CountFixtures(ctx)
	assert.Equal(t, int64(2), teams, "reruns must not duplicate rows")
	assert.Equal(t, int64(2), players)
	assert.Equal(t, int64(2), fixtures)
}

func TestSyncStageFailureDoesNotAbortOthers(t *testing.T) {
	server := fakeFPL(t, map[string]bool{"/fixtures/": true})
	defer server.Close()

	store := storage.NewMemoryStore()
	service := NewSyncService(store, syncClient(server.URL), testLogger())

	result := service.Run(context.Background())

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "fixtures")

	// The roster stage still ingested.
	assert.Equal(t, 2, result.TeamCount)
	assert.Equal(t, 2, result.PlayerCount)
	teams, _ := store.CountTeams(context.Background())
	assert.Equal(t, int64(2), teams)
}

func TestSyncRecordsLastResult(t *testing.T) {
	server := fakeFPL(t, nil)
	defer server.Close()

	service := NewSyncService(storage.NewMemoryStore(), syncClient(server.URL), testLogger())

	assert.Nil(t, service.LastResult())
	result := service.Run(context.Background())
	assert.Equal(t, result, service.LastResult())
}

func TestSyncUpholdsFinishedImpliesScores(t *testing.T) {
	// Upstream claims finished but serves no scores.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bootstrap-static/":
			w.Write([]byte(bootstrapPayload))
		case "/fixtures/":
			w.Write([]byte(`[{"id": 200, "event": 1, "team_h": 1, "team_a": 2, "finished": true}]`))
		}
	}))
	defer server.Close()

	store := storage.NewMemoryStore()
	service := NewSyncService(store, syncClient(server.URL), testLogger())
	service.Run(context.Background())

	finished, err := store.CountFinishedFixtures(context.Background())
	require.NoError(t, err)
	assert.Zero(t, finished, "a fixture without scores must not be marked finished")
}
