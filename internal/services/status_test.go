package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

func TestStatusOnFreshDeployment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": [], "teams": [], "elements": []}`))
	}))
	defer server.Close()

	service := NewStatusService(storage.NewMemoryStore(), syncClient(server.URL),
		ml.NewModel(t.TempDir(), testLogger()), testLogger())

	status := service.Check(context.Background())

	assert.False(t, status.Healthy, "no model and no training history yet")
	require.Len(t, status.Subsystems, 4)

	byName := map[string]SubsystemStatus{}
	for _, sub := range status.Subsystems {
		byName[sub.Name] = sub
	}
	assert.Equal(t, "ok", byName["database"].Status)
	assert.Equal(t, "ok", byName["fpl_api"].Status)
	assert.Equal(t, "down", byName["model"].Status)
	assert.Equal(t, "down", byName["training_history"].Status)
}

func TestStatusUpstreamDownDoesNotHideOtherProbes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveTrainingRun(context.Background(),
		&models.TrainingRun{ModelVersion: ml.ModelVersion, SampleCount: 100}))

	service := NewStatusService(store, syncClient(server.URL),
		ml.NewModel(t.TempDir(), testLogger()), testLogger())

	status := service.Check(context.Background())

	assert.False(t, status.Healthy)
	byName := map[string]SubsystemStatus{}
	for _, sub := range status.Subsystems {
		byName[sub.Name] = sub
	}
	assert.Equal(t, "down", byName["fpl_api"].Status)
	assert.Equal(t, "ok", byName["database"].Status)
	assert.Equal(t, "ok", byName["training_history"].Status)
}
