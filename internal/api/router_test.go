package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/features"
	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/providers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, upstreamURL, masterSecret string) (*gin.Engine, storage.Store) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := storage.NewMemoryStore()
	client := providers.NewFPLClient(providers.FPLClientOptions{
		BaseURL:     upstreamURL,
		Timeout:     2 * time.Second,
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
		PacingDelay: time.Microsecond,
	}, logger)
	engineer := features.NewEngineer(store, logger)
	model := ml.NewModel(t.TempDir(), logger)

	router := NewRouter(Deps{
		Store:   store,
		Sync:    services.NewSyncService(store, client, logger),
		Train:   services.NewTrainService(store, engineer, model, services.TrainOptions{MinSamples: 20, Augment: true, Config: ml.TrainConfig{Epochs: 3, HiddenLayers: []int{8}}}, logger),
		Predict: services.NewPredictService(store, engineer, model, logger),
		Keys:    services.NewKeyService(store, 100, logger),
		Usage:   services.NewUsageService(store),
		Status:  services.NewStatusService(store, client, model, logger),
		Config:  &config.Config{MasterAPISecret: masterSecret},
		Logger:  logger,
	})
	return router, store
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bootstrap-static/":
			w.Write([]byte(`{"events": [{"id": 1, "is_current": true}], "teams": [{"id": 1, "name": "Arsenal"}], "elements": [{"id": 1, "team": 1, "element_type": 3}]}`))
		case "/fixtures/":
			w.Write([]byte(`[{"id": 1, "event": 1, "team_h": 1, "team_a": 2, "finished": false}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func perform(router *gin.Engine, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPublicEndpointsNeedNoCredential(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()
	router, _ := newTestRouter(t, upstream.URL, "")

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/system/status", nil, "").Code)
}

func TestProtectedEndpointsRequireKey(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()
	router, _ := newTestRouter(t, upstream.URL, "")

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/data/sync"},
		{http.MethodGet, "/api/data/sync"},
		{http.MethodPost, "/api/train/production"},
		{http.MethodGet, "/api/train/production"},
		{http.MethodPost, "/api/predict/generate"},
		{http.MethodGet, "/api/predict/generate"},
		{http.MethodGet, "/api/predict/latest"},
		{http.MethodGet, "/api/usage"},
	}
	for _, ep := range protected {
		w := perform(router, ep.method, ep.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", ep.method, ep.path)
	}
}

func TestFullPipelineThroughHTTP(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()
	router, store := newTestRouter(t, upstream.URL, "master-secret")

	key := &models.APIKey{Key: "fpl_pipeline1", Name: "e2e", Active: true, RateLimit: 100}
	require.NoError(t, store.CreateAPIKey(context.Background(), key))
	auth := map[string]string{"X-API-Key": key.Key}

	// Generate before any data: success-shaped guidance.
	w := perform(router, http.MethodPost, "/api/predict/generate", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Predictions []json.RawMessage `json:"predictions"`
			Guidance    []string          `json:"guidance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data.Predictions)
	assert.NotEmpty(t, resp.Data.Guidance)

	// Sync, then train, then generate.
	w = perform(router, http.MethodPost, "/api/data/sync", auth, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPost, "/api/train/production", auth, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPost, "/api/predict/generate", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Predictions, 1)

	w = perform(router, http.MethodGet, "/api/predict/latest?limit=5", auth, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKeyManagementRequiresMasterSecret(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()
	router, _ := newTestRouter(t, upstream.URL, "top-secret")

	w := perform(router, http.MethodPost, "/api/keys", nil, `{"name": "x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(router, http.MethodPost, "/api/keys",
		map[string]string{"X-Master-Key": "top-secret"}, `{"name": "new-client"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.True(t, strings.HasPrefix(created.Data.Key, models.KeyPrefix))

	w = perform(router, http.MethodGet, "/api/keys",
		map[string]string{"X-Master-Key": "top-secret"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.Data.Key,
		"full tokens never appear in listings")
}

func TestInvalidLimitParamRejected(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()
	router, store := newTestRouter(t, upstream.URL, "")

	key := &models.APIKey{Key: "fpl_limits", Name: "t", Active: true, RateLimit: 100}
	require.NoError(t, store.CreateAPIKey(context.Background(), key))
	auth := map[string]string{"X-API-Key": key.Key}

	w := perform(router, http.MethodGet, "/api/predict/latest?limit=0", auth, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodGet, "/api/usage?days=91", auth, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
