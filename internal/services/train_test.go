package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/features"
	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

func newTrainService(t *testing.T, store storage.Store, opts TrainOptions) *TrainService {
	t.Helper()
	logger := testLogger()
	model := ml.NewModel(t.TempDir(), logger)
	engineer := features.NewEngineer(store, logger)
	if opts.Config.Epochs == 0 {
		opts.Config = ml.TrainConfig{Epochs: 5, HiddenLayers: []int{8}}
	}
	return NewTrainService(store, engineer, model, opts, logger)
}

func TestTrainWithAugmentationReachesFloor(t *testing.T) {
	store := storage.NewMemoryStore()
	seedLeague(t, store, 40)

	service := newTrainService(t, store, TrainOptions{MinSamples: 100, Augment: true})
	result := service.Run(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, 100, result.SampleCount, "synthetic samples must pad the set to the configured floor")
	require.NotNil(t, result.Metrics)

	run, err := store.LatestTrainingRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ml.ModelVersion, run.ModelVersion)
	assert.Equal(t, 100, run.SampleCount)
}

func TestTrainWithoutAugmentationRejectsThinData(t *testing.T) {
	store := storage.NewMemoryStore()
	seedLeague(t, store, 40)

	service := newTrainService(t, store, TrainOptions{MinSamples: 100, Augment: false})
	result := service.Run(context.Background())

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "insufficient data")

	_, err := store.LatestTrainingRun(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound, "a rejected run must not leave a TrainingRun behind")
}

// runSinkStore drops TrainingRun writes to simulate a failing metrics path.
type runSinkStore struct {
	storage.Store
}

func (runSinkStore) SaveTrainingRun(context.Context, *models.TrainingRun) error {
	return errors.New("disk full")
}

func TestTrainFailsWhenRunCannotBeRecorded(t *testing.T) {
	store := storage.NewMemoryStore()
	seedLeague(t, store, 10)

	service := newTrainService(t, runSinkStore{store}, TrainOptions{MinSamples: 20, Augment: true})
	result := service.Run(context.Background())

	assert.False(t, result.Success, "metrics persistence is mandatory, not best-effort")
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "training run")
}

func TestTrainRecordsHyperparameters(t *testing.T) {
	store := storage.NewMemoryStore()
	seedLeague(t, store, 10)

	service := newTrainService(t, store, TrainOptions{
		MinSamples: 20,
		Augment:    true,
		Config:     ml.TrainConfig{Epochs: 3, BatchSize: 8, LearningRate: 0.05, HiddenLayers: []int{8}},
	})
	result := service.Run(context.Background())
	require.True(t, result.Success)

	run, err := store.LatestTrainingRun(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(run.Hyperparams), `"epochs":3`)
}

func TestTrainHistoryOrdering(t *testing.T) {
	store := storage.NewMemoryStore()
	seedLeague(t, store, 10)

	service := newTrainService(t, store, TrainOptions{MinSamples: 20, Augment: true})
	require.True(t, service.Run(context.Background()).Success)
	require.True(t, service.Run(context.Background()).Success)

	runs, err := service.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID, "most recent run first")
}
