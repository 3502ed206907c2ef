package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/features"
	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// TrainResult is the structured report of one training invocation.
type TrainResult struct {
	Success      bool        `json:"success"`
	SampleCount  int         `json:"sample_count"`
	ModelVersion string      `json:"model_version"`
	Metrics      *ml.Metrics `json:"metrics,omitempty"`
	Errors       []string    `json:"errors"`
	TrainedAt    time.Time   `json:"trained_at"`
}

// TrainOptions is the deployment profile for training runs.
type TrainOptions struct {
	MinSamples int
	Augment    bool // synthetic augmentation below the floor vs hard failure
	Config     ml.TrainConfig
}

// TrainService assembles the training set, fits the model and records the
// TrainingRun. Recording is mandatory: a trained model whose metrics were
// not persisted is reported as a failed run.
type TrainService struct {
	store    storage.Store
	engineer *features.Engineer
	model    *ml.Model
	opts     TrainOptions
	logger   *logrus.Logger
}

func NewTrainService(store storage.Store, engineer *features.Engineer, model *ml.Model, opts TrainOptions, logger *logrus.Logger) *TrainService {
	if opts.MinSamples <= 0 {
		opts.MinSamples = 100
	}
	return &TrainService{store: store, engineer: engineer, model: model, opts: opts, logger: logger}
}

// Run executes one training pass end to end.
func (s *TrainService) Run(ctx context.Context) *TrainResult {
	result := &TrainResult{ModelVersion: ml.ModelVersion, Errors: []string{}, TrainedAt: time.Now().UTC()}

	finished, err := s.store.CountFinishedFixtures(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to check data volume: %v", err))
		return result
	}
	if !s.opts.Augment && finished < int64(s.opts.MinSamples) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("insufficient data: %d completed matches, %d required", finished, s.opts.MinSamples))
		return result
	}

	vectors, labels, err := s.engineer.TrainingSet(ctx, s.opts.MinSamples, s.opts.Augment)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to build training set: %v", err))
		return result
	}
	if len(vectors) == 0 {
		result.Errors = append(result.Errors, "insufficient data: no completed matches on record")
		return result
	}

	metrics, err := s.model.Train(vectors, labels, s.opts.Config)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("training: %v", err))
		return result
	}
	result.Metrics = metrics
	result.SampleCount = metrics.SampleCount

	if err := s.saveRun(ctx, metrics); err != nil {
		s.logger.Errorf("Failed to record training run: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to record training run: %v", err))
		return result
	}

	result.Success = true
	return result
}

func (s *TrainService) saveRun(ctx context.Context, metrics *ml.Metrics) error {
	hyperparams, err := json.Marshal(s.opts.Config)
	if err != nil {
		return err
	}
	run := &models.TrainingRun{
		ModelVersion: ml.ModelVersion,
		SampleCount:  metrics.SampleCount,
		Loss:         metrics.Loss,
		Accuracy:     metrics.Accuracy,
		ValLoss:      metrics.ValLoss,
		ValAccuracy:  metrics.ValAccuracy,
		Hyperparams:  hyperparams,
	}
	return s.store.SaveTrainingRun(ctx, run)
}

// History returns recent training runs for the status endpoint.
func (s *TrainService) History(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	return s.store.ListTrainingRuns(ctx, limit)
}
