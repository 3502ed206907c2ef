package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/features"
	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// GenerateResult reports one prediction batch. A missing prerequisite is an
// expected pipeline state, not an error: the result stays success-shaped
// with guidance naming the next step.
type GenerateResult struct {
	Success     bool                `json:"success"`
	Generated   int                 `json:"generated"`
	Total       int                 `json:"total"`
	Predictions []models.Prediction `json:"predictions"`
	Guidance    []string            `json:"guidance,omitempty"`
	Errors      []string            `json:"errors"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// PredictService runs inference over upcoming fixtures and persists the
// results.
type PredictService struct {
	store    storage.Store
	engineer *features.Engineer
	model    *ml.Model
	logger   *logrus.Logger
}

func NewPredictService(store storage.Store, engineer *features.Engineer, model *ml.Model, logger *logrus.Logger) *PredictService {
	return &PredictService{store: store, engineer: engineer, model: model, logger: logger}
}

// Generate predicts every fixture with no recorded result. Individual
// predict-or-save failures are logged and skipped; the report says how many
// of the batch produced saved predictions.
func (s *PredictService) Generate(ctx context.Context) *GenerateResult {
	result := &GenerateResult{
		Predictions: []models.Prediction{},
		Errors:      []string{},
		GeneratedAt: time.Now().UTC(),
	}

	guidance, err := s.checkPrerequisites(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if len(guidance) > 0 {
		result.Success = true
		result.Guidance = guidance
		return result
	}

	fixtures, err := s.store.ListUpcomingFixtures(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list upcoming fixtures: %v", err))
		return result
	}
	result.Total = len(fixtures)
	if len(fixtures) == 0 {
		result.Success = true
		result.Guidance = []string{"No upcoming fixtures to predict; run a data sync to refresh the fixture list"}
		return result
	}

	for _, fixture := range fixtures {
		vector := s.engineer.Vector(ctx, fixture.HomeTeamID, fixture.AwayTeamID, fixture.Event)
		outcome := s.model.Predict(vector)

		prediction := &models.Prediction{
			FixtureID:        fixture.ID,
			HomeTeamID:       fixture.HomeTeamID,
			AwayTeamID:       fixture.AwayTeamID,
			HomeWinProb:      outcome.HomeWinProb,
			DrawProb:         outcome.DrawProb,
			AwayWinProb:      outcome.AwayWinProb,
			PredictedOutcome: outcome.Predicted,
			Confidence:       outcome.Confidence,
			ModelVersion:     ml.ModelVersion,
			FeatureSet:       features.FeatureSetTag,
		}
		if err := s.store.SavePrediction(ctx, prediction); err != nil {
			s.logger.Warnf("Failed to save prediction for fixture %d: %v", fixture.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("fixture %d: %v", fixture.ID, err))
			continue
		}
		result.Generated++
		result.Predictions = append(result.Predictions, *prediction)
	}

	result.Success = true
	s.logger.Infof("Generated %d/%d predictions", result.Generated, result.Total)
	return result
}

// checkPrerequisites verifies the pipeline order: data must be synced and a
// model trained before predictions make sense. It returns guidance strings
// when a prerequisite is missing.
func (s *PredictService) checkPrerequisites(ctx context.Context) ([]string, error) {
	teams, err := s.store.CountTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check prerequisites: %w", err)
	}
	players, err := s.store.CountPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check prerequisites: %w", err)
	}
	fixtures, err := s.store.CountFixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check prerequisites: %w", err)
	}
	if teams == 0 || players == 0 || fixtures == 0 {
		return []string{
			"No league data on record",
			"Run POST /api/data/sync first, then POST /api/train/production, then retry",
		}, nil
	}

	if _, err := s.store.LatestTrainingRun(ctx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []string{
				"No trained model available",
				"Run POST /api/train/production first, then retry",
			}, nil
		}
		return nil, fmt.Errorf("failed to check training history: %w", err)
	}

	// Training history exists but the process may have restarted since;
	// try the artifact before falling back to untrained inference.
	if !s.model.Loaded() && s.model.ArtifactExists() {
		if err := s.model.Load(); err != nil {
			s.logger.Warnf("Failed to load model artifact: %v", err)
		}
	}
	if !s.model.Loaded() {
		return []string{
			"Training history exists but no model artifact could be loaded",
			"Run POST /api/train/production to rebuild the model, then retry",
		}, nil
	}
	return nil, nil
}

// Latest returns the most recent predictions for the read endpoint.
func (s *PredictService) Latest(ctx context.Context, limit int) ([]models.Prediction, error) {
	return s.store.LatestPredictions(ctx, limit)
}
