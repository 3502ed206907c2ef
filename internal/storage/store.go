package storage

import (
	"context"
	"errors"
	"time"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
)

// ErrNotFound is returned by lookups when no row matches. Callers must be
// able to tell "no such row" apart from "store unreachable", so
// implementations never fold transport errors into it.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract shared by the request gate, the
// orchestrators and the feature engineer. Two implementations exist: a
// gorm-backed relational store and a mutex-guarded in-memory store for
// ephemeral deployments and tests.
type Store interface {
	Ping(ctx context.Context) error

	// Teams
	UpsertTeams(ctx context.Context, teams []models.Team) error
	GetTeam(ctx context.Context, id uint) (*models.Team, error)
	CountTeams(ctx context.Context) (int64, error)

	// Players
	UpsertPlayers(ctx context.Context, players []models.Player) error
	ListPlayersByTeam(ctx context.Context, teamID uint) ([]models.Player, error)
	CountPlayers(ctx context.Context) (int64, error)

	// Fixtures
	UpsertFixtures(ctx context.Context, fixtures []models.Fixture) error
	CountFixtures(ctx context.Context) (int64, error)
	// ListFinishedFixtures returns all fixtures with a recorded result,
	// oldest first.
	ListFinishedFixtures(ctx context.Context) ([]models.Fixture, error)
	CountFinishedFixtures(ctx context.Context) (int64, error)
	// ListUpcomingFixtures returns fixtures with no recorded result,
	// ordered by kickoff.
	ListUpcomingFixtures(ctx context.Context) ([]models.Fixture, error)
	// RecentFixturesByTeam returns up to limit finished fixtures involving
	// the team in gameweeks strictly before the given one, most recent
	// first.
	RecentFixturesByTeam(ctx context.Context, teamID uint, beforeGameweek, limit int) ([]models.Fixture, error)
	// HeadToHead returns up to limit finished meetings between the two
	// teams regardless of venue, most recent first.
	HeadToHead(ctx context.Context, teamA, teamB uint, limit int) ([]models.Fixture, error)

	// Predictions
	SavePrediction(ctx context.Context, p *models.Prediction) error
	LatestPredictions(ctx context.Context, limit int) ([]models.Prediction, error)
	CountPredictions(ctx context.Context) (int64, error)

	// Training runs
	SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error
	LatestTrainingRun(ctx context.Context) (*models.TrainingRun, error)
	ListTrainingRuns(ctx context.Context, limit int) ([]models.TrainingRun, error)
	CountTrainingRuns(ctx context.Context) (int64, error)

	// API keys
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByToken(ctx context.Context, token string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]models.APIKey, error)
	TouchAPIKey(ctx context.Context, id uint, usedAt time.Time) error

	// Usage accounting
	SaveUsage(ctx context.Context, event *models.APIUsage) error
	// CountUsageSince counts events for the key in the rolling window
	// starting at since.
	CountUsageSince(ctx context.Context, keyID uint, since time.Time) (int64, error)
	// OldestUsageSince returns the creation time of the oldest in-window
	// event, used to compute the 429 reset hint.
	OldestUsageSince(ctx context.Context, keyID uint, since time.Time) (time.Time, error)
	// BumpDailyUsage folds one event into the (key, date) rollup row.
	BumpDailyUsage(ctx context.Context, keyID uint, date string, statusCode int, latencyMs float64) error
	ListDailyUsage(ctx context.Context, keyID uint, days int) ([]models.APIUsageDaily, error)
}
