package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/providers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// SyncResult is the structured report of one sync invocation. Success means
// no stage failed; stage errors are listed by name so partial ingestion is
// visible and actionable rather than all-or-nothing.
type SyncResult struct {
	Success         bool      `json:"success"`
	TeamCount       int       `json:"team_count"`
	PlayerCount     int       `json:"player_count"`
	FixtureCount    int       `json:"fixture_count"`
	CurrentGameweek int       `json:"current_gameweek"`
	Errors          []string  `json:"errors"`
	SyncedAt        time.Time `json:"synced_at"`
}

// SyncService pulls league data from the FPL API and persists it. Reruns
// are idempotent: every stage upserts by the upstream natural id.
type SyncService struct {
	store  storage.Store
	client *providers.FPLClient
	logger *logrus.Logger

	mu   sync.Mutex
	last *SyncResult
}

func NewSyncService(store storage.Store, client *providers.FPLClient, logger *logrus.Logger) *SyncService {
	return &SyncService{store: store, client: client, logger: logger}
}

// Run executes the three sync stages. Stages are independent: a failure is
// recorded against its stage name and the remaining stages still run.
func (s *SyncService) Run(ctx context.Context) *SyncResult {
	result := &SyncResult{Errors: []string{}, SyncedAt: time.Now().UTC()}

	s.logger.Info("Starting data sync")

	if err := s.syncBootstrap(ctx, result); err != nil {
		s.logger.Errorf("Bootstrap stage failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("bootstrap: %v", err))
	}
	if err := s.syncFixtures(ctx, result); err != nil {
		s.logger.Errorf("Fixtures stage failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("fixtures: %v", err))
	}
	if err := s.syncCurrentGameweek(ctx, result); err != nil {
		s.logger.Errorf("Gameweek stage failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("gameweek: %v", err))
	}

	result.Success = len(result.Errors) == 0
	s.logger.Infof("Sync finished: %d teams, %d players, %d fixtures, %d stage errors",
		result.TeamCount, result.PlayerCount, result.FixtureCount, len(result.Errors))

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result
}

// LastResult returns the most recent sync report, or nil when no sync has
// run in this process.
func (s *SyncService) LastResult() *SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// syncBootstrap ingests the team and player roster snapshot.
func (s *SyncService) syncBootstrap(ctx context.Context, result *SyncResult) error {
	bootstrap, err := s.client.Bootstrap(ctx)
	if err != nil {
		return err
	}

	teams := make([]models.Team, 0, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teams = append(teams, models.Team{
			ID:                  t.ID,
			Name:                t.Name,
			ShortName:           t.ShortName,
			StrengthOverallHome: t.StrengthOverallHome,
			StrengthOverallAway: t.StrengthOverallAway,
			StrengthAttackHome:  t.StrengthAttackHome,
			StrengthAttackAway:  t.StrengthAttackAway,
			StrengthDefenceHome: t.StrengthDefenceHome,
			StrengthDefenceAway: t.StrengthDefenceAway,
		})
	}
	if err := s.store.UpsertTeams(ctx, teams); err != nil {
		return fmt.Errorf("failed to save teams: %w", err)
	}
	result.TeamCount = len(teams)

	players := make([]models.Player, 0, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		players = append(players, models.Player{
			ID:                       e.ID,
			TeamID:                   e.Team,
			FirstName:                e.FirstName,
			SecondName:               e.SecondName,
			WebName:                  e.WebName,
			Position:                 e.PositionName(),
			NowCost:                  e.NowCost,
			TotalPoints:              e.TotalPoints,
			Minutes:                  e.Minutes,
			GoalsScored:              e.GoalsScored,
			Assists:                  e.Assists,
			Form:                     providers.ParseDecimal(e.Form),
			ICTIndex:                 providers.ParseDecimal(e.ICTIndex),
			ExpectedGoals:            providers.ParseDecimal(e.ExpectedGoals),
			ExpectedAssists:          providers.ParseDecimal(e.ExpectedAssists),
			ExpectedGoalInvolvements: providers.ParseDecimal(e.ExpectedGoalInvolvements),
		})
	}
	if err := s.store.UpsertPlayers(ctx, players); err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}
	result.PlayerCount = len(players)
	return nil
}

// syncFixtures ingests the fixture list. A fixture only flips to finished
// when both scores are present, preserving the finished-implies-scores
// invariant even against inconsistent upstream rows.
func (s *SyncService) syncFixtures(ctx context.Context, result *SyncResult) error {
	entries, err := s.client.Fixtures(ctx)
	if err != nil {
		return err
	}

	fixtures := make([]models.Fixture, 0, len(entries))
	for _, f := range entries {
		fixture := models.Fixture{
			ID:             f.ID,
			Event:          f.Event,
			HomeTeamID:     f.TeamH,
			AwayTeamID:     f.TeamA,
			HomeScore:      f.TeamHScore,
			AwayScore:      f.TeamAScore,
			Finished:       f.Finished && f.TeamHScore != nil && f.TeamAScore != nil,
			HomeDifficulty: f.TeamHDifficulty,
			AwayDifficulty: f.TeamADifficulty,
		}
		if f.KickoffTime != nil {
			fixture.KickoffTime = *f.KickoffTime
		}
		fixtures = append(fixtures, fixture)
	}
	if err := s.store.UpsertFixtures(ctx, fixtures); err != nil {
		return fmt.Errorf("failed to save fixtures: %w", err)
	}
	result.FixtureCount = len(fixtures)
	return nil
}

func (s *SyncService) syncCurrentGameweek(ctx context.Context, result *SyncResult) error {
	gameweek, err := s.client.CurrentGameweek(ctx)
	if err != nil {
		return err
	}
	result.CurrentGameweek = gameweek
	return nil
}
