package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/database"
)

// GormStore is the relational Store implementation. Sync idempotence comes
// from insert-or-replace upserts keyed by the upstream natural ids.
type GormStore struct {
	db *database.DB
}

func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the schema for every entity.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.Team{},
		&models.Player{},
		&models.Fixture{},
		&models.Prediction{},
		&models.TrainingRun{},
		&models.APIKey{},
		&models.APIUsage{},
		&models.APIUsageDaily{},
	)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) UpsertTeams(ctx context.Context, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&teams).Error
}

func (s *GormStore) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).First(&team, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *GormStore) CountTeams(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Team{}).Count(&count).Error
	return count, err
}

func (s *GormStore) UpsertPlayers(ctx context.Context, players []models.Player) error {
	if len(players) == 0 {
		return nil
	}
	// Batched to keep sqlite parameter counts in bounds.
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&players, 100).Error
}

func (s *GormStore) ListPlayersByTeam(ctx context.Context, teamID uint) ([]models.Player, error) {
	var players []models.Player
	err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&players).Error
	return players, err
}

func (s *GormStore) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Player{}).Count(&count).Error
	return count, err
}

func (s *GormStore) UpsertFixtures(ctx context.Context, fixtures []models.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&fixtures, 100).Error
}

func (s *GormStore) CountFixtures(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Fixture{}).Count(&count).Error
	return count, err
}

func (s *GormStore) ListFinishedFixtures(ctx context.Context) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	err := s.db.WithContext(ctx).
		Where("finished = ?", true).
		Order("event ASC, kickoff_time ASC").
		Find(&fixtures).Error
	return fixtures, err
}

func (s *GormStore) CountFinishedFixtures(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Fixture{}).
		Where("finished = ?", true).Count(&count).Error
	return count, err
}

func (s *GormStore) ListUpcomingFixtures(ctx context.Context) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	err := s.db.WithContext(ctx).
		Where("finished = ?", false).
		Order("kickoff_time ASC").
		Find(&fixtures).Error
	return fixtures, err
}

func (s *GormStore) RecentFixturesByTeam(ctx context.Context, teamID uint, beforeGameweek, limit int) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	err := s.db.WithContext(ctx).
		Where("finished = ? AND event < ? AND (home_team_id = ? OR away_team_id = ?)",
			true, beforeGameweek, teamID, teamID).
		Order("event DESC, kickoff_time DESC").
		Limit(limit).
		Find(&fixtures).Error
	return fixtures, err
}

func (s *GormStore) HeadToHead(ctx context.Context, teamA, teamB uint, limit int) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	err := s.db.WithContext(ctx).
		Where("finished = ? AND ((home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?))",
			true, teamA, teamB, teamB, teamA).
		Order("event DESC, kickoff_time DESC").
		Limit(limit).
		Find(&fixtures).Error
	return fixtures, err
}

func (s *GormStore) SavePrediction(ctx context.Context, p *models.Prediction) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) LatestPredictions(ctx context.Context, limit int) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&predictions).Error
	return predictions, err
}

func (s *GormStore) CountPredictions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Prediction{}).Count(&count).Error
	return count, err
}

func (s *GormStore) SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *GormStore) LatestTrainingRun(ctx context.Context) (*models.TrainingRun, error) {
	var run models.TrainingRun
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *GormStore) ListTrainingRuns(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	var runs []models.TrainingRun
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (s *GormStore) CountTrainingRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TrainingRun{}).Count(&count).Error
	return count, err
}

func (s *GormStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	return s.db.WithContext(ctx).Create(key).Error
}

func (s *GormStore) GetAPIKeyByToken(ctx context.Context, token string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).Where("key = ?", token).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *GormStore) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (s *GormStore) TouchAPIKey(ctx context.Context, id uint, usedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", usedAt).Error
}

func (s *GormStore) SaveUsage(ctx context.Context, event *models.APIUsage) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *GormStore) CountUsageSince(ctx context.Context, keyID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.APIUsage{}).
		Where("api_key_id = ? AND created_at > ?", keyID, since).
		Count(&count).Error
	return count, err
}

func (s *GormStore) OldestUsageSince(ctx context.Context, keyID uint, since time.Time) (time.Time, error) {
	var event models.APIUsage
	err := s.db.WithContext(ctx).
		Where("api_key_id = ? AND created_at > ?", keyID, since).
		Order("created_at ASC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return event.CreatedAt, nil
}

func (s *GormStore) BumpDailyUsage(ctx context.Context, keyID uint, date string, statusCode int, latencyMs float64) error {
	// Read-modify-write inside a transaction; the unique (key, date) index
	// keeps concurrent writers from creating duplicate rollup rows.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var daily models.APIUsageDaily
		err := tx.Where("api_key_id = ? AND date = ?", keyID, date).First(&daily).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			daily = models.APIUsageDaily{APIKeyID: keyID, Date: date}
			daily.Absorb(statusCode, latencyMs)
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&daily).Error
		}
		if err != nil {
			return err
		}
		daily.Absorb(statusCode, latencyMs)
		return tx.Save(&daily).Error
	})
}

func (s *GormStore) ListDailyUsage(ctx context.Context, keyID uint, days int) ([]models.APIUsageDaily, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	var rows []models.APIUsageDaily
	err := s.db.WithContext(ctx).
		Where("api_key_id = ? AND date >= ?", keyID, cutoff).
		Order("date DESC").
		Find(&rows).Error
	return rows, err
}
