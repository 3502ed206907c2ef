package storage

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
)

// MemoryStore is the ephemeral Store implementation: mutex-guarded maps,
// no durability. Used for serverless-style deployments and in tests.
type MemoryStore struct {
	mu sync.RWMutex

	teams        map[uint]models.Team
	players      map[uint]models.Player
	fixtures     map[uint]models.Fixture
	predictions  []models.Prediction
	trainingRuns []models.TrainingRun
	apiKeys      map[uint]models.APIKey
	usage        []models.APIUsage
	dailyUsage   map[string]models.APIUsageDaily // key: "<keyID>/<date>"

	nextPredictionID uint
	nextRunID        uint
	nextKeyID        uint
	nextUsageID      uint
	nextDailyID      uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:      make(map[uint]models.Team),
		players:    make(map[uint]models.Player),
		fixtures:   make(map[uint]models.Fixture),
		apiKeys:    make(map[uint]models.APIKey),
		dailyUsage: make(map[string]models.APIUsageDaily),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) UpsertTeams(ctx context.Context, teams []models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range teams {
		t.UpdatedAt = now
		s.teams[t.ID] = t
	}
	return nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &team, nil
}

func (s *MemoryStore) CountTeams(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.teams)), nil
}

func (s *MemoryStore) UpsertPlayers(ctx context.Context, players []models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, p := range players {
		p.UpdatedAt = now
		s.players[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) ListPlayersByTeam(ctx context.Context, teamID uint) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []models.Player
	for _, p := range s.players {
		if p.TeamID == teamID {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (s *MemoryStore) CountPlayers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.players)), nil
}

func (s *MemoryStore) UpsertFixtures(ctx context.Context, fixtures []models.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, f := range fixtures {
		f.UpdatedAt = now
		s.fixtures[f.ID] = f
	}
	return nil
}

func (s *MemoryStore) CountFixtures(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.fixtures)), nil
}

func (s *MemoryStore) finishedFixturesLocked() []models.Fixture {
	var fixtures []models.Fixture
	for _, f := range s.fixtures {
		if f.Finished {
			fixtures = append(fixtures, f)
		}
	}
	return fixtures
}

func (s *MemoryStore) ListFinishedFixtures(ctx context.Context) ([]models.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fixtures := s.finishedFixturesLocked()
	sort.Slice(fixtures, func(i, j int) bool {
		if fixtures[i].Event != fixtures[j].Event {
			return fixtures[i].Event < fixtures[j].Event
		}
		return fixtures[i].KickoffTime.Before(fixtures[j].KickoffTime)
	})
	return fixtures, nil
}

func (s *MemoryStore) CountFinishedFixtures(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.finishedFixturesLocked())), nil
}

func (s *MemoryStore) ListUpcomingFixtures(ctx context.Context) ([]models.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fixtures []models.Fixture
	for _, f := range s.fixtures {
		if !f.Finished {
			fixtures = append(fixtures, f)
		}
	}
	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].KickoffTime.Before(fixtures[j].KickoffTime)
	})
	return fixtures, nil
}

func sortRecentFirst(fixtures []models.Fixture) {
	sort.Slice(fixtures, func(i, j int) bool {
		if fixtures[i].Event != fixtures[j].Event {
			return fixtures[i].Event > fixtures[j].Event
		}
		return fixtures[i].KickoffTime.After(fixtures[j].KickoffTime)
	})
}

func (s *MemoryStore) RecentFixturesByTeam(ctx context.Context, teamID uint, beforeGameweek, limit int) ([]models.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fixtures []models.Fixture
	for _, f := range s.fixtures {
		if f.Finished && f.Event < beforeGameweek && (f.HomeTeamID == teamID || f.AwayTeamID == teamID) {
			fixtures = append(fixtures, f)
		}
	}
	sortRecentFirst(fixtures)
	if len(fixtures) > limit {
		fixtures = fixtures[:limit]
	}
	return fixtures, nil
}

func (s *MemoryStore) HeadToHead(ctx context.Context, teamA, teamB uint, limit int) ([]models.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fixtures []models.Fixture
	for _, f := range s.fixtures {
		if !f.Finished {
			continue
		}
		if (f.HomeTeamID == teamA && f.AwayTeamID == teamB) ||
			(f.HomeTeamID == teamB && f.AwayTeamID == teamA) {
			fixtures = append(fixtures, f)
		}
	}
	sortRecentFirst(fixtures)
	if len(fixtures) > limit {
		fixtures = fixtures[:limit]
	}
	return fixtures, nil
}

func (s *MemoryStore) SavePrediction(ctx context.Context, p *models.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPredictionID++
	p.ID = s.nextPredictionID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.predictions = append(s.predictions, *p)
	return nil
}

func (s *MemoryStore) LatestPredictions(ctx context.Context, limit int) ([]models.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Prediction, len(s.predictions))
	copy(out, s.predictions)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountPredictions(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.predictions)), nil
}

func (s *MemoryStore) SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunID++
	run.ID = s.nextRunID
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	s.trainingRuns = append(s.trainingRuns, *run)
	return nil
}

func (s *MemoryStore) LatestTrainingRun(ctx context.Context) (*models.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.trainingRuns) == 0 {
		return nil, ErrNotFound
	}
	run := s.trainingRuns[len(s.trainingRuns)-1]
	return &run, nil
}

func (s *MemoryStore) ListTrainingRuns(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TrainingRun, len(s.trainingRuns))
	copy(out, s.trainingRuns)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountTrainingRuns(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.trainingRuns)), nil
}

func (s *MemoryStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextKeyID++
	key.ID = s.nextKeyID
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	s.apiKeys[key.ID] = *key
	return nil
}

func (s *MemoryStore) GetAPIKeyByToken(ctx context.Context, token string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.apiKeys {
		if k.Key == token {
			key := k
			return &key, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]models.APIKey, 0, len(s.apiKeys))
	for _, k := range s.apiKeys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (s *MemoryStore) TouchAPIKey(ctx context.Context, id uint, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.apiKeys[id]
	if !ok {
		return ErrNotFound
	}
	key.LastUsedAt = &usedAt
	s.apiKeys[id] = key
	return nil
}

func (s *MemoryStore) SaveUsage(ctx context.Context, event *models.APIUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUsageID++
	event.ID = s.nextUsageID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.usage = append(s.usage, *event)
	return nil
}

func (s *MemoryStore) CountUsageSince(ctx context.Context, keyID uint, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, e := range s.usage {
		if e.APIKeyID == keyID && e.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) OldestUsageSince(ctx context.Context, keyID uint, since time.Time) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest time.Time
	for _, e := range s.usage {
		if e.APIKeyID == keyID && e.CreatedAt.After(since) {
			if oldest.IsZero() || e.CreatedAt.Before(oldest) {
				oldest = e.CreatedAt
			}
		}
	}
	if oldest.IsZero() {
		return time.Time{}, ErrNotFound
	}
	return oldest, nil
}

func (s *MemoryStore) BumpDailyUsage(ctx context.Context, keyID uint, date string, statusCode int, latencyMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapKey := date + "/" + strconv.FormatUint(uint64(keyID), 10)
	daily, ok := s.dailyUsage[mapKey]
	if !ok {
		s.nextDailyID++
		daily = models.APIUsageDaily{ID: s.nextDailyID, APIKeyID: keyID, Date: date}
	}
	daily.Absorb(statusCode, latencyMs)
	daily.UpdatedAt = time.Now().UTC()
	s.dailyUsage[mapKey] = daily
	return nil
}

func (s *MemoryStore) ListDailyUsage(ctx context.Context, keyID uint, days int) ([]models.APIUsageDaily, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	var rows []models.APIUsageDaily
	for _, d := range s.dailyUsage {
		if d.APIKeyID == keyID && d.Date >= cutoff {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows, nil
}
