package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// brokenStore fails every lookup the engineer performs.
type brokenStore struct {
	storage.Store
}

var errDown = errors.New("storage down")

func (brokenStore) GetTeam(context.Context, uint) (*models.Team, error) { return nil, errDown }
func (brokenStore) RecentFixturesByTeam(context.Context, uint, int, int) ([]models.Fixture, error) {
	return nil, errDown
}
func (brokenStore) HeadToHead(context.Context, uint, uint, int) ([]models.Fixture, error) {
	return nil, errDown
}
func (brokenStore) ListPlayersByTeam(context.Context, uint) ([]models.Player, error) {
	return nil, errDown
}

func intPtr(v int) *int { return &v }

func seedFixture(t *testing.T, store storage.Store, id uint, event int, home, away uint, homeScore, awayScore int) {
	t.Helper()
	err := store.UpsertFixtures(context.Background(), []models.Fixture{{
		ID:          id,
		Event:       event,
		HomeTeamID:  home,
		AwayTeamID:  away,
		HomeScore:   intPtr(homeScore),
		AwayScore:   intPtr(awayScore),
		Finished:    true,
		KickoffTime: time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC).AddDate(0, 0, event*7),
	}})
	require.NoError(t, err)
}

func TestVectorAlwaysHasFixedLength(t *testing.T) {
	tests := []struct {
		name  string
		store storage.Store
	}{
		{"empty store", storage.NewMemoryStore()},
		{"every lookup failing", brokenStore{storage.NewMemoryStore()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engineer := NewEngineer(tt.store, testLogger())
			vector := engineer.Vector(context.Background(), 1, 2, 10)
			assert.Len(t, vector, VectorSize)
		})
	}
}

func TestVectorNeutralWhenLookupsFail(t *testing.T) {
	engineer := NewEngineer(brokenStore{storage.NewMemoryStore()}, testLogger())
	vector := engineer.Vector(context.Background(), 1, 2, 10)

	require.Len(t, vector, VectorSize)
	for i, v := range vector {
		if i == 15 {
			// h2h experience factor is 0 with no meetings on record.
			assert.Zero(t, v)
			continue
		}
		assert.InDelta(t, neutral, v, 1e-9, "feature %d should be neutral", i)
	}
}

func TestVectorValuesStayInUnitRange(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertTeams(ctx, []models.Team{
		{ID: 1, Name: "Arsenal", StrengthOverallHome: 1350, StrengthAttackHome: 1400, StrengthDefenceHome: 1300},
		{ID: 2, Name: "Chelsea", StrengthOverallAway: 1250, StrengthAttackAway: 1200, StrengthDefenceAway: 1280},
	}))
	require.NoError(t, store.UpsertPlayers(ctx, []models.Player{
		{ID: 1, TeamID: 1, ICTIndex: 250, Form: 9.5},
		{ID: 2, TeamID: 2, ICTIndex: 80, Form: 4.0},
	}))
	seedFixture(t, store, 1, 3, 1, 2, 7, 0)

	engineer := NewEngineer(store, testLogger())
	vector := engineer.Vector(ctx, 1, 2, 10)

	require.Len(t, vector, VectorSize)
	for i, v := range vector {
		assert.GreaterOrEqual(t, v, 0.0, "feature %d", i)
		assert.LessOrEqual(t, v, 1.0, "feature %d", i)
	}
}

func TestFormUsesOnlyMatchesBeforeGameweek(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	// Two wins before gameweek 5, one heavy loss after it.
	seedFixture(t, store, 1, 3, 1, 2, 2, 0)
	seedFixture(t, store, 2, 4, 1, 3, 3, 1)
	seedFixture(t, store, 3, 6, 4, 1, 5, 0)

	engineer := NewEngineer(store, testLogger())
	form := engineer.formFeatures(ctx, 1, 5)

	require.Len(t, form, 3)
	assert.InDelta(t, 1.0, form[0], 1e-9, "two wins from two matches is full points")
	assert.InDelta(t, 2.5/3.0, form[1], 1e-9)
	assert.InDelta(t, 0.5/3.0, form[2], 1e-9)
}

func TestHeadToHeadShares(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	seedFixture(t, store, 1, 1, 1, 2, 2, 0) // team 1 wins
	seedFixture(t, store, 2, 2, 2, 1, 1, 1) // draw
	seedFixture(t, store, 3, 3, 2, 1, 3, 0) // team 2 wins
	seedFixture(t, store, 4, 4, 3, 4, 1, 0) // unrelated pair

	engineer := NewEngineer(store, testLogger())
	h2h := engineer.headToHeadFeatures(ctx, 1, 2)

	require.Len(t, h2h, 4)
	assert.InDelta(t, 1.0/3.0, h2h[0], 1e-9)
	assert.InDelta(t, 1.0/3.0, h2h[1], 1e-9)
	assert.InDelta(t, 1.0/3.0, h2h[2], 1e-9)
	assert.InDelta(t, 0.3, h2h[3], 1e-9, "experience is meetings/10 capped at 1")
}

func TestZeroRosterTeamGetsNeutralSquadFeatures(t *testing.T) {
	store := storage.NewMemoryStore()
	engineer := NewEngineer(store, testLogger())

	squad := engineer.squadFeatures(context.Background(), 42)

	require.Len(t, squad, 2)
	assert.Equal(t, []float64{neutral, neutral}, squad)
}

func TestTrainingSetAugmentsToMinimum(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 1; i <= 40; i++ {
		seedFixture(t, store, uint(i), i%38+1, uint(i%10+1), uint(i%10+11), i%4, i%3)
	}

	engineer := NewEngineer(store, testLogger())
	vectors, labels, err := engineer.TrainingSet(context.Background(), 100, true)

	require.NoError(t, err)
	assert.Len(t, vectors, 100, "synthetic samples should pad the set to the floor")
	assert.Len(t, labels, 100)
	for _, v := range vectors {
		assert.Len(t, v, VectorSize)
	}
	for _, label := range labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.LessOrEqual(t, label, 2)
	}
}

func TestTrainingSetWithoutAugmentationKeepsRealSamplesOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 1; i <= 12; i++ {
		seedFixture(t, store, uint(i), i, 1, 2, i%3, i%2)
	}

	engineer := NewEngineer(store, testLogger())
	vectors, _, err := engineer.TrainingSet(context.Background(), 100, false)

	require.NoError(t, err)
	assert.Len(t, vectors, 12)
}
