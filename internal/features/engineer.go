package features

import (
	"context"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

const (
	// VectorSize is the fixed dimensionality every vector must have; the
	// classifier's input layer is sized to it.
	VectorSize = 20

	// FeatureSetTag identifies this derivation recipe on persisted
	// predictions.
	FeatureSetTag = "fpl-20f-v2"

	// formWindow is how many completed matches feed the recent-form block.
	formWindow = 5

	// h2hWindow is how many past meetings feed the head-to-head block.
	h2hWindow = 10

	// neutral is the default value used when history is missing or a
	// lookup fails.
	neutral = 0.5

	// strengthScale normalizes FPL strength ratings (roughly 1000-1400)
	// into [0,1].
	strengthScale = 1400.0

	totalGameweeks = 38
)

// Engineer derives the fixed-length numeric vector describing a prospective
// fixture. The same derivation feeds both training and inference, so the
// contract is strict: Vector always returns exactly VectorSize entries and
// never fails, degrading to neutral values when data is missing.
type Engineer struct {
	store  storage.Store
	logger *logrus.Logger
}

func NewEngineer(store storage.Store, logger *logrus.Logger) *Engineer {
	return &Engineer{store: store, logger: logger}
}

// Vector computes the 20 features for (home, away, gameweek), in fixed
// order: 6 strength ratings, 6 recent-form figures, 4 head-to-head figures,
// 4 squad-quality figures.
func (e *Engineer) Vector(ctx context.Context, homeID, awayID uint, gameweek int) []float64 {
	v := make([]float64, 0, VectorSize)

	v = append(v, e.strengthFeatures(ctx, homeID, awayID)...)
	v = append(v, e.formFeatures(ctx, homeID, gameweek)...)
	v = append(v, e.formFeatures(ctx, awayID, gameweek)...)
	v = append(v, e.headToHeadFeatures(ctx, homeID, awayID)...)
	v = append(v, e.squadFeatures(ctx, homeID)...)
	v = append(v, e.squadFeatures(ctx, awayID)...)

	return e.padded(v, gameweek)
}

// padded guarantees exactly VectorSize entries. The main path already
// produces them; degraded paths are topped up with the home-advantage flag,
// the season-progress fraction and neutral fillers, in that order.
func (e *Engineer) padded(v []float64, gameweek int) []float64 {
	if len(v) > VectorSize {
		return v[:VectorSize]
	}
	fillers := []float64{1.0, clamp(float64(gameweek) / totalGameweeks)}
	for i := 0; len(v) < VectorSize; i++ {
		if i < len(fillers) {
			v = append(v, fillers[i])
		} else {
			v = append(v, neutral)
		}
	}
	return v
}

// strengthFeatures: home overall/attack/defence then away overall/attack/
// defence, each scaled into [0,1].
func (e *Engineer) strengthFeatures(ctx context.Context, homeID, awayID uint) []float64 {
	out := make([]float64, 6)
	for i := range out {
		out[i] = neutral
	}

	home, err := e.store.GetTeam(ctx, homeID)
	if err != nil {
		e.logger.Debugf("strength lookup failed for team %d: %v", homeID, err)
	} else {
		out[0] = clamp(float64(home.StrengthOverallHome) / strengthScale)
		out[1] = clamp(float64(home.StrengthAttackHome) / strengthScale)
		out[2] = clamp(float64(home.StrengthDefenceHome) / strengthScale)
	}

	away, err := e.store.GetTeam(ctx, awayID)
	if err != nil {
		e.logger.Debugf("strength lookup failed for team %d: %v", awayID, err)
	} else {
		out[3] = clamp(float64(away.StrengthOverallAway) / strengthScale)
		out[4] = clamp(float64(away.StrengthAttackAway) / strengthScale)
		out[5] = clamp(float64(away.StrengthDefenceAway) / strengthScale)
	}

	return out
}

// formFeatures: average points (3/1/0), goals for and goals against over
// the last formWindow completed matches strictly before the gameweek, each
// scaled by /3 into a rough [0,1] range. No history yields neutral values.
func (e *Engineer) formFeatures(ctx context.Context, teamID uint, gameweek int) []float64 {
	fixtures, err := e.store.RecentFixturesByTeam(ctx, teamID, gameweek, formWindow)
	if err != nil {
		e.logger.Debugf("form lookup failed for team %d: %v", teamID, err)
		return []float64{neutral, neutral, neutral}
	}
	if len(fixtures) == 0 {
		return []float64{neutral, neutral, neutral}
	}

	var points, goalsFor, goalsAgainst float64
	for _, f := range fixtures {
		if f.HomeScore == nil || f.AwayScore == nil {
			continue
		}
		var scored, conceded int
		if f.HomeTeamID == teamID {
			scored, conceded = *f.HomeScore, *f.AwayScore
		} else {
			scored, conceded = *f.AwayScore, *f.HomeScore
		}
		goalsFor += float64(scored)
		goalsAgainst += float64(conceded)
		switch {
		case scored > conceded:
			points += 3
		case scored == conceded:
			points += 1
		}
	}

	n := float64(len(fixtures))
	return []float64{
		clamp(points / n / 3.0),
		clamp(goalsFor / n / 3.0),
		clamp(goalsAgainst / n / 3.0),
	}
}

// headToHeadFeatures: shares of home-team wins, draws and away-team wins
// over the last h2hWindow meetings, plus a capped experience factor
// min(meetings/10, 1).
func (e *Engineer) headToHeadFeatures(ctx context.Context, homeID, awayID uint) []float64 {
	meetings, err := e.store.HeadToHead(ctx, homeID, awayID, h2hWindow)
	if err != nil {
		e.logger.Debugf("head-to-head lookup failed for %d vs %d: %v", homeID, awayID, err)
		return []float64{neutral, neutral, neutral, 0}
	}
	if len(meetings) == 0 {
		return []float64{neutral, neutral, neutral, 0}
	}

	var homeWins, draws, awayWins float64
	for _, f := range meetings {
		if f.HomeScore == nil || f.AwayScore == nil {
			continue
		}
		winner := uint(0)
		if *f.HomeScore > *f.AwayScore {
			winner = f.HomeTeamID
		} else if *f.AwayScore > *f.HomeScore {
			winner = f.AwayTeamID
		}
		switch winner {
		case homeID:
			homeWins++
		case awayID:
			awayWins++
		default:
			draws++
		}
	}

	n := float64(len(meetings))
	experience := n / float64(h2hWindow)
	if experience > 1 {
		experience = 1
	}
	return []float64{homeWins / n, draws / n, awayWins / n, experience}
}

// squadFeatures: roster-average ICT index (/100) and form (/10). Teams with
// no players on record get neutral quality rather than an error.
func (e *Engineer) squadFeatures(ctx context.Context, teamID uint) []float64 {
	players, err := e.store.ListPlayersByTeam(ctx, teamID)
	if err != nil {
		e.logger.Debugf("squad lookup failed for team %d: %v", teamID, err)
		return []float64{neutral, neutral}
	}
	if len(players) == 0 {
		return []float64{neutral, neutral}
	}

	var ict, form float64
	for _, p := range players {
		ict += p.ICTIndex
		form += p.Form
	}
	n := float64(len(players))
	return []float64{
		clamp(ict / n / 100.0),
		clamp(form / n / 10.0),
	}
}

// TrainingSet assembles (vector, label) pairs from every completed match.
// Labels: 0 home win, 1 draw, 2 away win. When fewer than minSamples real
// samples exist and augment is true, synthetic uniform-random pairs are
// appended up to minSamples. That trade-off keeps training alive on a young
// dataset; it is robustness, not a correctness guarantee.
func (e *Engineer) TrainingSet(ctx context.Context, minSamples int, augment bool) ([][]float64, []int, error) {
	fixtures, err := e.store.ListFinishedFixtures(ctx)
	if err != nil {
		return nil, nil, err
	}

	var vectors [][]float64
	var labels []int
	for _, f := range fixtures {
		result := f.Result()
		if result == "" {
			continue
		}
		vectors = append(vectors, e.Vector(ctx, f.HomeTeamID, f.AwayTeamID, f.Event))
		labels = append(labels, labelIndex(result))
	}

	if augment && len(vectors) < minSamples {
		added := minSamples - len(vectors)
		e.logger.Warnf("Only %d real training samples, augmenting with %d synthetic samples",
			len(vectors), added)
		for i := 0; i < added; i++ {
			v := make([]float64, VectorSize)
			for j := range v {
				v[j] = rand.Float64()
			}
			vectors = append(vectors, v)
			labels = append(labels, rand.Intn(3))
		}
	}

	return vectors, labels, nil
}

func labelIndex(outcome string) int {
	switch outcome {
	case models.OutcomeHomeWin:
		return 0
	case models.OutcomeDraw:
		return 1
	default:
		return 2
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
