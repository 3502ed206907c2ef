package ml

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// separableSet builds a trivially learnable dataset: the label's slot in the
// first three features carries the signal.
func separableSet(n int, rng *rand.Rand) ([][]float64, []int) {
	vectors := make([][]float64, n)
	labels := make([]int, n)
	for i := range vectors {
		label := i % 3
		v := make([]float64, 20)
		for j := range v {
			v[j] = rng.Float64() * 0.1
		}
		v[label] = 1.0
		vectors[i] = v
		labels[i] = label
	}
	return vectors, labels
}

func trainedModel(t *testing.T) *Model {
	t.Helper()
	model := NewModel(t.TempDir(), testLogger())
	vectors, labels := separableSet(300, rand.New(rand.NewSource(7)))

	metrics, err := model.Train(vectors, labels, TrainConfig{
		Epochs:          100,
		BatchSize:       16,
		LearningRate:    0.1,
		ValidationSplit: 0.2,
		HiddenLayers:    []int{16},
	})
	require.NoError(t, err)
	require.Equal(t, 300, metrics.SampleCount)
	return model
}

func TestTrainLearnsSeparableData(t *testing.T) {
	model := NewModel(t.TempDir(), testLogger())
	vectors, labels := separableSet(300, rand.New(rand.NewSource(1)))

	metrics, err := model.Train(vectors, labels, TrainConfig{
		Epochs:          100,
		BatchSize:       16,
		LearningRate:    0.1,
		ValidationSplit: 0.2,
		HiddenLayers:    []int{16},
	})

	require.NoError(t, err)
	assert.Greater(t, metrics.Accuracy, 0.7, "the signal is one-hot in the first three features")
	assert.Greater(t, metrics.ValAccuracy, 0.5)
	assert.Less(t, metrics.Loss, 1.5)
}

func TestPredictDistributionInvariants(t *testing.T) {
	model := trainedModel(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 25; i++ {
		vector := make([]float64, 20)
		for j := range vector {
			vector[j] = rng.Float64()
		}
		outcome := model.Predict(vector)

		sum := outcome.HomeWinProb + outcome.DrawProb + outcome.AwayWinProb
		assert.InDelta(t, 1.0, sum, 1e-6)

		maxProb := outcome.HomeWinProb
		if outcome.DrawProb > maxProb {
			maxProb = outcome.DrawProb
		}
		if outcome.AwayWinProb > maxProb {
			maxProb = outcome.AwayWinProb
		}
		assert.InDelta(t, maxProb, outcome.Confidence, 1e-12, "confidence is the max probability")
		assert.Contains(t, []string{"home_win", "draw", "away_win"}, outcome.Predicted)
		assert.False(t, outcome.Fallback)
	}
}

func TestPredictFallbackWhenNoModelLoaded(t *testing.T) {
	model := NewModel(t.TempDir(), testLogger())

	outcome := model.Predict(make([]float64, 20))

	assert.True(t, outcome.Fallback)
	sum := outcome.HomeWinProb + outcome.DrawProb + outcome.AwayWinProb
	assert.InDelta(t, 1.0, sum, 1e-6, "even the fallback distribution must be a distribution")
	assert.Equal(t, outcome.HomeWinProb, outcome.Confidence)
}

func TestPredictFallbackOnWrongVectorLength(t *testing.T) {
	model := trainedModel(t)

	outcome := model.Predict([]float64{0.5, 0.5})

	assert.True(t, outcome.Fallback, "a malformed vector must never abort a batch")
}

func TestArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	model := NewModel(dir, testLogger())
	vectors, labels := separableSet(150, rand.New(rand.NewSource(3)))
	_, err := model.Train(vectors, labels, TrainConfig{
		Epochs:       30,
		HiddenLayers: []int{8},
	})
	require.NoError(t, err)
	require.True(t, model.ArtifactExists())

	restored := NewModel(dir, testLogger())
	require.False(t, restored.Loaded())
	require.NoError(t, restored.Load())
	require.True(t, restored.Loaded())

	probe := make([]float64, 20)
	probe[1] = 1.0
	original := model.Predict(probe)
	reloaded := restored.Predict(probe)

	assert.InDelta(t, original.HomeWinProb, reloaded.HomeWinProb, 1e-9)
	assert.InDelta(t, original.DrawProb, reloaded.DrawProb, 1e-9)
	assert.InDelta(t, original.AwayWinProb, reloaded.AwayWinProb, 1e-9)
	assert.Equal(t, original.Predicted, reloaded.Predicted)
}

func TestLoadFailsWithoutArtifact(t *testing.T) {
	model := NewModel(t.TempDir(), testLogger())
	assert.Error(t, model.Load())
}
