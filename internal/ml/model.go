package ml

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// ModelVersion tags every prediction and training run produced by this
// architecture. Bump it when the architecture or feature recipe changes so
// historical rows stay attributable.
const ModelVersion = "nn-20f-v2"

const artifactName = "classifier.json"

// Fallback distribution returned when inference fails for a single fixture:
// a mild home bias instead of a hard error, so one bad vector never blocks
// a batch.
var fallbackProbs = [3]float64{0.40, 0.28, 0.32}

// Model owns the classifier, its version tag and its on-disk artifact. The
// artifact directory is deliberately decoupled from the database: the model
// can be absent while training history exists, and vice versa.
type Model struct {
	mu      sync.RWMutex
	network *Network
	dir     string
	logger  *logrus.Logger
	rng     *rand.Rand
}

// Outcome is a single inference result.
type Outcome struct {
	HomeWinProb float64 `json:"home_win_prob"`
	DrawProb    float64 `json:"draw_prob"`
	AwayWinProb float64 `json:"away_win_prob"`
	Predicted   string  `json:"predicted"`
	Confidence  float64 `json:"confidence"`
	Fallback    bool    `json:"fallback"`
}

var outcomeLabels = [3]string{"home_win", "draw", "away_win"}

func NewModel(dir string, logger *logrus.Logger) *Model {
	return &Model{
		dir:    dir,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Loaded reports whether a trained network is in memory.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.network != nil
}

// ArtifactExists reports whether a serialized classifier is on disk.
func (m *Model) ArtifactExists() bool {
	_, err := os.Stat(filepath.Join(m.dir, artifactName))
	return err == nil
}

// Train fits a fresh network on the dataset, swaps it in and persists the
// artifact. It returns the final-epoch metrics.
func (m *Model) Train(vectors [][]float64, labels []int, cfg TrainConfig) (*Metrics, error) {
	if len(cfg.HiddenLayers) == 0 {
		cfg.HiddenLayers = []int{32, 16}
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty training set")
	}

	inputSize := len(vectors[0])
	network := NewNetwork(inputSize, cfg.HiddenLayers, 3, m.rng)

	start := time.Now()
	metrics, err := network.Train(vectors, labels, cfg, m.rng)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	m.logger.Infof("Trained %s on %d samples in %v (loss=%.4f acc=%.3f val_loss=%.4f val_acc=%.3f)",
		ModelVersion, metrics.SampleCount, time.Since(start).Round(time.Millisecond),
		metrics.Loss, metrics.Accuracy, metrics.ValLoss, metrics.ValAccuracy)

	m.mu.Lock()
	m.network = network
	m.mu.Unlock()

	if err := m.save(network); err != nil {
		// The in-memory model still serves; artifact loss only affects
		// restarts.
		m.logger.Errorf("Failed to persist model artifact: %v", err)
	}

	return metrics, nil
}

// Predict maps a feature vector to a 3-way outcome distribution. Internal
// failures are masked behind the fixed fallback distribution.
func (m *Model) Predict(vector []float64) Outcome {
	m.mu.RLock()
	network := m.network
	m.mu.RUnlock()

	if network == nil {
		return fallbackOutcome()
	}
	probs, err := network.Forward(vector)
	if err != nil || len(probs) != 3 {
		m.logger.Warnf("Inference failed, returning fallback distribution: %v", err)
		return fallbackOutcome()
	}

	best := argmax(probs)
	return Outcome{
		HomeWinProb: probs[0],
		DrawProb:    probs[1],
		AwayWinProb: probs[2],
		Predicted:   outcomeLabels[best],
		Confidence:  probs[best],
	}
}

func fallbackOutcome() Outcome {
	return Outcome{
		HomeWinProb: fallbackProbs[0],
		DrawProb:    fallbackProbs[1],
		AwayWinProb: fallbackProbs[2],
		Predicted:   outcomeLabels[0],
		Confidence:  fallbackProbs[0],
		Fallback:    true,
	}
}

// artifact is the JSON layout of a serialized network.
type artifact struct {
	Version string      `json:"version"`
	Sizes   []int       `json:"sizes"`
	Weights [][]float64 `json:"weights"` // row-major, one slice per layer
	Biases  [][]float64 `json:"biases"`
	SavedAt time.Time   `json:"saved_at"`
}

func (m *Model) save(network *Network) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	art := artifact{
		Version: ModelVersion,
		Sizes:   network.sizes,
		SavedAt: time.Now().UTC(),
	}
	for i, w := range network.weights {
		raw := w.RawMatrix()
		data := make([]float64, len(raw.Data))
		copy(data, raw.Data)
		art.Weights = append(art.Weights, data)

		bias := make([]float64, network.biases[i].Len())
		copy(bias, network.biases[i].RawVector().Data)
		art.Biases = append(art.Biases, bias)
	}

	payload, err := json.Marshal(art)
	if err != nil {
		return err
	}
	path := filepath.Join(m.dir, artifactName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	m.logger.Infof("Model artifact saved to %s", path)
	return nil
}

// Load restores the classifier from its on-disk artifact, if one exists.
func (m *Model) Load() error {
	payload, err := os.ReadFile(filepath.Join(m.dir, artifactName))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no model artifact found in %s", m.dir)
		}
		return fmt.Errorf("failed to read model artifact: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(payload, &art); err != nil {
		return fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if len(art.Sizes) < 2 || len(art.Weights) != len(art.Sizes)-1 {
		return fmt.Errorf("model artifact is malformed")
	}

	network := &Network{sizes: art.Sizes}
	for i := 1; i < len(art.Sizes); i++ {
		out, in := art.Sizes[i], art.Sizes[i-1]
		if len(art.Weights[i-1]) != out*in || len(art.Biases[i-1]) != out {
			return fmt.Errorf("model artifact layer %d has wrong shape", i)
		}
		network.weights = append(network.weights, mat.NewDense(out, in, art.Weights[i-1]))
		network.biases = append(network.biases, mat.NewVecDense(out, art.Biases[i-1]))
	}

	m.mu.Lock()
	m.network = network
	m.mu.Unlock()
	m.logger.Infof("Loaded model %s from artifact (saved %s)", art.Version, art.SavedAt.Format(time.RFC3339))
	return nil
}
