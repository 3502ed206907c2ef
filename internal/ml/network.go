package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Network is a feed-forward softmax classifier: ReLU hidden layers, a
// 3-way softmax output and cross-entropy loss, trained with mini-batch SGD.
type Network struct {
	sizes   []int // layer widths, input first, output last
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// TrainConfig holds the hyperparameters of one training invocation.
type TrainConfig struct {
	Epochs          int     `json:"epochs"`
	BatchSize       int     `json:"batch_size"`
	LearningRate    float64 `json:"learning_rate"`
	ValidationSplit float64 `json:"validation_split"`
	HiddenLayers    []int   `json:"hidden_layers"`
}

// Metrics carries final-epoch training results.
type Metrics struct {
	Loss        float64 `json:"loss"`
	Accuracy    float64 `json:"accuracy"`
	ValLoss     float64 `json:"val_loss"`
	ValAccuracy float64 `json:"val_accuracy"`
	SampleCount int     `json:"sample_count"`
}

// NewNetwork builds a network with the given layer widths and small random
// initial weights (scaled by 1/sqrt(fan-in)).
func NewNetwork(inputSize int, hiddenLayers []int, outputSize int, rng *rand.Rand) *Network {
	sizes := append([]int{inputSize}, hiddenLayers...)
	sizes = append(sizes, outputSize)

	n := &Network{sizes: sizes}
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		scale := 1.0 / math.Sqrt(float64(in))
		data := make([]float64, out*in)
		for j := range data {
			data[j] = rng.NormFloat64() * scale
		}
		n.weights = append(n.weights, mat.NewDense(out, in, data))
		n.biases = append(n.biases, mat.NewVecDense(out, nil))
	}
	return n
}

// InputSize returns the expected feature-vector length.
func (n *Network) InputSize() int {
	return n.sizes[0]
}

// OutputSize returns the number of outcome classes.
func (n *Network) OutputSize() int {
	return n.sizes[len(n.sizes)-1]
}

// Forward runs one inference pass and returns the class distribution.
func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.sizes[0] {
		return nil, fmt.Errorf("expected %d features, got %d", n.sizes[0], len(input))
	}
	activations, _ := n.forwardPass(mat.NewVecDense(len(input), input))
	out := activations[len(activations)-1]
	probs := make([]float64, out.Len())
	for i := range probs {
		probs[i] = out.AtVec(i)
	}
	return probs, nil
}

// forwardPass returns per-layer activations (input included) and
// pre-activations for the hidden/output layers.
func (n *Network) forwardPass(input *mat.VecDense) (activations, preacts []*mat.VecDense) {
	activations = []*mat.VecDense{input}
	a := input
	last := len(n.weights) - 1
	for i, w := range n.weights {
		z := mat.NewVecDense(n.sizes[i+1], nil)
		z.MulVec(w, a)
		z.AddVec(z, n.biases[i])
		preacts = append(preacts, z)

		next := mat.NewVecDense(z.Len(), nil)
		if i == last {
			softmaxInto(next, z)
		} else {
			reluInto(next, z)
		}
		activations = append(activations, next)
		a = next
	}
	return activations, preacts
}

// Train fits the network on (vectors, labels) with the held-out validation
// split and returns final-epoch metrics.
func (n *Network) Train(vectors [][]float64, labels []int, cfg TrainConfig, rng *rand.Rand) (*Metrics, error) {
	if len(vectors) == 0 || len(vectors) != len(labels) {
		return nil, fmt.Errorf("invalid training set: %d vectors, %d labels", len(vectors), len(labels))
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 50
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.01
	}

	// Shuffle once, then carve off the validation tail.
	order := rng.Perm(len(vectors))
	shuffledVecs := make([][]float64, len(vectors))
	shuffledLabels := make([]int, len(labels))
	for i, idx := range order {
		shuffledVecs[i] = vectors[idx]
		shuffledLabels[i] = labels[idx]
	}

	valCount := int(float64(len(vectors)) * cfg.ValidationSplit)
	if valCount >= len(vectors) {
		valCount = len(vectors) - 1
	}
	trainVecs := shuffledVecs[:len(vectors)-valCount]
	trainLabels := shuffledLabels[:len(labels)-valCount]
	valVecs := shuffledVecs[len(vectors)-valCount:]
	valLabels := shuffledLabels[len(labels)-valCount:]

	var trainLoss, trainAcc float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		perm := rng.Perm(len(trainVecs))
		for start := 0; start < len(perm); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(perm) {
				end = len(perm)
			}
			n.trainBatch(trainVecs, trainLabels, perm[start:end], cfg.LearningRate)
		}
		trainLoss, trainAcc = n.Evaluate(trainVecs, trainLabels)
	}

	metrics := &Metrics{
		Loss:        trainLoss,
		Accuracy:    trainAcc,
		SampleCount: len(vectors),
	}
	if len(valVecs) > 0 {
		metrics.ValLoss, metrics.ValAccuracy = n.Evaluate(valVecs, valLabels)
	}
	return metrics, nil
}

// trainBatch accumulates gradients over the batch and applies one SGD step.
func (n *Network) trainBatch(vectors [][]float64, labels []int, batch []int, lr float64) {
	wGrads := make([]*mat.Dense, len(n.weights))
	bGrads := make([]*mat.VecDense, len(n.biases))
	for i, w := range n.weights {
		r, c := w.Dims()
		wGrads[i] = mat.NewDense(r, c, nil)
		bGrads[i] = mat.NewVecDense(n.biases[i].Len(), nil)
	}

	for _, idx := range batch {
		n.backprop(vectors[idx], labels[idx], wGrads, bGrads)
	}

	step := lr / float64(len(batch))
	for i := range n.weights {
		var scaled mat.Dense
		scaled.Scale(step, wGrads[i])
		n.weights[i].Sub(n.weights[i], &scaled)

		var scaledB mat.VecDense
		scaledB.ScaleVec(step, bGrads[i])
		n.biases[i].SubVec(n.biases[i], &scaledB)
	}
}

// backprop adds one sample's gradients into the accumulators. With softmax
// plus cross-entropy the output delta is simply p - onehot(label).
func (n *Network) backprop(input []float64, label int, wGrads []*mat.Dense, bGrads []*mat.VecDense) {
	x := mat.NewVecDense(len(input), input)
	activations, preacts := n.forwardPass(x)

	out := activations[len(activations)-1]
	delta := mat.NewVecDense(out.Len(), nil)
	delta.CopyVec(out)
	delta.SetVec(label, delta.AtVec(label)-1)

	for layer := len(n.weights) - 1; layer >= 0; layer-- {
		var outer mat.Dense
		outer.Outer(1, delta, activations[layer])
		wGrads[layer].Add(wGrads[layer], &outer)
		bGrads[layer].AddVec(bGrads[layer], delta)

		if layer == 0 {
			break
		}
		prev := mat.NewVecDense(n.sizes[layer], nil)
		prev.MulVec(n.weights[layer].T(), delta)
		// Gate by the ReLU derivative of the previous pre-activation.
		z := preacts[layer-1]
		for i := 0; i < prev.Len(); i++ {
			if z.AtVec(i) <= 0 {
				prev.SetVec(i, 0)
			}
		}
		delta = prev
	}
}

// Evaluate returns mean cross-entropy loss and accuracy over a dataset.
func (n *Network) Evaluate(vectors [][]float64, labels []int) (loss, accuracy float64) {
	if len(vectors) == 0 {
		return 0, 0
	}
	const eps = 1e-12
	correct := 0
	for i, v := range vectors {
		probs, err := n.Forward(v)
		if err != nil {
			continue
		}
		loss += -math.Log(probs[labels[i]] + eps)
		if argmax(probs) == labels[i] {
			correct++
		}
	}
	loss /= float64(len(vectors))
	accuracy = float64(correct) / float64(len(vectors))
	return loss, accuracy
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func reluInto(dst, src *mat.VecDense) {
	for i := 0; i < src.Len(); i++ {
		v := src.AtVec(i)
		if v < 0 {
			v = 0
		}
		dst.SetVec(i, v)
	}
}

// softmaxInto applies the max-shifted softmax for numeric stability.
func softmaxInto(dst, src *mat.VecDense) {
	maxVal := src.AtVec(0)
	for i := 1; i < src.Len(); i++ {
		if src.AtVec(i) > maxVal {
			maxVal = src.AtVec(i)
		}
	}
	var sum float64
	for i := 0; i < src.Len(); i++ {
		v := math.Exp(src.AtVec(i) - maxVal)
		dst.SetVec(i, v)
		sum += v
	}
	for i := 0; i < dst.Len(); i++ {
		dst.SetVec(i, dst.AtVec(i)/sum)
	}
}
