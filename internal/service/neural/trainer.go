// Package neural provides the default model backend: a compact feed-forward
// regressor trained with mini-batch SGD. It exists so the forecasting
// pipeline has a dependency-free, deterministic backend; anything satisfying
// the domain Trainer interface can replace it.
package neural

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	domrepo "FinCast/internal/domain/repository"
)

type Config struct {
	HiddenUnits  int
	Epochs       int
	LearningRate float64
	BatchSize    int
	Seed         int64
}

func (c *Config) normalize() {
	if c.HiddenUnits <= 0 {
		c.HiddenUnits = 32
	}
	if c.Epochs <= 0 {
		c.Epochs = 40
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.01
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
}

type Trainer struct {
	cfg Config
}

func NewTrainer(cfg Config) *Trainer {
	cfg.normalize()
	return &Trainer{cfg: cfg}
}

// Train fits a network on normalized features x and targets y. It returns
// the fitted model and its final mean-squared-error over the training set.
// Training checks ctx between epochs so a shutdown does not hang on a slow
// symbol.
func (t *Trainer) Train(ctx context.Context, x, y [][]float64) (domrepo.Model, float64, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, 0, fmt.Errorf("training set misaligned: %d feature rows, %d target rows", len(x), len(y))
	}
	inputs := len(x[0])
	outputs := len(y[0])

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	n := newNetwork(inputs, t.cfg.HiddenUnits, outputs, rng)

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}

	var loss float64
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		loss = t.runEpoch(n, x, y, order)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return nil, 0, fmt.Errorf("training diverged, loss=%v", loss)
	}
	return n, loss, nil
}

// Load restores a model previously produced by Encode.
func (t *Trainer) Load(blob []byte) (domrepo.Model, error) {
	return decode(blob)
}

func newNetwork(inputs, hidden, outputs int, rng *rand.Rand) *Network {
	// Xavier-style init keeps tanh activations away from saturation.
	n := &Network{
		Inputs:  inputs,
		Hidden:  hidden,
		Outputs: outputs,
		W1:      make([][]float64, hidden),
		B1:      make([]float64, hidden),
		W2:      make([][]float64, outputs),
		B2:      make([]float64, outputs),
	}
	s1 := math.Sqrt(2.0 / float64(inputs+hidden))
	for j := range n.W1 {
		n.W1[j] = make([]float64, inputs)
		for i := range n.W1[j] {
			n.W1[j][i] = rng.NormFloat64() * s1
		}
	}
	s2 := math.Sqrt(2.0 / float64(hidden+outputs))
	for k := range n.W2 {
		n.W2[k] = make([]float64, hidden)
		for j := range n.W2[k] {
			n.W2[k][j] = rng.NormFloat64() * s2
		}
	}
	return n
}

func (t *Trainer) runEpoch(n *Network, x, y [][]float64, order []int) float64 {
	lr := t.cfg.LearningRate
	var total float64
	var count int

	hidden := make([]float64, n.Hidden)
	out := make([]float64, n.Outputs)
	dOut := make([]float64, n.Outputs)
	dHidden := make([]float64, n.Hidden)

	for batchStart := 0; batchStart < len(order); batchStart += t.cfg.BatchSize {
		batchEnd := batchStart + t.cfg.BatchSize
		if batchEnd > len(order) {
			batchEnd = len(order)
		}
		for _, idx := range order[batchStart:batchEnd] {
			row, target := x[idx], y[idx]

			for j := 0; j < n.Hidden; j++ {
				sum := n.B1[j]
				for i, v := range row {
					sum += n.W1[j][i] * v
				}
				hidden[j] = math.Tanh(sum)
			}
			for k := 0; k < n.Outputs; k++ {
				sum := n.B2[k]
				for j, h := range hidden {
					sum += n.W2[k][j] * h
				}
				out[k] = sum
			}

			for k := 0; k < n.Outputs; k++ {
				diff := out[k] - target[k]
				total += diff * diff
				dOut[k] = 2 * diff / float64(n.Outputs)
			}
			count++

			for j := 0; j < n.Hidden; j++ {
				var g float64
				for k := 0; k < n.Outputs; k++ {
					g += dOut[k] * n.W2[k][j]
				}
				dHidden[j] = g * (1 - hidden[j]*hidden[j])
			}
			for k := 0; k < n.Outputs; k++ {
				for j, h := range hidden {
					n.W2[k][j] -= lr * dOut[k] * h
				}
				n.B2[k] -= lr * dOut[k]
			}
			for j := 0; j < n.Hidden; j++ {
				for i, v := range row {
					n.W1[j][i] -= lr * dHidden[j] * v
				}
				n.B1[j] -= lr * dHidden[j]
			}
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
