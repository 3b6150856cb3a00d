package neural

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// Network is a single-hidden-layer feed-forward regressor. Fields are
// exported for gob round-tripping; weights are row-major [out][in].
type Network struct {
	Inputs  int
	Hidden  int
	Outputs int

	W1 [][]float64 // hidden x inputs
	B1 []float64
	W2 [][]float64 // outputs x hidden
	B2 []float64
}

// Predict runs a forward pass over one normalized feature row.
func (n *Network) Predict(row []float64) ([]float64, error) {
	if len(row) != n.Inputs {
		return nil, fmt.Errorf("feature row has %d values, network expects %d", len(row), n.Inputs)
	}
	hidden := make([]float64, n.Hidden)
	for j := 0; j < n.Hidden; j++ {
		sum := n.B1[j]
		for i, v := range row {
			sum += n.W1[j][i] * v
		}
		hidden[j] = math.Tanh(sum)
	}
	out := make([]float64, n.Outputs)
	for k := 0; k < n.Outputs; k++ {
		sum := n.B2[k]
		for j, h := range hidden {
			sum += n.W2[k][j] * h
		}
		out[k] = sum
	}
	return out, nil
}

// Encode serializes the network for artifact storage.
func (n *Network) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(n); err != nil {
		return nil, fmt.Errorf("encode network: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(blob []byte) (*Network, error) {
	var n Network
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	if n.Inputs <= 0 || n.Hidden <= 0 || n.Outputs <= 0 {
		return nil, fmt.Errorf("decoded network has invalid shape %dx%dx%d", n.Inputs, n.Hidden, n.Outputs)
	}
	return &n, nil
}
