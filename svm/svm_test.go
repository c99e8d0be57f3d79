package svm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs generates classes gaussian blobs centered on the corners of the unit square.
func blobs(n, classes int, seed int64) ([][]float32, []int) {
	centers := [][2]float32{{0, 0}, {1, 1}, {0, 1}, {1, 0}}
	r := rand.New(rand.NewSource(seed))
	inputs := make([][]float32, n)
	labels := make([]int, n)
	for i := range inputs {
		c := i % classes
		inputs[i] = []float32{
			centers[c][0] + float32(r.NormFloat64()*0.1),
			centers[c][1] + float32(r.NormFloat64()*0.1),
		}
		labels[i] = c
	}
	return inputs, labels
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Parameters)
		ok     bool
	}{
		{"default", func(*Parameters) {}, true},
		{"negative C", func(p *Parameters) { p.C = -1 }, false},
		{"zero gamma", func(p *Parameters) { p.Gamma = 0 }, false},
		{"zero gamma linear", func(p *Parameters) { p.Gamma = 0; p.Kernel = Linear }, true},
		{"no features", func(p *Parameters) { p.Features = 0 }, false},
		{"no epochs", func(p *Parameters) { p.Epochs = 0 }, false},
		{"bad kernel", func(p *Parameters) { p.Kernel = 7 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParameters()
			tc.modify(&p)
			if tc.ok {
				assert.NoError(t, p.Check())
			} else {
				assert.Error(t, p.Check())
			}
		})
	}
}

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	assert.Equal(t, RBF, p.Kernel)
	assert.Equal(t, 2.8, p.C)
	assert.Equal(t, 0.0073, p.Gamma)
	assert.True(t, p.Probability)
}

func TestTrainLinear(t *testing.T) {
	inputs, labels := blobs(200, 2, 1)
	p := DefaultParameters()
	p.Kernel = Linear
	m, err := Train(inputs, labels, p)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Classes)
	assert.GreaterOrEqual(t, m.Accuracy(inputs, labels), 0.95)
}

func TestTrainRBF(t *testing.T) {
	// xor is not linearly separable
	inputs, labels := blobs(400, 4, 2)
	for i := range labels {
		labels[i] /= 2
	}
	p := DefaultParameters()
	p.Gamma = 2
	p.C = 10
	m, err := Train(inputs, labels, p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Accuracy(inputs, labels), 0.9)

	probs := m.Probabilities([]float32{0, 0})
	require.Len(t, probs, 2)
	assert.InDelta(t, 1, probs[0]+probs[1], 1e-9)
	assert.Greater(t, probs[0], probs[1])
}

func TestTrainMulticlass(t *testing.T) {
	inputs, labels := blobs(300, 3, 3)
	p := DefaultParameters()
	p.Gamma = 1
	p.Probability = false
	m, err := Train(inputs, labels, p)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Classes)
	assert.GreaterOrEqual(t, m.Accuracy(inputs, labels), 0.9)

	probs := m.Probabilities([]float32{1, 1})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.Equal(t, 1, m.Predict([]float32{1, 1}))
}

func TestTrainErrors(t *testing.T) {
	p := DefaultParameters()
	_, err := Train(nil, nil, p)
	assert.Error(t, err)
	_, err = Train([][]float32{{1}, {2}}, []int{0}, p)
	assert.Error(t, err)
	_, err = Train([][]float32{{1}, {2}}, []int{0, 0}, p)
	assert.Error(t, err, "a single class cannot be separated")
	_, err = Train([][]float32{{1}, {2, 3}}, []int{0, 1}, p)
	assert.Error(t, err)
}

func TestPlatt(t *testing.T) {
	dec := []float64{-3, -2, -1.5, -1, 1, 1.5, 2, 3}
	pos := []bool{false, false, false, true, false, true, true, true}
	A, B := platt(dec, pos)
	assert.Less(t, A, 0.0, "larger decision values are more likely positive")
	assert.Less(t, sigmoid(-3*A+B), 0.5)
	assert.Greater(t, sigmoid(3*A+B), 0.5)
	assert.False(t, math.IsNaN(A) || math.IsNaN(B))
}

func TestGridSearch(t *testing.T) {
	inputs, labels := blobs(120, 2, 4)
	p := DefaultParameters()
	p.Epochs = 5
	p.Features = 64
	grid := Grid{C: []float64{0.01, 10}, Gamma: []float64{0.5, 2}}

	best, err := GridSearch(inputs, labels, p, grid, 3)
	require.NoError(t, err)
	assert.Contains(t, grid.C, best.C)
	assert.Contains(t, grid.Gamma, best.Gamma)
	assert.GreaterOrEqual(t, best.Accuracy, 0.9)
	assert.Equal(t, p.Epochs, best.Epochs)

	_, err = GridSearch(inputs, labels, p, grid, 1)
	assert.Error(t, err)
}

func TestAssignFolds(t *testing.T) {
	fold := assignFolds(10, 3, rand.New(rand.NewSource(1)))
	counts := make([]int, 3)
	for _, f := range fold {
		counts[f]++
	}
	assert.ElementsMatch(t, []int{4, 3, 3}, counts)
}
