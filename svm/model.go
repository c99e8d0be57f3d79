package svm

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Model is a trained classifier.
type Model struct {
	Parameters
	Classes int

	Map     *featureMap
	Weights [][]float64 // one hyperplane per class
	A, B    []float64   // sigmoid of the probability estimates, per class
}

// Train trains a classifier on the samples. The labels are the 0-indexed classes of the samples.
func Train(inputs [][]float32, labels []int, p Parameters) (*Model, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("cannot train on an empty data set")
	}
	if len(inputs) != len(labels) {
		return nil, errors.Errorf("%d samples but %d labels", len(inputs), len(labels))
	}
	var classes int
	for i, l := range labels {
		if l < 0 {
			return nil, errors.Errorf("label %d of sample %d is negative", l, i)
		}
		if l+1 > classes {
			classes = l + 1
		}
	}
	if classes < 2 {
		return nil, errors.Errorf("at least two classes are required, got %d", classes)
	}

	r := rand.New(rand.NewSource(p.Seed))
	m := &Model{
		Parameters: p,
		Classes:    classes,
		Map:        newFeatureMap(p, len(inputs[0]), r),
		Weights:    make([][]float64, classes),
	}

	xs := make([][]float64, len(inputs))
	for i, in := range inputs {
		if len(in) != m.Map.In {
			return nil, errors.Errorf("sample %d has %d features, expected %d", i, len(in), m.Map.In)
		}
		xs[i] = m.Map.apply(in)
	}

	ys := make([]float64, len(labels))
	for c := range m.Weights {
		for i, l := range labels {
			ys[i] = -1
			if l == c {
				ys[i] = 1
			}
		}
		m.Weights[c] = pegasos(xs, ys, p, r)
	}

	if p.Probability {
		m.A = make([]float64, classes)
		m.B = make([]float64, classes)
		dec := make([]float64, len(xs))
		pos := make([]bool, len(xs))
		for c, w := range m.Weights {
			for i, x := range xs {
				dec[i] = floats.Dot(w, x)
				pos[i] = labels[i] == c
			}
			m.A[c], m.B[c] = platt(dec, pos)
		}
	}
	return m, nil
}

// pegasos solves the primal problem with stochastic sub-gradient descent.
func pegasos(xs [][]float64, ys []float64, p Parameters, r *rand.Rand) []float64 {
	n := len(xs)
	lambda := 1 / (p.C * float64(n))
	w := make([]float64, len(xs[0]))
	steps := p.Epochs * n
	for t := 1; t <= steps; t++ {
		i := r.Intn(n)
		eta := 1 / (lambda * float64(t))
		margin := ys[i] * floats.Dot(w, xs[i])
		floats.Scale(1-eta*lambda, w)
		if margin < 1 {
			floats.AddScaled(w, eta*ys[i], xs[i])
		}

		// project onto the ball of radius 1/sqrt(λ)
		if norm := floats.Norm(w, 2); norm > 0 {
			if limit := 1 / math.Sqrt(lambda); norm > limit {
				floats.Scale(limit/norm, w)
			}
		}
	}
	return w
}

// Decision returns the signed distance of x to every hyperplane.
func (m *Model) Decision(x []float32) []float64 {
	z := m.Map.apply(x)
	retVal := make([]float64, m.Classes)
	for c, w := range m.Weights {
		retVal[c] = floats.Dot(w, z)
	}
	return retVal
}

// Predict returns the most likely class of x.
func (m *Model) Predict(x []float32) int {
	return floats.MaxIdx(m.Decision(x))
}

// Probabilities estimates the probability of every class. Without calibration the
// probabilities are a softmax of the decision values.
func (m *Model) Probabilities(x []float32) []float64 {
	dec := m.Decision(x)
	if m.A == nil {
		max := floats.Max(dec)
		for i := range dec {
			dec[i] = math.Exp(dec[i] - max)
		}
	} else {
		for i := range dec {
			dec[i] = sigmoid(dec[i]*m.A[i] + m.B[i])
		}
	}
	if sum := floats.Sum(dec); sum > 0 {
		floats.Scale(1/sum, dec)
	}
	return dec
}

// Accuracy is the ratio of samples classified correctly.
func (m *Model) Accuracy(inputs [][]float32, labels []int) float64 {
	if len(inputs) == 0 {
		return 0
	}
	var correct int
	for i, in := range inputs {
		if m.Predict(in) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(inputs))
}

// sigmoid is 1/(1+exp(x)), computed without overflow.
func sigmoid(fApB float64) float64 {
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}
