package rbm

import (
	"math/rand"

	"github.com/chewxy/math32"
)

func sigmoid(x float32) float32 { return 1 / (1 + math32.Exp(-x)) }

// softplus is log(1 + e^x).
func softplus(x float32) float32 {
	if x > 20 {
		return x
	}
	return math32.Log1p(math32.Exp(x))
}

// activate turns the total input of units into their mean activation, in place.
func activate(u UnitType, a []float32) {
	switch u {
	case Binary:
		for i, x := range a {
			a[i] = sigmoid(x)
		}
	case ReLU:
		for i, x := range a {
			if x < 0 {
				a[i] = 0
			}
		}
	case Gaussian:
		// the mean of a gaussian unit is its total input
	}
}

// sample draws unit states from their mean activation. means and states may be the same slice.
func sample(u UnitType, means, states []float32, r *rand.Rand) {
	switch u {
	case Binary:
		for i, p := range means {
			if r.Float32() < p {
				states[i] = 1
			} else {
				states[i] = 0
			}
		}
	case ReLU:
		// noisy rectified linear units: max(0, x + N(0, sigmoid(x)))
		for i, x := range means {
			s := x + float32(r.NormFloat64())*math32.Sqrt(sigmoid(x))
			if s < 0 {
				s = 0
			}
			states[i] = s
		}
	case Gaussian:
		for i, x := range means {
			states[i] = x + float32(r.NormFloat64())
		}
	}
}
