package svm

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// featureMap maps the samples to the space in which the classifier is linear. The last feature
// is always 1 and acts as the bias.
type featureMap struct {
	Kernel Kernel
	In     int

	// random Fourier features: z(x) = sqrt(2/D)·cos(Ωx + φ)
	Omega []float64 // D × In, drawn from N(0, 2γ)
	Phase []float64 // D, drawn from U(0, 2π)
}

func newFeatureMap(p Parameters, in int, r *rand.Rand) *featureMap {
	m := &featureMap{Kernel: p.Kernel, In: in}
	if p.Kernel != RBF {
		return m
	}
	std := math.Sqrt(2 * p.Gamma)
	m.Omega = make([]float64, p.Features*in)
	for i := range m.Omega {
		m.Omega[i] = r.NormFloat64() * std
	}
	m.Phase = make([]float64, p.Features)
	for i := range m.Phase {
		m.Phase[i] = r.Float64() * 2 * math.Pi
	}
	return m
}

// Out is the dimension of the mapped samples.
func (m *featureMap) Out() int {
	if m.Kernel == RBF {
		return len(m.Phase) + 1
	}
	return m.In + 1
}

func (m *featureMap) apply(x []float32) []float64 {
	retVal := make([]float64, m.Out())
	retVal[len(retVal)-1] = 1
	if m.Kernel != RBF {
		for i, v := range x {
			retVal[i] = float64(v)
		}
		return retVal
	}

	in := make([]float64, len(x))
	for i, v := range x {
		in[i] = float64(v)
	}
	d := len(m.Phase)
	omega := mat.NewDense(d, m.In, m.Omega)
	z := mat.NewVecDense(d, retVal[:d])
	z.MulVec(omega, mat.NewVecDense(m.In, in))

	scale := math.Sqrt(2 / float64(d))
	for i := 0; i < d; i++ {
		retVal[i] = scale * math.Cos(retVal[i]+m.Phase[i])
	}
	return retVal
}
