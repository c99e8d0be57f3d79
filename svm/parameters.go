// Package svm is a probabilistic support vector classifier, trained with the Pegasos solver.
//
// Multi class problems are solved one class against the rest. The RBF kernel is approximated
// with random Fourier features, which keeps the solver linear.
package svm

import (
	"github.com/pkg/errors"
)

// Kernel is the kernel of the classifier.
type Kernel byte

const (
	Linear Kernel = iota
	RBF
)

func (k Kernel) String() string {
	switch k {
	case Linear:
		return "linear"
	case RBF:
		return "rbf"
	}
	return "unknown"
}

// Parameters configures the training of a Model.
type Parameters struct {
	Kernel Kernel
	C      float64 // cost of the constraint violations
	Gamma  float64 // width of the RBF kernel: exp(-gamma·|x-y|²)

	Features    int  // number of random Fourier features approximating the RBF kernel
	Epochs      int  // passes of the solver over the data
	Probability bool // calibrate probability estimates

	Seed int64
}

// DefaultParameters are good defaults for DBN features.
func DefaultParameters() Parameters {
	return Parameters{
		Kernel:      RBF,
		C:           2.8,
		Gamma:       0.0073,
		Features:    512,
		Epochs:      20,
		Probability: true,
		Seed:        1,
	}
}

// Check returns an error describing the first invalid parameter.
func (p Parameters) Check() error {
	switch {
	case p.Kernel != Linear && p.Kernel != RBF:
		return errors.Errorf("unknown kernel %d", p.Kernel)
	case p.C <= 0:
		return errors.Errorf("C must be positive, got %v", p.C)
	case p.Kernel == RBF && p.Gamma <= 0:
		return errors.Errorf("gamma must be positive, got %v", p.Gamma)
	case p.Kernel == RBF && p.Features < 1:
		return errors.Errorf("the RBF kernel needs at least one feature, got %d", p.Features)
	case p.Epochs < 1:
		return errors.Errorf("at least one epoch is required, got %d", p.Epochs)
	}
	return nil
}
