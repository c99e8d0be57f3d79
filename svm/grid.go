package svm

import (
	"math/rand"

	"github.com/gorgonia/boltzmann/internal/parallel"
	"github.com/pkg/errors"
)

// Grid is the set of values tried by GridSearch.
type Grid struct {
	C     []float64
	Gamma []float64 // ignored by the linear kernel
}

// DefaultGrid is the usual coarse logarithmic grid.
func DefaultGrid() Grid {
	return Grid{
		C:     []float64{0.03125, 0.125, 0.5, 2, 8, 32, 128, 512},
		Gamma: []float64{0.0001220703125, 0.00048828125, 0.001953125, 0.0078125, 0.03125, 0.125, 0.5},
	}
}

// Result is the cross validated accuracy of a set of parameters.
type Result struct {
	Parameters
	Accuracy float64
}

// GridSearch cross validates every combination of the grid over folds folds and returns the
// best parameters. The other fields of p are kept as they are.
func GridSearch(inputs [][]float32, labels []int, p Parameters, grid Grid, folds int) (best Result, err error) {
	if folds < 2 || folds > len(inputs) {
		return best, errors.Errorf("cannot cross validate %d samples over %d folds", len(inputs), folds)
	}
	if len(inputs) != len(labels) {
		return best, errors.Errorf("%d samples but %d labels", len(inputs), len(labels))
	}
	gammas := grid.Gamma
	if p.Kernel == Linear || len(gammas) == 0 {
		gammas = []float64{p.Gamma}
	}

	var candidates []Result
	for _, c := range grid.C {
		for _, g := range gammas {
			q := p
			q.C, q.Gamma = c, g
			candidates = append(candidates, Result{Parameters: q})
		}
	}
	if len(candidates) == 0 {
		return best, errors.New("empty grid")
	}

	fold := assignFolds(len(inputs), folds, rand.New(rand.NewSource(p.Seed)))
	errs := make([]error, len(candidates))
	parallel.ForEach(len(candidates), 0, func(i int) {
		candidates[i].Accuracy, errs[i] = CrossValidate(inputs, labels, candidates[i].Parameters, fold, folds)
	})

	best.Accuracy = -1
	for i, c := range candidates {
		if errs[i] != nil {
			return best, errs[i]
		}
		if c.Accuracy > best.Accuracy {
			best = c
		}
	}
	return best, nil
}

// assignFolds assigns every sample to one of k folds, at random.
func assignFolds(n, k int, r *rand.Rand) []int {
	retVal := make([]int, n)
	for i, j := range r.Perm(n) {
		retVal[j] = i % k
	}
	return retVal
}

// CrossValidate trains on all the folds but one and tests on the remaining one, for every fold.
// It returns the accuracy over all the samples.
func CrossValidate(inputs [][]float32, labels []int, p Parameters, fold []int, folds int) (float64, error) {
	var correct int
	for k := 0; k < folds; k++ {
		var trainX, testX [][]float32
		var trainY, testY []int
		for i, f := range fold {
			if f == k {
				testX = append(testX, inputs[i])
				testY = append(testY, labels[i])
			} else {
				trainX = append(trainX, inputs[i])
				trainY = append(trainY, labels[i])
			}
		}
		m, err := Train(trainX, trainY, p)
		if err != nil {
			return 0, errors.Wrapf(err, "fold %d", k)
		}
		for i, x := range testX {
			if m.Predict(x) == testY[i] {
				correct++
			}
		}
	}
	return float64(correct) / float64(len(inputs)), nil
}
