package dataset

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Binarize sets every value above the threshold to 1 and every other value to 0, in place.
func Binarize(inputs [][]float32, threshold float32) {
	for _, in := range inputs {
		for i, x := range in {
			if x > threshold {
				in[i] = 1
			} else {
				in[i] = 0
			}
		}
	}
}

// Scale divides every value by the largest absolute value of the set, in place.
func Scale(inputs [][]float32) {
	var max float32
	for _, in := range inputs {
		for _, x := range in {
			max = math32.Max(max, math32.Abs(x))
		}
	}
	if max == 0 {
		return
	}
	for _, in := range inputs {
		for i := range in {
			in[i] /= max
		}
	}
}

// Normalize gives every feature a zero mean and a unit variance, in place. Constant features are
// only centered.
func Normalize(inputs [][]float32) {
	if len(inputs) == 0 {
		return
	}
	col := make([]float64, len(inputs))
	for j := range inputs[0] {
		for i, in := range inputs {
			col[i] = float64(in[j])
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || len(col) < 2 {
			std = 1
		}
		floats.AddConst(-mean, col)
		floats.Scale(1/std, col)
		for i, in := range inputs {
			in[j] = float32(col[i])
		}
	}
}
