package datagen

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Rotate rotates a square image a quarter turn counter clockwise.
func Rotate(img []float32, side int) ([]float32, error) {
	if side*side != len(img) {
		return nil, errors.Errorf("Cannot rotate %d values as a %d × %d image", len(img), side, side)
	}
	copied := make([]float32, len(img))
	copy(copied, img)
	rotate(copied, side)
	return copied, nil
}

// rotate rotates the square image in place.
func rotate(img []float32, m int) {
	it := viewRows(borrowRows(m)[:m], img, m)
	for i := 0; i < m/2; i++ {
		mi1 := m - i - 1
		for j := i; j < mi1; j++ {
			mj1 := m - j - 1
			tmp := it[i][j]
			// right to top
			it[i][j] = it[j][mi1]

			// bottom to right
			it[j][mi1] = it[mi1][mj1]

			// left to bottom
			it[mi1][mj1] = it[mj1][i]

			// tmp is left
			it[mj1][i] = tmp
		}
	}
	returnRows(it)
}

// noise adds N(0, std²) to every value.
func noise(v []float32, std float64, r *rand.Rand) {
	for i := range v {
		v[i] += float32(r.NormFloat64() * std)
	}
}
