package trainer

import "math/rand"

type shufflePolicy interface {
	enabled() bool

	// direct shuffles a single sequence.
	direct(rows [][]float32)

	// paired applies the same permutation to both sequences.
	paired(a, b [][]float32)
}

func newShufflePolicy(d descriptor, r *rand.Rand) shufflePolicy {
	if !d.shuffle {
		return noShuffle{}
	}
	return randomShuffle{r}
}

type noShuffle struct{}

func (noShuffle) enabled() bool           { return false }
func (noShuffle) direct([][]float32)      {}
func (noShuffle) paired(_, _ [][]float32) {}

type randomShuffle struct{ r *rand.Rand }

func (randomShuffle) enabled() bool { return true }

func (s randomShuffle) direct(rows [][]float32) {
	for i := range rows {
		j := s.r.Intn(i + 1)
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func (s randomShuffle) paired(a, b [][]float32) { ShufflePairs(s.r, a, b) }

// ShufflePairs shuffles a and b with the same random permutation, so that a[i] and b[i]
// stay together. It panics if the lengths differ.
func ShufflePairs(r *rand.Rand, a, b [][]float32) {
	if len(a) != len(b) {
		panic("trainer: cannot shuffle sequences of different lengths")
	}
	for i := range a {
		j := r.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
		b[i], b[j] = b[j], b[i]
	}
}
