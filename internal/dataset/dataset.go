// Package dataset reads and prepares the data sets used to pretrain networks.
package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Set is a data set. Labels is nil when the data is not labelled.
type Set struct {
	Inputs [][]float32
	Labels []int
}

func (s *Set) Len() int { return len(s.Inputs) }

// Features is the width of the samples.
func (s *Set) Features() int {
	if len(s.Inputs) == 0 {
		return 0
	}
	return len(s.Inputs[0])
}

// Classes is the number of distinct classes, assuming labels are 0-indexed.
func (s *Set) Classes() int {
	var max int
	for _, l := range s.Labels {
		if l+1 > max {
			max = l + 1
		}
	}
	return max
}

// IsNormal checks that every sample has the same width and that there is a label for every sample.
func (s *Set) IsNormal() error {
	if s.Labels != nil && len(s.Labels) != len(s.Inputs) {
		return errors.Errorf("%d samples but %d labels", len(s.Inputs), len(s.Labels))
	}
	width := s.Features()
	for i, in := range s.Inputs {
		if len(in) != width {
			return errors.Errorf("sample %d has %d features, expected %d", i, len(in), width)
		}
	}
	return nil
}

// Shuffle shuffles the samples and their labels together.
func (s *Set) Shuffle(r *rand.Rand) {
	for i := len(s.Inputs) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s.Inputs[i], s.Inputs[j] = s.Inputs[j], s.Inputs[i]
		if s.Labels != nil {
			s.Labels[i], s.Labels[j] = s.Labels[j], s.Labels[i]
		}
	}
}

// Split splits the set in two. The first set holds ratio of the samples. The samples are shared.
func (s *Set) Split(ratio float64) (a, b *Set) {
	n := int(float64(len(s.Inputs)) * ratio)
	a = &Set{Inputs: s.Inputs[:n:n]}
	b = &Set{Inputs: s.Inputs[n:]}
	if s.Labels != nil {
		a.Labels = s.Labels[:n:n]
		b.Labels = s.Labels[n:]
	}
	return a, b
}

// Repeat returns a set holding the samples of s n times over.
func (s *Set) Repeat(n int) *Set {
	retVal := new(Set)
	for i := 0; i < n; i++ {
		retVal.Inputs = append(retVal.Inputs, s.Inputs...)
		if s.Labels != nil {
			retVal.Labels = append(retVal.Labels, s.Labels...)
		}
	}
	return retVal
}
