package boltzmann

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

type slicer struct {
	v   tensor.View
	err error
}

func (s *slicer) Slice(a *tensor.Dense, slices ...tensor.Slice) *tensor.Dense {
	if s.err != nil {
		return nil
	}
	if s.v, s.err = a.Slice(slices...); s.err != nil {
		s.err = errors.Wrapf(s.err, "Slicer failed") // get a stack trace
		return nil
	}
	return s.v.(*tensor.Dense)
}

type rs struct {
	start, end, step int
}

func (s rs) Start() int { return s.start }
func (s rs) End() int   { return s.end }
func (s rs) Step() int  { return s.step }

// sli creates a ranged slice. It takes an optional step param.
func sli(start, end int, opts ...int) rs {
	step := 1
	if len(opts) > 0 {
		step = opts[0]
	}
	return rs{
		start: start,
		end:   end,
		step:  step,
	}
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}

// flatten copies the rows into a single backing slice.
func flatten(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return nil
	}
	retVal := make([]float32, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		retVal = append(retVal, row...)
	}
	return retVal
}

// rows views a flat slice as rows of n values.
func rows(data []float32, n int) [][]float32 {
	retVal := make([][]float32, len(data)/n)
	for i := range retVal {
		retVal[i] = data[i*n : (i+1)*n : (i+1)*n]
	}
	return retVal
}

func argmax(a []float32) int {
	var max int
	for i := range a {
		if a[i] > a[max] {
			max = i
		}
	}
	return max
}
