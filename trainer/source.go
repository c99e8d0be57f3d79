package trainer

import "fmt"

// Source produces the successive (input, expected) batches of an epoch.
//
// Sources are created with FromSlices, FromPairs or FromGenerator. The engine prepares a
// run-local copy of the source, so the caller's ordering is never disturbed by shuffling.
type Source interface {
	// Size is the total number of samples.
	Size() int

	// Next returns the next batch pair. ok is false once the epoch is exhausted.
	Next() (input, expected Batch, ok bool)

	// Rewind moves back to the first batch without shuffling.
	Rewind()

	prepare(batchSize int, denoising, shuffle bool) Source
	startEpoch(p shufflePolicy)
}

// Generator is a pull-based batch producer for datasets that do not fit in memory.
//
// The batches returned by DataBatch and LabelBatch are only valid until NextBatch is called.
type Generator interface {
	HasNextBatch() bool
	DataBatch() Batch
	LabelBatch() Batch
	NextBatch()

	Reset()
	ResetShuffle()
	SetTrain()

	Size() int
}

// sliceSource is the random access form. Trailing samples that do not fill a whole batch are dropped.
type sliceSource struct {
	inputs, expected [][]float32
	aliased          bool // expected is inputs

	batchSize int
	pos       int
}

// FromSlices creates a source whose expected samples are the inputs themselves.
func FromSlices(inputs [][]float32) Source {
	return &sliceSource{inputs: inputs, expected: inputs, aliased: true}
}

// FromPairs creates a source of aligned (input, expected) samples. It panics if the lengths differ.
func FromPairs(inputs, expected [][]float32) Source {
	if len(inputs) != len(expected) {
		panic(fmt.Sprintf("trainer: %d inputs but %d expected samples", len(inputs), len(expected)))
	}
	return &sliceSource{inputs: inputs, expected: expected}
}

func (s *sliceSource) Size() int { return len(s.inputs) }

func (s *sliceSource) Rewind() { s.pos = 0 }

// Next returns the next full batch. A source that was not prepared by an Engine has no batch
// size and returns all of its samples as a single batch.
func (s *sliceSource) Next() (input, expected Batch, ok bool) {
	size := s.batchSize
	if size <= 0 {
		size = len(s.inputs)
	}
	if size == 0 || s.pos+size > len(s.inputs) {
		return nil, nil, false
	}
	start, end := s.pos, s.pos+size
	s.pos = end
	return Batch(s.inputs[start:end:end]), Batch(s.expected[start:end:end]), true
}

func (s *sliceSource) prepare(batchSize int, denoising, shuffle bool) Source {
	retVal := &sliceSource{
		inputs:    s.inputs,
		expected:  s.expected,
		aliased:   s.aliased,
		batchSize: batchSize,
	}
	if !denoising {
		retVal.expected = retVal.inputs
		retVal.aliased = true
	}
	if shuffle {
		// only the row headers are copied; the samples are shared with the caller
		retVal.inputs = append([][]float32(nil), retVal.inputs...)
		if retVal.aliased {
			retVal.expected = retVal.inputs
		} else {
			retVal.expected = append([][]float32(nil), retVal.expected...)
		}
	}
	return retVal
}

func (s *sliceSource) startEpoch(p shufflePolicy) {
	s.pos = 0
	if s.aliased {
		p.direct(s.inputs)
		return
	}
	p.paired(s.inputs, s.expected)
}

// generatorSource is the pull form. The generator decides where batches end, so the final
// batch may be short.
type generatorSource struct {
	g         Generator
	denoising bool
	pending   bool // the current batch has been handed out and NextBatch is owed
}

// FromGenerator creates a source backed by a Generator.
func FromGenerator(g Generator) Source { return &generatorSource{g: g} }

func (s *generatorSource) Size() int { return s.g.Size() }

func (s *generatorSource) Rewind() {
	s.g.Reset()
	s.pending = false
}

func (s *generatorSource) Next() (input, expected Batch, ok bool) {
	if s.pending {
		s.g.NextBatch()
		s.pending = false
	}
	if !s.g.HasNextBatch() {
		return nil, nil, false
	}
	s.pending = true
	input = s.g.DataBatch()
	if !s.denoising {
		return input, input, true
	}
	return input, s.g.LabelBatch(), true
}

func (s *generatorSource) prepare(batchSize int, denoising, shuffle bool) Source {
	return &generatorSource{g: s.g, denoising: denoising}
}

func (s *generatorSource) startEpoch(p shufflePolicy) {
	if p.enabled() {
		s.g.ResetShuffle()
	} else {
		s.g.Reset()
	}
	s.g.SetTrain()
	s.pending = false
}
