package datagen

import (
	"math/rand"

	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
)

// InMemory generates batches from samples held in memory. The samples are never modified:
// every batch is a copy, augmented in train mode.
type InMemory struct {
	Config

	inputs, labels [][]float32
	order          []int
	pos            int
	train          bool
	r              *rand.Rand

	b     *batcher
	dirty bool
	tmpI  [][]float32
	tmpL  [][]float32
}

var _ trainer.Generator = (*InMemory)(nil)

// NewInMemory creates a generator over inputs. labels are the expected samples of a denoising
// run and may be nil, in which case the clean inputs are the labels.
func NewInMemory(inputs, labels [][]float32, conf Config) (*InMemory, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid generator configuration %+v", conf)
	}
	if labels != nil && len(labels) != len(inputs) {
		return nil, errors.Errorf("%d inputs but %d labels", len(inputs), len(labels))
	}
	if conf.Rotate {
		for i, in := range inputs {
			if len(in) != conf.Side*conf.Side {
				return nil, errors.Errorf("sample %d has %d values and cannot be rotated as a %d × %d image", i, len(in), conf.Side, conf.Side)
			}
		}
	}

	g := &InMemory{
		Config: conf,
		inputs: inputs,
		labels: labels,
		order:  make([]int, len(inputs)),
		r:      conf.rand(),
		dirty:  true,
	}
	for i := range g.order {
		g.order[i] = i
	}
	g.b = newBatcher(conf, g.r)
	g.tmpI = make([][]float32, 0, conf.BatchSize)
	if labels != nil {
		g.tmpL = make([][]float32, 0, conf.BatchSize)
	}
	return g, nil
}

func (g *InMemory) Size() int { return len(g.inputs) }

func (g *InMemory) HasNextBatch() bool { return g.pos < len(g.order) }

func (g *InMemory) NextBatch() {
	g.pos += g.BatchSize
	g.dirty = true
}

func (g *InMemory) DataBatch() trainer.Batch {
	g.materialise()
	return g.b.DataBatch()
}

func (g *InMemory) LabelBatch() trainer.Batch {
	g.materialise()
	return g.b.LabelBatch()
}

func (g *InMemory) Reset() {
	g.pos = 0
	g.dirty = true
}

// ResetShuffle resets the generator and shuffles the order of the samples.
func (g *InMemory) ResetShuffle() {
	g.r.Shuffle(len(g.order), func(i, j int) { g.order[i], g.order[j] = g.order[j], g.order[i] })
	g.Reset()
}

// SetTrain turns the augmentation on.
func (g *InMemory) SetTrain() {
	g.train = true
	g.dirty = true
}

// SetTest turns the augmentation off.
func (g *InMemory) SetTest() {
	g.train = false
	g.dirty = true
}

// Close returns the batch buffers to the pool.
func (g *InMemory) Close() error {
	g.b.release()
	return nil
}

func (g *InMemory) materialise() {
	if !g.dirty {
		return
	}
	g.dirty = false
	start, end := g.pos, g.pos+g.BatchSize
	if start > len(g.order) {
		start = len(g.order)
	}
	if end > len(g.order) {
		end = len(g.order)
	}

	g.tmpI = g.tmpI[:0]
	g.tmpL = g.tmpL[:0]
	var labels [][]float32
	for _, idx := range g.order[start:end] {
		g.tmpI = append(g.tmpI, g.inputs[idx])
		if g.labels != nil {
			g.tmpL = append(g.tmpL, g.labels[idx])
		}
	}
	if g.labels != nil {
		labels = g.tmpL
	}
	g.b.fill(g.tmpI, labels, g.train)
}
