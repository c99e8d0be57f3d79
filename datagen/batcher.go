package datagen

import (
	"math/rand"

	"github.com/gorgonia/boltzmann/trainer"
)

// batcher materialises batches into flat buffers and augments them.
type batcher struct {
	conf Config
	r    *rand.Rand

	data, label         []float32
	dataRows, labelRows [][]float32
	n                   int // samples in the current batch
}

func newBatcher(conf Config, r *rand.Rand) *batcher {
	return &batcher{conf: conf, r: r}
}

// fill copies the samples into the batch. Without targets the clean samples are the labels.
func (b *batcher) fill(samples, targets [][]float32, train bool) {
	b.n = len(samples)
	if b.n == 0 {
		return
	}
	b.data, b.dataRows = b.ensure(b.data, b.dataRows, len(samples[0]))
	width := len(samples[0])
	if targets != nil {
		width = len(targets[0])
	}
	b.label, b.labelRows = b.ensure(b.label, b.labelRows, width)

	data := b.dataRows[:b.n]
	label := b.labelRows[:b.n]
	for i := range samples {
		copy(data[i], samples[i])
		if targets != nil {
			copy(label[i], targets[i])
		} else {
			copy(label[i], samples[i])
		}
		if !train {
			continue
		}

		if b.conf.Rotate {
			turns := b.r.Intn(4)
			for t := 0; t < turns; t++ {
				rotate(data[i], b.conf.Side)
				if len(label[i]) == len(data[i]) {
					rotate(label[i], b.conf.Side)
				}
			}
		}
		if b.conf.Noise > 0 {
			noise(data[i], b.conf.Noise, b.r)
		}
	}
}

func (b *batcher) ensure(buf []float32, rows [][]float32, width int) ([]float32, [][]float32) {
	size := b.conf.BatchSize
	if len(buf) == size*width {
		return buf, rows
	}
	if rows == nil {
		rows = borrowRows(size)
	}
	buf = make([]float32, size*width)
	return buf, viewRows(rows, buf, width)
}

func (b *batcher) DataBatch() trainer.Batch  { return trainer.Batch(b.dataRows[:b.n]) }
func (b *batcher) LabelBatch() trainer.Batch { return trainer.Batch(b.labelRows[:b.n]) }

func (b *batcher) release() {
	if b.dataRows != nil {
		returnRows(b.dataRows)
	}
	if b.labelRows != nil {
		returnRows(b.labelRows)
	}
	b.data, b.label, b.dataRows, b.labelRows, b.n = nil, nil, nil, nil, 0
}
