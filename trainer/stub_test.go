package trainer

import (
	"math/rand"
	"strings"
)

type stubLayer struct {
	batchSize int
	caps      Capabilities

	momentum, initial, final float64
	finalEpoch               int

	weights     []float32
	initCalls   int
	initSamples int
	trainers    int
	denoising   bool

	batchError, batchSparsity float64
	energy                    float64
	energyCalls               int

	// filled by the trainer
	calls     int
	inputs    [][]float32
	expected  [][]float32
	momentums []float64
}

func newStub(batchSize int, caps Capabilities) *stubLayer {
	return &stubLayer{
		batchSize:  batchSize,
		caps:       caps,
		initial:    0.5,
		final:      0.9,
		finalEpoch: 2,
		weights:    []float32{1, 2, 3},
		batchError: 1,
	}
}

func (l *stubLayer) BatchSize() int             { return l.batchSize }
func (l *stubLayer) Capabilities() Capabilities { return l.caps }

func (l *stubLayer) Trainer(r *rand.Rand, denoising bool) BatchTrainer {
	l.trainers++
	l.denoising = denoising
	return stubTrainer{l}
}

func (l *stubLayer) InitWeights(src Source) {
	l.initCalls++
	src.Rewind()
	for {
		in, _, ok := src.Next()
		if !ok {
			break
		}
		l.initSamples += len(in)
	}
}

func (l *stubLayer) FreeEnergy(sample []float32) float64 {
	l.energyCalls++
	return l.energy
}

func (l *stubLayer) SetMomentum(m float64)    { l.momentum = m }
func (l *stubLayer) InitialMomentum() float64 { return l.initial }
func (l *stubLayer) FinalMomentum() float64   { return l.final }
func (l *stubLayer) FinalMomentumEpoch() int  { return l.finalEpoch }

// firstValues returns the first value of every sample seen by the trainer in [start, end).
func (l *stubLayer) firstValues(start, end int) []float32 {
	retVal := make([]float32, 0, end-start)
	for _, in := range l.inputs[start:end] {
		retVal = append(retVal, in[0])
	}
	return retVal
}

type stubTrainer struct{ l *stubLayer }

func (t stubTrainer) TrainBatch(input, expected Batch, ctx *Context) {
	t.l.calls++
	// the rows are copied: the engine may reuse its buffers between epochs
	t.l.inputs = append(t.l.inputs, cloneRows(input)...)
	t.l.expected = append(t.l.expected, cloneRows(expected)...)
	t.l.momentums = append(t.l.momentums, t.l.momentum)
	for i := range t.l.weights {
		t.l.weights[i] += 0.1
	}
	ctx.BatchError = t.l.batchError
	ctx.BatchSparsity = t.l.batchSparsity
}

type event struct {
	kind         string
	epoch        int
	batch, total int
	ctx          Context
}

type recordingWatcher struct {
	events []event
}

func (w *recordingWatcher) TrainingBegin(l Layer) {
	w.events = append(w.events, event{kind: "begin"})
}

func (w *recordingWatcher) BatchEnd(l Layer, ctx *Context, batch, totalBatches int) {
	w.events = append(w.events, event{kind: "batch", batch: batch, total: totalBatches})
}

func (w *recordingWatcher) EpochEnd(epoch int, ctx *Context, l Layer) {
	w.events = append(w.events, event{kind: "epoch", epoch: epoch, ctx: *ctx})
}

func (w *recordingWatcher) TrainingEnd(l Layer) {
	w.events = append(w.events, event{kind: "end"})
}

func (w *recordingWatcher) count(kind string) (n int) {
	for _, e := range w.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (w *recordingWatcher) epochs() (retVal []event) {
	for _, e := range w.events {
		if e.kind == "epoch" {
			retVal = append(retVal, e)
		}
	}
	return retVal
}

// sequence returns n one dimensional samples holding offset, offset+1, ...
func sequence(n int, offset float32) [][]float32 {
	retVal := make([][]float32, n)
	for i := range retVal {
		retVal[i] = []float32{offset + float32(i)}
	}
	return retVal
}

func countLines(s, substr string) (n int) {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
