package trainer

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

// Silent suppresses the batch size divisibility warning of every engine.
var Silent bool

// Config configures an Engine.
type Config struct {
	// Denoising makes the engine train on distinct (input, expected) pairs. Without it the
	// expected samples are the inputs themselves.
	Denoising bool

	// Silent suppresses the batch size divisibility warning of this engine.
	Silent bool
}

// Engine trains a single layer for a number of epochs.
//
// An Engine is not safe for concurrent use, and a layer must not be trained by two engines at once.
type Engine struct {
	Config

	watcher     Watcher
	r           *rand.Rand
	logger      *log.Logger
	trainerFunc TrainerFunc

	// state of the current run
	desc         descriptor
	totalBatches int
	batches      int
	samples      int
	lastError    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWatcher attaches a watcher. Without a watcher free energy is not computed.
func WithWatcher(w Watcher) Option { return func(e *Engine) { e.watcher = w } }

// WithRand sets the random source used for shuffling and corruption.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.r = r } }

// WithSeed seeds a new random source used for shuffling and corruption.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.r = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger diagnostics are written to. The default writes to stdout.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithTrainerFunc overrides the layer's own BatchTrainer.
func WithTrainerFunc(f TrainerFunc) Option { return func(e *Engine) { e.trainerFunc = f } }

// New creates an engine.
func New(conf Config, opts ...Option) *Engine {
	e := &Engine{
		Config: conf,
		logger: log.New(os.Stdout, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.r == nil {
		e.r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Rand returns the random source of the engine.
func (e *Engine) Rand() *rand.Rand { return e.r }

// Train trains l on src for the given number of epochs and returns the mean reconstruction
// error of the last epoch. Zero epochs return 0 without touching the layer's weights.
func (e *Engine) Train(l Layer, src Source, epochs int) float64 {
	e.initTraining(l, src.Size())

	run := src.prepare(e.desc.batchSize, e.Denoising, e.desc.shuffle)

	// the layer may look at the data to initialise itself, once, before any epoch
	if e.desc.initWeights != nil && epochs > 0 {
		e.desc.initWeights(run)
	}

	bt := e.newTrainer(l, e.Denoising)
	policy := newShufflePolicy(e.desc, e.r)
	for epoch := 0; epoch < epochs; epoch++ {
		run.startEpoch(policy)

		ctx := new(Context)
		e.trainEpoch(l, run, bt, ctx)
		e.finalizeEpoch(epoch, ctx, l)
	}
	return e.finalizeTraining(l)
}

// TrainDenoisingAuto trains l to reconstruct the inputs from a corrupted copy of them. Every
// epoch each value of the copy is zeroed with probability noise, using fresh draws.
//
// It panics if the engine is in Denoising mode.
func (e *Engine) TrainDenoisingAuto(l Layer, inputs [][]float32, epochs int, noise float64) float64 {
	if e.Denoising {
		panic("trainer: TrainDenoisingAuto corrupts its own inputs and cannot be used in Denoising mode")
	}

	clean := cloneRows(inputs)
	corrupted := cloneRows(inputs)

	e.initTraining(l, len(clean))
	if e.desc.initWeights != nil && epochs > 0 {
		e.desc.initWeights(FromSlices(clean).prepare(e.desc.batchSize, false, false))
	}

	run := &sliceSource{inputs: corrupted, expected: clean, batchSize: e.desc.batchSize}
	bt := e.newTrainer(l, true)
	policy := newShufflePolicy(e.desc, e.r)
	for epoch := 0; epoch < epochs; epoch++ {
		policy.direct(clean)
		for i := range clean {
			copy(corrupted[i], clean[i])
			corrupt(corrupted[i], noise, e.r)
		}
		run.Rewind()

		ctx := new(Context)
		e.trainEpoch(l, run, bt, ctx)
		e.finalizeEpoch(epoch, ctx, l)
	}
	return e.finalizeTraining(l)
}

func (e *Engine) initTraining(l Layer, size int) {
	e.desc = describe(l)
	if e.desc.batchSize <= 0 {
		panic(fmt.Sprintf("trainer: invalid batch size %d", e.desc.batchSize))
	}

	if e.desc.momentum != nil {
		e.desc.momentum.SetMomentum(e.desc.momentum.InitialMomentum())
	}

	if e.watcher != nil {
		e.watcher.TrainingBegin(l)
	}

	if size%e.desc.batchSize != 0 && !e.Silent && !Silent {
		e.logger.Printf("WARNING: The number of samples should be divisible by the batch size")
		e.logger.Printf("         This may cause discrepancies in the results.")
	}

	e.totalBatches = size / e.desc.batchSize
	e.lastError = 0
}

func (e *Engine) newTrainer(l Layer, denoising bool) BatchTrainer {
	if e.trainerFunc != nil {
		return e.trainerFunc(l, e.r, denoising)
	}
	return l.Trainer(e.r, denoising)
}

func (e *Engine) trainEpoch(l Layer, src Source, bt BatchTrainer, ctx *Context) {
	e.batches = 0
	e.samples = 0
	for {
		input, expected, ok := src.Next()
		if !ok {
			return
		}
		e.trainBatch(l, input, expected, bt, ctx)
	}
}

func (e *Engine) trainBatch(l Layer, input, expected Batch, bt BatchTrainer, ctx *Context) {
	e.batches++
	e.samples += len(input)

	bt.TrainBatch(input, expected, ctx)
	ctx.accumulate()

	if e.watcher == nil {
		return
	}
	if e.desc.freeEnergy != nil {
		for _, v := range input {
			ctx.FreeEnergy += e.desc.freeEnergy(v)
		}
	}
	if e.desc.verbose {
		e.watcher.BatchEnd(l, ctx, e.batches, e.totalBatches)
	}
}

func (e *Engine) finalizeEpoch(epoch int, ctx *Context, l Layer) {
	ctx.average(e.batches, e.samples)

	if e.desc.momentum != nil && epoch == e.desc.momentum.FinalMomentumEpoch() {
		e.desc.momentum.SetMomentum(e.desc.momentum.FinalMomentum())
	}

	if e.watcher != nil {
		e.watcher.EpochEnd(epoch, ctx, l)
	}

	e.lastError = ctx.ReconstructionError
}

func (e *Engine) finalizeTraining(l Layer) float64 {
	if e.watcher != nil {
		e.watcher.TrainingEnd(l)
	}
	return e.lastError
}

func corrupt(v []float32, noise float64, r *rand.Rand) {
	for i := range v {
		if r.Float64() < noise {
			v[i] = 0
		}
	}
}

func cloneRows(rows [][]float32) [][]float32 {
	retVal := make([][]float32, len(rows))
	for i, row := range rows {
		retVal[i] = append([]float32(nil), row...)
	}
	return retVal
}
