package trainer

import "math/rand"

// Batch is a view over a contiguous run of samples. It never owns the samples.
type Batch [][]float32

// Samples returns the number of samples in the batch.
func (b Batch) Samples() int { return len(b) }

// Capabilities declares which optional behaviours a layer supports.
type Capabilities struct {
	Shuffle     bool // shuffle the training samples every epoch
	Momentum    bool // switch from initial to final momentum at the configured epoch
	InitWeights bool // initialise the weights from the training data before the first epoch
	FreeEnergy  bool // track free energy while a watcher is attached
	Verbose     bool // notify the watcher after every batch
}

// Layer is anything the engine can train.
type Layer interface {
	// BatchSize is the number of samples fed to the BatchTrainer per step. It is read once per run.
	BatchSize() int

	// Capabilities is read once per run.
	Capabilities() Capabilities

	// Trainer returns a new BatchTrainer. The engine creates exactly one per run.
	Trainer(r *rand.Rand, denoising bool) BatchTrainer
}

// BatchTrainer performs the numeric update of a layer for one batch. It must set
// BatchError and BatchSparsity on the context.
type BatchTrainer interface {
	TrainBatch(input, expected Batch, ctx *Context)
}

// WeightInitializer is a layer that initialises itself from the training data.
// It is only consulted when the layer declares Capabilities.InitWeights.
type WeightInitializer interface {
	InitWeights(src Source)
}

// FreeEnergizer is a layer that can compute the free energy of a sample.
// It is only consulted when the layer declares Capabilities.FreeEnergy.
type FreeEnergizer interface {
	FreeEnergy(sample []float32) float64
}

// MomentumLayer is a layer with a momentum schedule.
// It is only consulted when the layer declares Capabilities.Momentum.
type MomentumLayer interface {
	SetMomentum(m float64)
	InitialMomentum() float64
	FinalMomentum() float64
	FinalMomentumEpoch() int
}

// TrainerFunc builds the BatchTrainer for a run. It overrides Layer.Trainer when set with WithTrainerFunc.
type TrainerFunc func(l Layer, r *rand.Rand, denoising bool) BatchTrainer

// descriptor is the capability set of a layer resolved once at the start of a run.
// Optional behaviours are nil when the layer does not declare or does not implement them.
type descriptor struct {
	batchSize   int
	shuffle     bool
	verbose     bool
	initWeights func(Source)
	freeEnergy  func([]float32) float64
	momentum    MomentumLayer
}

func describe(l Layer) descriptor {
	caps := l.Capabilities()
	d := descriptor{
		batchSize: l.BatchSize(),
		shuffle:   caps.Shuffle,
		verbose:   caps.Verbose,
	}
	if wi, ok := l.(WeightInitializer); ok && caps.InitWeights {
		d.initWeights = wi.InitWeights
	}
	if fe, ok := l.(FreeEnergizer); ok && caps.FreeEnergy {
		d.freeEnergy = fe.FreeEnergy
	}
	if ml, ok := l.(MomentumLayer); ok && caps.Momentum {
		d.momentum = ml
	}
	return d
}
