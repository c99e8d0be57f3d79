package rbm

import "github.com/gorgonia/boltzmann/trainer"

// UnitType is the type of the units of a layer of an RBM.
type UnitType byte

const (
	Binary UnitType = iota
	Gaussian
	ReLU
)

func (u UnitType) String() string {
	switch u {
	case Binary:
		return "binary"
	case Gaussian:
		return "gaussian"
	case ReLU:
		return "relu"
	}
	return "unknown"
}

// Algorithm is the learning algorithm used to train an RBM.
type Algorithm byte

const (
	CD  Algorithm = iota // contrastive divergence
	PCD                  // persistent contrastive divergence
)

func (a Algorithm) String() string {
	switch a {
	case CD:
		return "CD"
	case PCD:
		return "PCD"
	}
	return "unknown"
}

// Config configures an RBM.
type Config struct {
	Visible, Hidden int      // number of units
	VisibleUnit     UnitType // Binary or Gaussian
	HiddenUnit      UnitType // Binary or ReLU

	BatchSize int
	Algorithm Algorithm
	K         int // Gibbs steps per update

	LearningRate   float64
	WeightDecay    float64 // L2 penalty on the weights
	SparsityTarget float64 // target mean activation of the hidden units. 0 disables the penalty
	SparsityCost   float64

	MomentumInitial float64
	MomentumFinal   float64
	MomentumEpoch   int // epoch at the end of which the final momentum is used

	Seed int64 // seed of the weight initialisation. 0 uses the clock

	trainer.Capabilities
}

// DefaultConf returns a Config for a visible × hidden RBM with binary units.
func DefaultConf(visible, hidden int) Config {
	return Config{
		Visible:     visible,
		Hidden:      hidden,
		VisibleUnit: Binary,
		HiddenUnit:  Binary,

		BatchSize: 25,
		Algorithm: CD,
		K:         1,

		LearningRate:   0.1,
		WeightDecay:    0.0002,
		SparsityTarget: 0,
		SparsityCost:   1.0,

		MomentumInitial: 0.5,
		MomentumFinal:   0.9,
		MomentumEpoch:   6,

		Capabilities: trainer.Capabilities{
			Shuffle:     true,
			Momentum:    true,
			InitWeights: true,
			FreeEnergy:  true,
		},
	}
}

func (conf Config) IsValid() bool {
	return conf.Visible >= 1 &&
		conf.Hidden >= 1 &&
		(conf.VisibleUnit == Binary || conf.VisibleUnit == Gaussian) &&
		(conf.HiddenUnit == Binary || conf.HiddenUnit == ReLU) &&
		conf.BatchSize >= 1 &&
		conf.K >= 1 &&
		(conf.Algorithm == CD || conf.Algorithm == PCD) &&
		conf.LearningRate > 0 &&
		conf.WeightDecay >= 0 &&
		conf.SparsityTarget >= 0 && conf.SparsityTarget < 1 &&
		conf.MomentumInitial >= 0 && conf.MomentumInitial < 1 &&
		conf.MomentumFinal >= 0 && conf.MomentumFinal < 1 &&
		conf.MomentumEpoch >= 0
}
