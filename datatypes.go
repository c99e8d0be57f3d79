package boltzmann

import (
	"fmt"

	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
)

// Config configures a DBN.
type Config struct {
	Name     string
	Layers   []rbm.Config // bottom up
	Trainer  trainer.Config
	FineTune FineTuneConfig

	Seed int64 // seed of the trainer's random state. 0 uses the clock
}

// MakeConf stacks binary RBMs of the given sizes. sizes[0] is the number of visible units of
// the first layer.
func MakeConf(name string, sizes ...int) Config {
	conf := Config{
		Name:     name,
		FineTune: DefaultFineTuneConf(),
	}
	for i := 0; i+1 < len(sizes); i++ {
		conf.Layers = append(conf.Layers, rbm.DefaultConf(sizes[i], sizes[i+1]))
	}
	return conf
}

// Check returns all the problems of the configuration.
func (conf Config) Check() error {
	var errs manyErr
	if len(conf.Layers) == 0 {
		errs = append(errs, errors.New("a DBN needs at least one layer"))
	}
	for i, l := range conf.Layers {
		if !l.IsValid() {
			errs = append(errs, errors.Errorf("layer %d: invalid configuration %+v", i, l))
		}
		if i > 0 && conf.Layers[i-1].Hidden != l.Visible {
			errs = append(errs, errors.Errorf("layer %d has %d visible units but layer %d has %d hidden units", i, l.Visible, i-1, conf.Layers[i-1].Hidden))
		}
	}
	if !conf.FineTune.IsValid() {
		errs = append(errs, errors.Errorf("invalid fine tuning configuration %+v", conf.FineTune))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (conf Config) IsValid() bool { return conf.Check() == nil }

// Solver is the gradient solver used for fine tuning.
type Solver byte

const (
	Vanilla Solver = iota
	Momentum
	Adam
)

func (s Solver) String() string {
	switch s {
	case Vanilla:
		return "vanilla"
	case Momentum:
		return "momentum"
	case Adam:
		return "adam"
	}
	return fmt.Sprintf("Solver(%d)", byte(s))
}

// FineTuneConfig configures the supervised training of a DBN.
type FineTuneConfig struct {
	Solver    Solver
	LearnRate float64
	Momentum  float64 // only used by the Momentum solver
	L2        float64
	Clip      float64 // gradient clipping. 0 disables it
	BatchSize int
}

func DefaultFineTuneConf() FineTuneConfig {
	return FineTuneConfig{
		Solver:    Momentum,
		LearnRate: 0.1,
		Momentum:  0.9,
		BatchSize: 10,
	}
}

func (conf FineTuneConfig) IsValid() bool {
	return conf.Solver <= Adam &&
		conf.LearnRate > 0 &&
		conf.Momentum >= 0 && conf.Momentum < 1 &&
		conf.L2 >= 0 &&
		conf.Clip >= 0 &&
		conf.BatchSize >= 1
}
