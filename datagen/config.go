// Package datagen provides trainer.Generator implementations for data sets that should be
// augmented on the fly or that do not fit in memory.
package datagen

import (
	"math/rand"
	"time"
)

// Config configures a generator.
type Config struct {
	BatchSize int

	// Augmentation, only applied in train mode.
	Noise  float64 // standard deviation of the gaussian noise added to the inputs. 0 disables it
	Rotate bool    // rotate the samples by a random multiple of 90°. Samples must be Side × Side images
	Side   int

	Window int // number of samples a CSV generator holds in memory for shuffling

	Seed int64 // 0 uses the clock
}

func DefaultConfig() Config {
	return Config{
		BatchSize: 25,
		Window:    1000,
	}
}

func (conf Config) IsValid() bool {
	return conf.BatchSize >= 1 &&
		conf.Noise >= 0 &&
		(!conf.Rotate || conf.Side >= 1) &&
		conf.Window >= 0
}

func (conf Config) rand() *rand.Rand {
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
