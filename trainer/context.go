package trainer

import "fmt"

// Context accumulates the statistics of a single epoch.
//
// BatchError and BatchSparsity are written by the BatchTrainer on every call to TrainBatch.
// The engine folds them into ReconstructionError and Sparsity, and turns all three
// accumulators into means when the epoch ends.
type Context struct {
	ReconstructionError float64
	Sparsity            float64
	FreeEnergy          float64

	BatchError    float64
	BatchSparsity float64
}

func (c *Context) accumulate() {
	c.ReconstructionError += c.BatchError
	c.Sparsity += c.BatchSparsity
}

func (c *Context) average(batches, samples int) {
	if batches > 0 {
		c.ReconstructionError /= float64(batches)
		c.Sparsity /= float64(batches)
	}
	if samples > 0 {
		c.FreeEnergy /= float64(samples)
	}
}

func (c *Context) String() string {
	return fmt.Sprintf("Reconstruction error: %.5f - Free energy: %.3f - Sparsity: %.5f", c.ReconstructionError, c.FreeEnergy, c.Sparsity)
}
