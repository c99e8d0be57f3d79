package boltzmann

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
)

// Record is the summary of an epoch of pretraining.
type Record struct {
	Layer, Epoch        int
	ReconstructionError float64
	FreeEnergy          float64
	Sparsity            float64
	Duration            time.Duration
}

// Statistics records every epoch of the pretraining of a DBN. It is a trainer.Watcher.
type Statistics struct {
	Records []Record

	layer int
	start time.Time
}

func makeStatistics() Statistics {
	return Statistics{
		Records: make([]Record, 0, 64),
	}
}

func (s *Statistics) TrainingBegin(l trainer.Layer) { s.start = time.Now() }

func (s *Statistics) BatchEnd(l trainer.Layer, ctx *trainer.Context, batch, totalBatches int) {}

func (s *Statistics) EpochEnd(epoch int, ctx *trainer.Context, l trainer.Layer) {
	now := time.Now()
	s.Records = append(s.Records, Record{
		Layer:               s.layer,
		Epoch:               epoch,
		ReconstructionError: ctx.ReconstructionError,
		FreeEnergy:          ctx.FreeEnergy,
		Sparsity:            ctx.Sparsity,
		Duration:            now.Sub(s.start),
	})
	s.start = now
}

func (s *Statistics) TrainingEnd(l trainer.Layer) {}

// Layer returns the records of the ith layer.
func (s *Statistics) Layer(i int) []Record {
	var retVal []Record
	for _, r := range s.Records {
		if r.Layer == i {
			retVal = append(retVal, r)
		}
	}
	return retVal
}

// Dump writes the records as CSV.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"layer", "epoch", "error", "free_energy", "sparsity", "seconds"}); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(s.Records))
	for _, r := range s.Records {
		records = append(records, []string{
			strconv.Itoa(r.Layer),
			strconv.Itoa(r.Epoch),
			strconv.FormatFloat(r.ReconstructionError, 'f', 5, 64),
			strconv.FormatFloat(r.FreeEnergy, 'f', 3, 64),
			strconv.FormatFloat(r.Sparsity, 'f', 5, 64),
			strconv.FormatFloat(r.Duration.Seconds(), 'f', 3, 64),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	w.Flush()
	return errors.WithStack(w.Error())
}
