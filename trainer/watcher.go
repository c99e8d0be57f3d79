package trainer

import (
	"log"
	"time"
)

// Watcher is notified of the lifecycle of a training run.
type Watcher interface {
	TrainingBegin(l Layer)
	BatchEnd(l Layer, ctx *Context, batch, totalBatches int)
	EpochEnd(epoch int, ctx *Context, l Layer)
	TrainingEnd(l Layer)
}

// Watchers fans every notification out to all of its members, in order.
type Watchers []Watcher

func (ws Watchers) TrainingBegin(l Layer) {
	for _, w := range ws {
		w.TrainingBegin(l)
	}
}

func (ws Watchers) BatchEnd(l Layer, ctx *Context, batch, totalBatches int) {
	for _, w := range ws {
		w.BatchEnd(l, ctx, batch, totalBatches)
	}
}

func (ws Watchers) EpochEnd(epoch int, ctx *Context, l Layer) {
	for _, w := range ws {
		w.EpochEnd(epoch, ctx, l)
	}
}

func (ws Watchers) TrainingEnd(l Layer) {
	for _, w := range ws {
		w.TrainingEnd(l)
	}
}

// LogWatcher logs a line per epoch, and per batch for verbose layers.
type LogWatcher struct {
	Logger *log.Logger
	Name   string

	start time.Time
	epoch time.Time
}

// NewLogWatcher creates a LogWatcher. A nil logger means the standard logger.
func NewLogWatcher(name string, logger *log.Logger) *LogWatcher {
	if logger == nil {
		logger = log.New(log.Writer(), "", log.Flags())
	}
	return &LogWatcher{Logger: logger, Name: name}
}

func (w *LogWatcher) TrainingBegin(l Layer) {
	w.start = time.Now()
	w.epoch = w.start
	w.Logger.Printf("%s: training begins (batch size %d)", w.Name, l.BatchSize())
}

func (w *LogWatcher) BatchEnd(l Layer, ctx *Context, batch, totalBatches int) {
	w.Logger.Printf("%s: batch %d/%d - Reconstruction error: %.5f - Sparsity: %.5f", w.Name, batch, totalBatches, ctx.BatchError, ctx.BatchSparsity)
}

func (w *LogWatcher) EpochEnd(epoch int, ctx *Context, l Layer) {
	now := time.Now()
	w.Logger.Printf("%s: epoch %d - %v - %v", w.Name, epoch, ctx, now.Sub(w.epoch))
	w.epoch = now
}

func (w *LogWatcher) TrainingEnd(l Layer) {
	w.Logger.Printf("%s: training took %v", w.Name, time.Since(w.start))
}
