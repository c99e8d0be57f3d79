package boltzmann

import (
	"fmt"

	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/trainer"
)

// layerGenerator presents the batches of a generator as seen from the top of a stack of layers.
// The activations are only computed when a batch is requested.
type layerGenerator struct {
	trainer.Generator
	layers []*rbm.RBM

	data, label trainer.Batch
}

func newLayerGenerator(g trainer.Generator, layers []*rbm.RBM) *layerGenerator {
	return &layerGenerator{Generator: g, layers: layers}
}

func (g *layerGenerator) forward(b trainer.Batch) trainer.Batch {
	acts := [][]float32(b)
	var err error
	for _, l := range g.layers {
		if acts, err = l.Activations(acts); err != nil {
			panic(fmt.Sprintf("%+v", err))
		}
	}
	return trainer.Batch(acts)
}

func (g *layerGenerator) DataBatch() trainer.Batch {
	if g.data == nil {
		g.data = g.forward(g.Generator.DataBatch())
	}
	return g.data
}

func (g *layerGenerator) LabelBatch() trainer.Batch {
	if g.label == nil {
		g.label = g.forward(g.Generator.LabelBatch())
	}
	return g.label
}

func (g *layerGenerator) invalidate() { g.data, g.label = nil, nil }

func (g *layerGenerator) NextBatch() {
	g.Generator.NextBatch()
	g.invalidate()
}

func (g *layerGenerator) Reset() {
	g.Generator.Reset()
	g.invalidate()
}

func (g *layerGenerator) ResetShuffle() {
	g.Generator.ResetShuffle()
	g.invalidate()
}

func (g *layerGenerator) SetTrain() {
	g.Generator.SetTrain()
	g.invalidate()
}
