package boltzmann

import (
	"github.com/gorgonia/boltzmann/rbm"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/gorgonia/ops/nn"
	"gorgonia.org/tensor"
)

var Float = G.Float32

type maebe struct {
	err error
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// linear computes input·w + b. b is a row vector, broadcast over the batch with a column of ones.
func (m *maebe) linear(input, w, b *G.Node) *G.Node {
	if m.err != nil {
		return nil
	}
	ones := G.NewConstant(tensor.Ones(Float, input.Shape()[0], 1), G.WithName(b.Name()+"_ones"))
	xw := m.do(func() (*G.Node, error) { return G.Mul(input, w) })
	bias := m.do(func() (*G.Node, error) { return G.Mul(ones, b) })
	return m.do(func() (*G.Node, error) { return G.Add(xw, bias) })
}

// activate applies the activation function of the hidden units of an RBM.
func (m *maebe) activate(input *G.Node, u rbm.UnitType) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	switch u {
	case rbm.ReLU:
		retVal, m.err = nnops.Rectify(input)
	default:
		retVal, m.err = G.Sigmoid(input)
	}
	if m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// xent is the categorical cross entropy of the softmax of the logits, averaged over the batch.
func (m *maebe) xent(logits, target *G.Node) (retVal *G.Node) {
	batch := float32(logits.Shape()[0])
	prob := m.do(func() (*G.Node, error) { return G.SoftMax(logits) })
	logp := m.do(func() (*G.Node, error) { return G.Log(prob) })
	retVal = m.do(func() (*G.Node, error) { return G.HadamardProd(target, logp) })
	retVal = m.do(func() (*G.Node, error) { return G.Sum(retVal) })
	retVal = m.do(func() (*G.Node, error) { return G.Neg(retVal) })
	return m.do(func() (*G.Node, error) { return G.Div(retVal, G.NewConstant(batch)) })
}
