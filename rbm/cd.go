package rbm

import (
	"fmt"
	"math/rand"

	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// cdTrainer trains an RBM with contrastive divergence. All the buffers are reused between batches
// and are only reallocated when the size of the batch changes.
type cdTrainer struct {
	rbm       *RBM
	r         *rand.Rand
	denoising bool

	n          int
	v0, e0     *tensor.Dense // n × Visible
	vk, rec    *tensor.Dense // n × Visible
	pt, vkt    *tensor.Dense // Visible × n
	h0, hk, hs *tensor.Dense // n × Hidden
	chain      *tensor.Dense // persistent negative particles

	wt          *tensor.Dense // Hidden × Visible
	gradW, negW *tensor.Dense // Visible × Hidden

	gradB, gradC     []float32
	velW, velB, velC []float32
}

func newCD(rbm *RBM, r *rand.Rand, denoising bool) *cdTrainer {
	v, h := rbm.Visible, rbm.Hidden
	return &cdTrainer{
		rbm:       rbm,
		r:         r,
		denoising: denoising,

		wt:    dense(h, v),
		gradW: dense(v, h),
		negW:  dense(v, h),

		gradB: make([]float32, h),
		gradC: make([]float32, v),
		velW:  make([]float32, v*h),
		velB:  make([]float32, h),
		velC:  make([]float32, v),
	}
}

func dense(rows, cols int) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, cols), tensor.Of(tensor.Float32))
}

func (t *cdTrainer) ensure(n int) {
	if t.n == n {
		return
	}
	v, h := t.rbm.Visible, t.rbm.Hidden
	t.n = n
	t.v0, t.e0, t.vk, t.rec = dense(n, v), dense(n, v), dense(n, v), dense(n, v)
	t.pt, t.vkt = dense(v, n), dense(v, n)
	t.h0, t.hk, t.hs = dense(n, h), dense(n, h), dense(n, h)
}

// persistentChain sizes the chain to the batch in v0. Rows that survive a change of batch size
// keep their state, new rows start from the samples of the batch.
func (t *cdTrainer) persistentChain() {
	switch {
	case t.chain == nil:
		t.chain = t.v0.Clone().(*tensor.Dense)
	case t.chain.Shape()[0] != t.n:
		chain := dense(t.n, t.rbm.Visible)
		data := f32s(chain)
		kept := copy(data, f32s(t.chain))
		copy(data[kept:], f32s(t.v0)[kept:])
		t.chain = chain
	}
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

func f32s(a *tensor.Dense) []float32 { return a.Data().([]float32) }

// TrainBatch performs one update of the parameters. When denoising, the positive statistics and
// the reconstruction error use the expected (clean) samples.
func (t *cdTrainer) TrainBatch(input, expected trainer.Batch, ctx *trainer.Context) {
	n := len(input)
	if n == 0 {
		return
	}
	if len(expected) != n {
		panic(fmt.Sprintf("%+v", errors.Errorf("batch has %d inputs but %d expected samples", n, len(expected))))
	}
	rbm := t.rbm
	t.ensure(n)

	must(pack(t.v0, input))
	pos := t.v0
	if t.denoising {
		must(pack(t.e0, expected))
		pos = t.e0
	}
	transpose(t.wt, rbm.W)

	// positive phase
	must(rbm.hiddenMeans(t.v0, t.h0))
	must(rbm.visibleMeans(t.h0, t.wt, t.rec))

	// negative phase
	if rbm.Algorithm == PCD {
		t.persistentChain()
		must(rbm.hiddenMeans(t.chain, t.hk))
		sample(rbm.HiddenUnit, f32s(t.hk), f32s(t.hs), t.r)
	} else {
		sample(rbm.HiddenUnit, f32s(t.h0), f32s(t.hs), t.r)
	}
	for k := 0; k < rbm.K; k++ {
		must(rbm.visibleMeans(t.hs, t.wt, t.vk))
		must(rbm.hiddenMeans(t.vk, t.hk))
		if k < rbm.K-1 {
			sample(rbm.HiddenUnit, f32s(t.hk), f32s(t.hs), t.r)
		}
	}
	if t.chain != nil {
		copy(f32s(t.chain), f32s(t.vk))
	}

	// statistics
	transpose(t.pt, pos)
	transpose(t.vkt, t.vk)
	_, err := t.pt.MatMul(t.h0, tensor.WithReuse(t.gradW))
	must(errors.Wrap(err, "positive statistics failed"))
	_, err = t.vkt.MatMul(t.hk, tensor.WithReuse(t.negW))
	must(errors.Wrap(err, "negative statistics failed"))
	vecf32.Sub(f32s(t.gradW), f32s(t.negW))

	t.biasGradients(f32s(pos))
	ctx.BatchError = meanSquaredError(f32s(pos), f32s(t.rec))
	ctx.BatchSparsity = float64(vecf32.Sum(f32s(t.h0))) / float64(n*rbm.Hidden)

	t.update(n)
}

// biasGradients sums the differences between the positive and negative phases over the batch.
func (t *cdTrainer) biasGradients(pos []float32) {
	rbm := t.rbm
	v, h := rbm.Visible, rbm.Hidden
	for i := range t.gradB {
		t.gradB[i] = 0
	}
	for i := range t.gradC {
		t.gradC[i] = 0
	}
	h0, hk, vk := f32s(t.h0), f32s(t.hk), f32s(t.vk)
	for s := 0; s < t.n; s++ {
		vecf32.Add(t.gradB, h0[s*h:(s+1)*h])
		vecf32.Sub(t.gradB, hk[s*h:(s+1)*h])
		vecf32.Add(t.gradC, pos[s*v:(s+1)*v])
		vecf32.Sub(t.gradC, vk[s*v:(s+1)*v])
	}
	if rbm.SparsityTarget <= 0 {
		return
	}

	// the sparsity penalty pulls the mean activation of every hidden unit towards the target
	q := make([]float32, h)
	for s := 0; s < t.n; s++ {
		vecf32.Add(q, h0[s*h:(s+1)*h])
	}
	target := float32(rbm.SparsityTarget)
	cost := float32(rbm.SparsityCost) * float32(t.n)
	for j := range q {
		t.gradB[j] += cost * (target - q[j]/float32(t.n))
	}
}

func (t *cdTrainer) update(n int) {
	rbm := t.rbm
	var m float32
	if rbm.Config.Momentum {
		m = float32(rbm.momentum)
	}
	eps := float32(rbm.LearningRate) / float32(n)
	decay := float32(rbm.WeightDecay) * float32(n)

	w := f32s(rbm.W)
	g := f32s(t.gradW)
	for i := range w {
		t.velW[i] = m*t.velW[i] + eps*(g[i]-decay*w[i])
		w[i] += t.velW[i]
	}

	step(f32s(rbm.B), t.velB, t.gradB, m, eps)
	step(f32s(rbm.C), t.velC, t.gradC, m, eps)
}

// step applies vel = m·vel + eps·grad; param += vel. grad is clobbered.
func step(param, vel, grad []float32, m, eps float32) {
	vecf32.Scale(vel, m)
	vecf32.Scale(grad, eps)
	vecf32.Add(vel, grad)
	vecf32.Add(param, vel)
}

// meanSquaredError is the squared error averaged over every unit of every sample.
func meanSquaredError(a, b []float32) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum / float64(len(a))
}
