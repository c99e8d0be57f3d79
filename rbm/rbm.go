package rbm

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gorgonia/boltzmann/internal/parallel"
	"github.com/gorgonia/boltzmann/trainer"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// RBM is a dense Restricted Boltzmann Machine.
type RBM struct {
	Config

	W *tensor.Dense // Visible × Hidden weights
	B *tensor.Dense // hidden biases
	C *tensor.Dense // visible biases

	momentum float64
}

// New returns a new, uninitialized *RBM.
func New(conf Config) *RBM {
	return &RBM{Config: conf}
}

// Init allocates the parameters. The weights are drawn from N(0, 0.01²) and the biases are zero.
func (r *RBM) Init() error {
	if !r.Config.IsValid() {
		return errors.Errorf("invalid RBM configuration %+v", r.Config)
	}
	seed := r.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := rng.NewGaussianGenerator(seed)
	w := make([]float32, r.Visible*r.Hidden)
	for i := range w {
		w[i] = float32(g.Gaussian(0, 0.01))
	}

	r.W = tensor.New(tensor.WithShape(r.Visible, r.Hidden), tensor.WithBacking(w))
	r.B = tensor.New(tensor.WithShape(r.Hidden), tensor.Of(tensor.Float32))
	r.C = tensor.New(tensor.WithShape(r.Visible), tensor.Of(tensor.Float32))
	r.momentum = r.MomentumInitial
	return nil
}

func (r *RBM) BatchSize() int { return r.Config.BatchSize }

func (r *RBM) Capabilities() trainer.Capabilities { return r.Config.Capabilities }

// Trainer returns a contrastive divergence trainer, persistent or not depending on the Algorithm.
func (r *RBM) Trainer(rnd *rand.Rand, denoising bool) trainer.BatchTrainer {
	return newCD(r, rnd, denoising)
}

func (r *RBM) SetMomentum(m float64)    { r.momentum = m }
func (r *RBM) CurrentMomentum() float64 { return r.momentum }
func (r *RBM) InitialMomentum() float64 { return r.MomentumInitial }
func (r *RBM) FinalMomentum() float64   { return r.MomentumFinal }
func (r *RBM) FinalMomentumEpoch() int  { return r.MomentumEpoch }

// InitWeights sets the visible biases from the statistics of the data: the log odds of the
// mean activation for binary units, the mean for gaussian units.
func (r *RBM) InitWeights(src trainer.Source) {
	sums := make([]float64, r.Visible)
	var n int
	src.Rewind()
	for {
		input, _, ok := src.Next()
		if !ok {
			break
		}
		for _, v := range input {
			for i, x := range v {
				sums[i] += float64(x)
			}
			n++
		}
	}
	if n == 0 {
		return
	}

	c := r.C.Data().([]float32)
	for i := range c {
		p := sums[i] / float64(n)
		if r.VisibleUnit == Gaussian {
			c[i] = float32(p)
			continue
		}
		p = math.Max(0.01, math.Min(0.99, p))
		c[i] = float32(math.Log(p / (1 - p)))
	}
}

// FreeEnergy is the free energy of the visible vector v.
func (r *RBM) FreeEnergy(v []float32) float64 {
	w := r.W.Data().([]float32)
	b := r.B.Data().([]float32)
	c := r.C.Data().([]float32)

	x := make([]float32, r.Hidden)
	copy(x, b)
	for i, vi := range v {
		if vi == 0 {
			continue
		}
		row := w[i*r.Hidden : (i+1)*r.Hidden]
		for j, wij := range row {
			x[j] += vi * wij
		}
	}

	var f float32
	switch r.VisibleUnit {
	case Gaussian:
		for i, vi := range v {
			d := vi - c[i]
			f += d * d / 2
		}
	default:
		for i, vi := range v {
			f -= c[i] * vi
		}
	}
	for _, xj := range x {
		f -= softplus(xj)
	}
	return float64(f)
}

// Activations returns the mean activation of the hidden units for every input. This is the
// input of the next layer of a stack.
func (r *RBM) Activations(inputs [][]float32) ([][]float32, error) {
	return r.mapRows(inputs, r.Visible, r.Hidden, func(v, h *tensor.Dense) error {
		return r.hiddenMeans(v, h)
	})
}

// Reconstruct returns the mean-field reconstruction of every input.
func (r *RBM) Reconstruct(inputs [][]float32) ([][]float32, error) {
	wt := tensor.New(tensor.WithShape(r.Hidden, r.Visible), tensor.Of(tensor.Float32))
	transpose(wt, r.W)
	return r.mapRows(inputs, r.Visible, r.Visible, func(v, out *tensor.Dense) error {
		rows := v.Shape()[0]
		h := tensor.New(tensor.WithShape(rows, r.Hidden), tensor.Of(tensor.Float32))
		if err := r.hiddenMeans(v, h); err != nil {
			return err
		}
		return r.visibleMeans(h, wt, out)
	})
}

// Filters returns the weights of the RBM, stored row major as Visible × Hidden.
func (r *RBM) Filters() (weights []float32, visible, hidden int) {
	return r.W.Data().([]float32), r.Visible, r.Hidden
}

const chunkSize = 128

// mapRows applies fn to the inputs, chunkSize rows at a time, in parallel.
func (r *RBM) mapRows(inputs [][]float32, in, out int, fn func(a, b *tensor.Dense) error) ([][]float32, error) {
	n := len(inputs)
	backing := make([]float32, n*out)
	retVal := make([][]float32, n)
	for i := range retVal {
		retVal[i] = backing[i*out : (i+1)*out : (i+1)*out]
	}

	chunks := (n + chunkSize - 1) / chunkSize
	errs := make([]error, chunks)
	parallel.ForEach(chunks, 0, func(c int) {
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		a := tensor.New(tensor.WithShape(end-start, in), tensor.Of(tensor.Float32))
		if errs[c] = pack(a, inputs[start:end]); errs[c] != nil {
			return
		}
		b := tensor.New(tensor.WithShape(end-start, out), tensor.WithBacking(backing[start*out:end*out]))
		errs[c] = fn(a, b)
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return retVal, nil
}

// hiddenMeans computes the mean activation of the hidden units for every row of v.
func (r *RBM) hiddenMeans(v, h *tensor.Dense) error {
	if _, err := v.MatMul(r.W, tensor.WithReuse(h)); err != nil {
		return errors.Wrapf(err, "hidden activation of %v failed", v.Shape())
	}
	addRows(h, r.B)
	activate(r.HiddenUnit, h.Data().([]float32))
	return nil
}

// visibleMeans computes the mean activation of the visible units for every row of h. wt is the
// transpose of the weights.
func (r *RBM) visibleMeans(h, wt, v *tensor.Dense) error {
	if _, err := h.MatMul(wt, tensor.WithReuse(v)); err != nil {
		return errors.Wrapf(err, "visible activation of %v failed", h.Shape())
	}
	addRows(v, r.C)
	activate(r.VisibleUnit, v.Data().([]float32))
	return nil
}

// Clone returns a deep copy of the RBM.
func (r *RBM) Clone() *RBM {
	retVal := &RBM{
		Config:   r.Config,
		momentum: r.momentum,
	}
	if r.W != nil {
		retVal.W = r.W.Clone().(*tensor.Dense)
		retVal.B = r.B.Clone().(*tensor.Dense)
		retVal.C = r.C.Clone().(*tensor.Dense)
	}
	return retVal
}

func (r *RBM) String() string {
	return fmt.Sprintf("RBM(%d %s -> %d %s)", r.Visible, r.VisibleUnit, r.Hidden, r.HiddenUnit)
}

type snapshot struct {
	Config   Config
	W, B, C  []float32
	Momentum float64
}

func (r *RBM) GobEncode() ([]byte, error) {
	if r.W == nil {
		return nil, errors.New("cannot encode an uninitialized RBM")
	}
	s := snapshot{
		Config:   r.Config,
		W:        r.W.Data().([]float32),
		B:        r.B.Data().([]float32),
		C:        r.C.Data().([]float32),
		Momentum: r.momentum,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func (r *RBM) GobDecode(p []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&s); err != nil {
		return errors.WithStack(err)
	}
	if len(s.W) != s.Config.Visible*s.Config.Hidden || len(s.B) != s.Config.Hidden || len(s.C) != s.Config.Visible {
		return errors.Errorf("corrupted RBM: %d weights, %d hidden and %d visible biases for %d×%d units", len(s.W), len(s.B), len(s.C), s.Config.Visible, s.Config.Hidden)
	}
	r.Config = s.Config
	r.momentum = s.Momentum
	r.W = tensor.New(tensor.WithShape(s.Config.Visible, s.Config.Hidden), tensor.WithBacking(s.W))
	r.B = tensor.New(tensor.WithShape(s.Config.Hidden), tensor.WithBacking(s.B))
	r.C = tensor.New(tensor.WithShape(s.Config.Visible), tensor.WithBacking(s.C))
	return nil
}

// pack copies rows into the rows of a.
func pack(a *tensor.Dense, rows [][]float32) error {
	cols := a.Shape()[1]
	data := a.Data().([]float32)
	for i, row := range rows {
		if len(row) != cols {
			return errors.Errorf("sample %d has %d values, expected %d", i, len(row), cols)
		}
		copy(data[i*cols:(i+1)*cols], row)
	}
	return nil
}

// addRows adds the vector b to every row of a.
func addRows(a, b *tensor.Dense) {
	bias := b.Data().([]float32)
	data := a.Data().([]float32)
	cols := len(bias)
	for i := 0; i+cols <= len(data); i += cols {
		vecf32.Add(data[i:i+cols], bias)
	}
}

// transpose writes the transpose of the matrix src into dst.
func transpose(dst, src *tensor.Dense) {
	rows, cols := src.Shape()[0], src.Shape()[1]
	s := src.Data().([]float32)
	d := dst.Data().([]float32)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d[j*rows+i] = s[i*cols+j]
		}
	}
}
