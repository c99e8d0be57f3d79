package boltzmann

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// network is the feed forward view of a DBN, with a softmax output layer.
type network struct {
	g    *G.ExprGraph
	x, y *G.Node

	learnables G.Nodes // weights and biases of every layer, the output layer last
	cost       G.Value
}

func (d *DBN) network(batchSize, classes int, outW, outB *tensor.Dense, r *rand.Rand) (*network, error) {
	n := &network{g: G.NewGraph()}
	visible := d.Layers[0].Visible
	n.x = G.NewMatrix(n.g, Float, G.WithShape(batchSize, visible), G.WithName("x"))
	n.y = G.NewMatrix(n.g, Float, G.WithShape(batchSize, classes), G.WithName("y"))

	var m maebe
	h := n.x
	for i, l := range d.Layers {
		w := G.NewMatrix(n.g, Float, G.WithShape(l.Visible, l.Hidden), G.WithName(fmt.Sprintf("w%d", i)), G.WithValue(l.W.Clone()))
		b := G.NewMatrix(n.g, Float, G.WithShape(1, l.Hidden), G.WithName(fmt.Sprintf("b%d", i)), G.WithValue(rowVector(l.B)))
		h = m.activate(m.linear(h, w, b), l.HiddenUnit)
		n.learnables = append(n.learnables, w, b)
	}

	top := d.Layers[len(d.Layers)-1].Hidden
	if outW == nil {
		outW = glorotN(r, top, classes)
		outB = tensor.New(tensor.WithShape(classes), tensor.Of(tensor.Float32))
	}
	w := G.NewMatrix(n.g, Float, G.WithShape(top, classes), G.WithName("out_w"), G.WithValue(outW.Clone()))
	b := G.NewMatrix(n.g, Float, G.WithShape(1, classes), G.WithName("out_b"), G.WithValue(rowVector(outB)))
	n.learnables = append(n.learnables, w, b)

	logits := m.linear(h, w, b)
	cost := m.xent(logits, n.y)
	if m.err != nil {
		return nil, m.err
	}
	G.Read(cost, &n.cost)

	if _, err := G.Grad(cost, n.learnables...); err != nil {
		return nil, errors.WithStack(err)
	}
	return n, nil
}

// glorotN draws a fanIn × fanOut matrix from N(0, 2/(fanIn+fanOut)).
func glorotN(r *rand.Rand, fanIn, fanOut int) *tensor.Dense {
	std := math.Sqrt(2 / float64(fanIn+fanOut))
	backing := make([]float32, fanIn*fanOut)
	for i := range backing {
		backing[i] = float32(r.NormFloat64() * std)
	}
	return tensor.New(tensor.WithShape(fanIn, fanOut), tensor.WithBacking(backing))
}

func rowVector(v *tensor.Dense) *tensor.Dense {
	data := v.Data().([]float32)
	backing := make([]float32, len(data))
	copy(backing, data)
	return tensor.New(tensor.WithShape(1, len(data)), tensor.WithBacking(backing))
}

func (d *DBN) solver() G.Solver {
	conf := d.Config.FineTune
	opts := []G.SolverOpt{G.WithLearnRate(conf.LearnRate)}
	if conf.L2 > 0 {
		opts = append(opts, G.WithL2Reg(conf.L2))
	}
	switch conf.Solver {
	case Momentum:
		return G.NewMomentum(append(opts, G.WithMomentum(conf.Momentum))...)
	case Adam:
		return G.NewAdamSolver(opts...)
	}
	return G.NewVanillaSolver(opts...)
}

// FineTune adds a softmax output layer of classes units on top of the stack, and trains the
// whole network with backpropagation. An existing output layer of the same size is trained
// further. The samples that do not fill a whole batch are ignored.
//
// It returns the mean cost of the last epoch.
func (d *DBN) FineTune(inputs [][]float32, labels []int, classes, epochs int) (float32, error) {
	bs := d.Config.FineTune.BatchSize
	batches := len(inputs) / bs
	switch {
	case len(inputs) != len(labels):
		return 0, errors.Errorf("%d samples but %d labels", len(inputs), len(labels))
	case batches == 0:
		return 0, errors.Errorf("%d samples do not fill a batch of %d", len(inputs), bs)
	case classes < 2:
		return 0, errors.Errorf("at least two classes are required, got %d", classes)
	}
	visible := d.Layers[0].Visible
	total := batches * bs
	ys := make([]float32, total*classes)
	for i, l := range labels[:total] {
		if l < 0 || l >= classes {
			return 0, errors.Errorf("label %d of sample %d is not one of the %d classes", l, i, classes)
		}
		if len(inputs[i]) != visible {
			return 0, errors.Errorf("sample %d has %d values, expected %d", i, len(inputs[i]), visible)
		}
		ys[i*classes+l] = 1
	}
	Xs := tensor.New(tensor.WithShape(total, visible), tensor.WithBacking(flatten(inputs[:total])))
	Ys := tensor.New(tensor.WithShape(total, classes), tensor.WithBacking(ys))

	var outW, outB *tensor.Dense
	if d.OutW != nil && d.Classes == classes {
		outW, outB = d.OutW, d.OutB
	}
	seed := d.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	n, err := d.network(bs, classes, outW, outB, r)
	if err != nil {
		return 0, errors.Wrap(err, "Unable to build the network")
	}

	m := G.NewTapeMachine(n.g, G.BindDualValues(n.learnables...))
	defer m.Close()
	model := G.NodesToValueGrads(n.learnables)
	solver := d.solver()

	var s slicer
	var cost float32
	for i := 0; i < epochs; i++ {
		cost = 0
		for bat := 0; bat < batches; bat++ {
			batchStart := bat * bs
			batchEnd := batchStart + bs

			x := s.Slice(Xs, sli(batchStart, batchEnd))
			y := s.Slice(Ys, sli(batchStart, batchEnd))
			if s.err != nil {
				return 0, s.err
			}

			G.Let(n.x, x)
			G.Let(n.y, y)
			if err = m.RunAll(); err != nil {
				return 0, errors.WithStack(err)
			}
			if err = clipGradients(model, d.Config.FineTune.Clip); err != nil {
				return 0, err
			}
			if err = solver.Step(model); err != nil {
				return 0, errors.WithStack(err)
			}
			cost += n.cost.Data().(float32)
			m.Reset()
		}
		cost /= float32(batches)
		if !d.Trainer.Silent && !trainer.Silent {
			d.Logger.Printf("%s: fine tuning epoch %d - cost %.5f", d.Name, i, cost)
		}
		if err = shuffleBatch(r, Xs, Ys); err != nil {
			return 0, err
		}
	}

	// copy the learnt parameters back into the layers
	for i, l := range d.Layers {
		copy(l.W.Data().([]float32), n.learnables[2*i].Value().Data().([]float32))
		copy(l.B.Data().([]float32), n.learnables[2*i+1].Value().Data().([]float32))
	}
	out := n.learnables[len(n.learnables)-2:]
	top := d.Layers[len(d.Layers)-1].Hidden
	wData := make([]float32, top*classes)
	bData := make([]float32, classes)
	copy(wData, out[0].Value().Data().([]float32))
	copy(bData, out[1].Value().Data().([]float32))
	d.OutW = tensor.New(tensor.WithShape(top, classes), tensor.WithBacking(wData))
	d.OutB = tensor.New(tensor.WithShape(classes), tensor.WithBacking(bData))
	d.Classes = classes
	return cost, nil
}

// clipGradients clamps every gradient to [-clip, clip]. A clip of 0 leaves them untouched.
func clipGradients(model []G.ValueGrad, clip float64) error {
	if clip <= 0 {
		return nil
	}
	c := float32(clip)
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return errors.WithStack(err)
		}
		g, ok := grad.Data().([]float32)
		if !ok {
			return errors.Errorf("cannot clip a gradient of %T", grad.Data())
		}
		for i, x := range g {
			switch {
			case x > c:
				g[i] = c
			case x < -c:
				g[i] = -c
			}
		}
	}
	return nil
}

// shuffleBatch shuffles the samples and their labels together.
func shuffleBatch(r *rand.Rand, Xs, Ys *tensor.Dense) (err error) {
	var matXs, matYs [][]float32
	if matXs, err = native.MatrixF32(Xs); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - matX")
	}
	if matYs, err = native.MatrixF32(Ys); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - matY")
	}

	tmpX := make([]float32, Xs.Shape()[1])
	tmpY := make([]float32, Ys.Shape()[1])
	for i := range matXs {
		j := r.Intn(i + 1)

		rowI := matXs[i]
		rowJ := matXs[j]
		copy(tmpX, rowI)
		copy(rowI, rowJ)
		copy(rowJ, tmpX)

		yI := matYs[i]
		yJ := matYs[j]
		copy(tmpY, yI)
		copy(yI, yJ)
		copy(yJ, tmpY)
	}
	return nil
}
