package boltzmann

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"os"

	"github.com/chewxy/math32"
	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// DBN is a Deep Belief Network: a stack of RBMs pretrained one layer at a time, bottom up,
// each layer learning from the activations of the layer below. An optional softmax output
// layer is added by FineTune.
type DBN struct {
	Config
	Statistics

	Layers []*rbm.RBM

	// output layer
	Classes    int
	OutW, OutB *tensor.Dense

	Watcher trainer.Watcher // notified in addition to the Statistics
	Logger  *log.Logger
}

// New creates a DBN and initializes its layers. It panics if the configuration is invalid.
func New(conf Config) *DBN {
	if err := conf.Check(); err != nil {
		panic(fmt.Sprintf("Config is not valid. Unable to proceed:\n%v", err))
	}

	retVal := &DBN{
		Config:     conf,
		Statistics: makeStatistics(),
		Logger:     log.New(os.Stdout, "", 0),
	}
	for _, lc := range conf.Layers {
		l := rbm.New(lc)
		if err := l.Init(); err != nil {
			panic(fmt.Sprintf("%+v", err))
		}
		retVal.Layers = append(retVal.Layers, l)
	}
	return retVal
}

func (d *DBN) engine(denoising bool) *trainer.Engine {
	ws := trainer.Watchers{&d.Statistics}
	if d.Watcher != nil {
		ws = append(ws, d.Watcher)
	}
	conf := d.Trainer
	conf.Denoising = denoising
	opts := []trainer.Option{trainer.WithWatcher(ws), trainer.WithLogger(d.Logger)}
	if d.Seed != 0 {
		opts = append(opts, trainer.WithSeed(d.Seed))
	}
	return trainer.New(conf, opts...)
}

func (d *DBN) beginLayer(i int) {
	d.Statistics.layer = i
	if !d.Trainer.Silent && !trainer.Silent {
		d.Logger.Printf("%s: pretraining layer %d: %v", d.Name, i, d.Layers[i])
	}
}

// Pretrain trains every layer for epochs epochs. It returns the reconstruction error of the
// last epoch of every layer.
func (d *DBN) Pretrain(inputs [][]float32, epochs int) ([]float64, error) {
	e := d.engine(false)
	errs := make([]float64, len(d.Layers))
	var err error
	for i, l := range d.Layers {
		d.beginLayer(i)
		errs[i] = e.Train(l, trainer.FromSlices(inputs), epochs)
		if i == len(d.Layers)-1 {
			break
		}
		if inputs, err = l.Activations(inputs); err != nil {
			return errs, errors.Wrapf(err, "Unable to compute the activations of layer %d", i)
		}
	}
	return errs, nil
}

// PretrainDenoising trains every layer to reconstruct the clean samples from the noisy ones.
// The upper layers learn from the activations of both.
func (d *DBN) PretrainDenoising(noisy, clean [][]float32, epochs int) ([]float64, error) {
	if len(noisy) != len(clean) {
		return nil, errors.Errorf("%d noisy samples but %d clean samples", len(noisy), len(clean))
	}
	e := d.engine(true)
	errs := make([]float64, len(d.Layers))
	var err error
	for i, l := range d.Layers {
		d.beginLayer(i)
		errs[i] = e.Train(l, trainer.FromPairs(noisy, clean), epochs)
		if i == len(d.Layers)-1 {
			break
		}
		if noisy, err = l.Activations(noisy); err != nil {
			return errs, errors.Wrapf(err, "Unable to compute the noisy activations of layer %d", i)
		}
		if clean, err = l.Activations(clean); err != nil {
			return errs, errors.Wrapf(err, "Unable to compute the clean activations of layer %d", i)
		}
	}
	return errs, nil
}

// PretrainDenoisingAuto trains every layer as a denoising autoencoder, corrupting its inputs by
// zeroing every value with probability noise.
func (d *DBN) PretrainDenoisingAuto(inputs [][]float32, epochs int, noise float64) ([]float64, error) {
	e := d.engine(false)
	errs := make([]float64, len(d.Layers))
	var err error
	for i, l := range d.Layers {
		d.beginLayer(i)
		errs[i] = e.TrainDenoisingAuto(l, inputs, epochs, noise)
		if i == len(d.Layers)-1 {
			break
		}
		if inputs, err = l.Activations(inputs); err != nil {
			return errs, errors.Wrapf(err, "Unable to compute the activations of layer %d", i)
		}
	}
	return errs, nil
}

// PretrainGenerator trains every layer on the batches of g. The upper layers see the batches
// through the layers below them.
func (d *DBN) PretrainGenerator(g trainer.Generator, epochs int, denoising bool) []float64 {
	e := d.engine(denoising)
	errs := make([]float64, len(d.Layers))
	for i, l := range d.Layers {
		d.beginLayer(i)
		var src trainer.Source
		if i == 0 {
			src = trainer.FromGenerator(g)
		} else {
			src = trainer.FromGenerator(newLayerGenerator(g, d.Layers[:i]))
		}
		errs[i] = e.Train(l, src, epochs)
	}
	return errs
}

// Activations returns the activations of the top layer.
func (d *DBN) Activations(inputs [][]float32) (retVal [][]float32, err error) {
	retVal = inputs
	for i, l := range d.Layers {
		if retVal, err = l.Activations(retVal); err != nil {
			return nil, errors.Wrapf(err, "Unable to compute the activations of layer %d", i)
		}
	}
	return retVal, nil
}

// Probabilities returns the output of the fine tuned network: the probability of every class.
func (d *DBN) Probabilities(inputs [][]float32) ([][]float32, error) {
	if d.OutW == nil {
		return nil, errors.New("the DBN has no output layer. Fine tune it first")
	}
	acts, err := d.Activations(inputs)
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		return nil, nil
	}

	x := tensor.New(tensor.WithShape(len(acts), len(acts[0])), tensor.WithBacking(flatten(acts)))
	logits, err := x.MatMul(d.OutW)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to compute the output layer")
	}
	retVal := rows(logits.Data().([]float32), d.Classes)
	bias := d.OutB.Data().([]float32)
	for _, row := range retVal {
		softmax(row, bias)
	}
	return retVal, nil
}

// Predict returns the most likely class of every sample.
func (d *DBN) Predict(inputs [][]float32) ([]int, error) {
	probs, err := d.Probabilities(inputs)
	if err != nil {
		return nil, err
	}
	retVal := make([]int, len(probs))
	for i, p := range probs {
		retVal[i] = argmax(p)
	}
	return retVal, nil
}

// Save the DBN into filename
func (d *DBN) Save(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return errors.WithStack(enc.Encode(d))
}

// Load a DBN saved with Save.
func Load(filename string) (*DBN, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	d := &DBN{
		Statistics: makeStatistics(),
		Logger:     log.New(os.Stdout, "", 0),
	}
	dec := gob.NewDecoder(f)
	if err = dec.Decode(d); err != nil {
		return nil, errors.Wrapf(err, "Unable to load %v", filename)
	}
	return d, nil
}

type dbnSnapshot struct {
	Config     Config
	Layers     []*rbm.RBM
	Classes    int
	OutW, OutB []float32
}

func (d *DBN) GobEncode() ([]byte, error) {
	s := dbnSnapshot{
		Config:  d.Config,
		Layers:  d.Layers,
		Classes: d.Classes,
	}
	if d.OutW != nil {
		s.OutW = d.OutW.Data().([]float32)
		s.OutB = d.OutB.Data().([]float32)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func (d *DBN) GobDecode(p []byte) error {
	var s dbnSnapshot
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&s); err != nil {
		return errors.WithStack(err)
	}
	d.Config = s.Config
	d.Layers = s.Layers
	d.Classes = s.Classes
	d.OutW, d.OutB = nil, nil
	if s.OutW != nil {
		if len(s.Layers) == 0 {
			return errors.New("corrupted DBN: an output layer without layers")
		}
		top := s.Layers[len(s.Layers)-1].Hidden
		if len(s.OutW) != top*s.Classes || len(s.OutB) != s.Classes {
			return errors.Errorf("corrupted output layer: %d weights and %d biases for %d×%d units", len(s.OutW), len(s.OutB), top, s.Classes)
		}
		d.OutW = tensor.New(tensor.WithShape(top, s.Classes), tensor.WithBacking(s.OutW))
		d.OutB = tensor.New(tensor.WithShape(s.Classes), tensor.WithBacking(s.OutB))
	}
	return nil
}

// softmax computes softmax(row + bias) in place.
func softmax(row, bias []float32) {
	for i := range row {
		row[i] += bias[i]
	}
	max := row[argmax(row)]
	var sum float32
	for i := range row {
		row[i] = math32.Exp(row[i] - max)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}
