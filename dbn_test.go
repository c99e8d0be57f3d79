package boltzmann

import (
	"bufio"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorgonia/boltzmann/datagen"
	"github.com/gorgonia/boltzmann/internal/dataset"
	"github.com/gorgonia/boltzmann/svm"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func testConf(sizes ...int) Config {
	conf := MakeConf("test", sizes...)
	conf.Trainer.Silent = true
	conf.Seed = 1337
	for i := range conf.Layers {
		conf.Layers[i].BatchSize = 10
		conf.Layers[i].Seed = int64(i + 1)
	}
	return conf
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "boltzmann")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func accuracy(predicted, labels []int) float64 {
	var correct int
	for i := range predicted {
		if predicted[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

func TestConfigCheck(t *testing.T) {
	conf := MakeConf("ok", 16, 8, 4)
	assert.NoError(t, conf.Check())
	assert.Len(t, conf.Layers, 2)

	conf.Layers[1].Visible = 7
	conf.Layers[0].K = 0
	err := conf.Check()
	require.Error(t, err)
	assert.Len(t, err.(manyErr), 2)

	assert.False(t, MakeConf("empty", 16).IsValid())
	assert.Panics(t, func() { New(MakeConf("empty")) })
}

func TestPretrain(t *testing.T) {
	data := dataset.BarsAndStripes(4).Repeat(10)
	d := New(testConf(16, 24, 12))

	errs, err := d.Pretrain(data.Inputs, 5)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Greater(t, e, 0.0)
	}
	assert.Len(t, d.Records, 10)
	assert.Len(t, d.Statistics.Layer(1), 5)
	assert.Equal(t, 4, d.Statistics.Layer(0)[4].Epoch)

	acts, err := d.Activations(data.Inputs)
	require.NoError(t, err)
	require.Len(t, acts, data.Len())
	assert.Len(t, acts[0], 12)

	_, err = d.Activations([][]float32{{1, 2, 3}})
	assert.Error(t, err)
}

func TestPretrainDenoising(t *testing.T) {
	clean := dataset.BarsAndStripes(4).Repeat(4).Inputs
	noisy := make([][]float32, len(clean))
	for i, c := range clean {
		noisy[i] = append([]float32(nil), c...)
		noisy[i][i%16] = 1 - noisy[i][i%16]
	}
	d := New(testConf(16, 12, 8))

	errs, err := d.PretrainDenoising(noisy, clean, 3)
	require.NoError(t, err)
	assert.Len(t, errs, 2)

	_, err = d.PretrainDenoising(noisy[:3], clean, 3)
	assert.Error(t, err)

	errs, err = d.PretrainDenoisingAuto(clean, 3, 0.2)
	require.NoError(t, err)
	assert.Len(t, errs, 2)
}

func TestPretrainGenerator(t *testing.T) {
	data := dataset.BarsAndStripes(4).Repeat(5)
	conf := datagen.DefaultConfig()
	conf.BatchSize = 10
	conf.Seed = 3
	g, err := datagen.NewInMemory(data.Inputs, nil, conf)
	require.NoError(t, err)
	defer g.Close()

	d := New(testConf(16, 12, 8))
	errs := d.PretrainGenerator(g, 3, false)
	assert.Len(t, errs, 2)
	assert.Len(t, d.Records, 6)
}

func TestLayerGenerator(t *testing.T) {
	data := dataset.BarsAndStripes(4)
	conf := datagen.DefaultConfig()
	conf.BatchSize = 30
	g, err := datagen.NewInMemory(data.Inputs, nil, conf)
	require.NoError(t, err)

	d := New(testConf(16, 12, 8))
	lg := newLayerGenerator(g, d.Layers[:1])
	want, err := d.Layers[0].Activations(data.Inputs)
	require.NoError(t, err)

	require.True(t, lg.HasNextBatch())
	got := lg.DataBatch()
	require.Len(t, got, 30)
	for i := range got {
		assert.InDeltaSlice(t, want[i], got[i], 1e-6)
	}
	assert.Equal(t, got, lg.LabelBatch())
	lg.NextBatch()
	assert.False(t, lg.HasNextBatch())
}

func TestFineTune(t *testing.T) {
	data := dataset.BarsAndStripes(4).Repeat(10)
	conf := testConf(16, 32, 16)
	d := New(conf)
	_, err := d.Pretrain(data.Inputs, 10)
	require.NoError(t, err)

	_, err = d.Predict(data.Inputs)
	assert.Error(t, err, "predicting requires an output layer")

	cost, err := d.FineTune(data.Inputs, data.Labels, 2, 50)
	require.NoError(t, err)
	assert.Less(t, cost, float32(0.5))

	predicted, err := d.Predict(data.Inputs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(predicted, data.Labels), 0.9)

	probs, err := d.Probabilities(data.Inputs[:1])
	require.NoError(t, err)
	assert.InDelta(t, 1, probs[0][0]+probs[0][1], 1e-5)

	_, err = d.FineTune(data.Inputs, data.Labels[:5], 2, 1)
	assert.Error(t, err)
	_, err = d.FineTune(data.Inputs[:5], data.Labels[:5], 2, 1)
	assert.Error(t, err)
	_, err = d.FineTune(data.Inputs, data.Labels, 1, 1)
	assert.Error(t, err)
}

func TestFineTuneSolvers(t *testing.T) {
	data := dataset.BarsAndStripes(3).Repeat(10)
	for _, s := range []Solver{Vanilla, Momentum, Adam} {
		t.Run(s.String(), func(t *testing.T) {
			conf := testConf(9, 6)
			conf.FineTune.Solver = s
			conf.FineTune.L2 = 0.0001
			conf.FineTune.Clip = 5
			switch s {
			case Vanilla:
				conf.FineTune.LearnRate = 0.5
			case Adam:
				conf.FineTune.LearnRate = 0.01
			}
			d := New(conf)
			_, err := d.Pretrain(data.Inputs, 10)
			require.NoError(t, err)

			first, err := d.FineTune(data.Inputs, data.Labels, 2, 1)
			require.NoError(t, err)
			last, err := d.FineTune(data.Inputs, data.Labels, 2, 30)
			require.NoError(t, err)
			assert.Less(t, last, first)
		})
	}
}

func TestFineTuneIsSeeded(t *testing.T) {
	data := dataset.BarsAndStripes(3).Repeat(10)
	run := func() (float32, []float32) {
		conf := testConf(9, 6)
		conf.FineTune.Solver = Adam
		conf.FineTune.LearnRate = 0.01
		d := New(conf)
		cost, err := d.FineTune(data.Inputs, data.Labels, 2, 3)
		require.NoError(t, err)
		return cost, d.OutW.Data().([]float32)
	}

	cost, outW := run()
	G.GlorotN(1.0)(Float, 32, 32) // the global random state of the graph package must not matter
	cost2, outW2 := run()
	assert.Equal(t, cost, cost2)
	assert.Equal(t, outW, outW2)
}

func TestClipGradients(t *testing.T) {
	g := G.NewGraph()
	x := G.NewVector(g, Float, G.WithShape(3), G.WithName("x"), G.WithValue(tensor.New(tensor.WithBacking([]float32{1, 2, 3}))))
	c := G.NewConstant(tensor.New(tensor.WithBacking([]float32{10, -10, 1})), G.WithName("c"))
	cost := G.Must(G.Sum(G.Must(G.HadamardProd(x, c))))
	_, err := G.Grad(cost, x)
	require.NoError(t, err)
	m := G.NewTapeMachine(g, G.BindDualValues(x))
	defer m.Close()
	require.NoError(t, m.RunAll())

	model := G.NodesToValueGrads(G.Nodes{x})
	grad := func() []float32 {
		v, err := x.Grad()
		require.NoError(t, err)
		return v.Data().([]float32)
	}
	require.NoError(t, clipGradients(model, 0))
	assert.Equal(t, []float32{10, -10, 1}, grad())
	require.NoError(t, clipGradients(model, 5))
	assert.Equal(t, []float32{5, -5, 1}, grad())
}

func TestSaveLoad(t *testing.T) {
	data := dataset.BarsAndStripes(4).Repeat(2)
	d := New(testConf(16, 12, 8))
	_, err := d.Pretrain(data.Inputs, 2)
	require.NoError(t, err)
	_, err = d.FineTune(data.Inputs, data.Labels, 2, 2)
	require.NoError(t, err)

	filename := filepath.Join(tempDir(t), "dbn.gob")
	require.NoError(t, d.Save(filename))
	loaded, err := Load(filename)
	require.NoError(t, err)

	assert.Equal(t, d.Config, loaded.Config)
	assert.Equal(t, 2, loaded.Classes)
	want, err := d.Probabilities(data.Inputs)
	require.NoError(t, err)
	got, err := loaded.Probabilities(data.Inputs)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Load(filepath.Join(tempDir(t), "missing.gob"))
	assert.Error(t, err)
}

func TestToDot(t *testing.T) {
	d := New(testConf(16, 12, 8))
	dot := d.ToDot()
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "12 binary units")
	assert.NotContains(t, dot, "softmax")

	data := dataset.BarsAndStripes(4)
	_, err := d.FineTune(data.Inputs, data.Labels, 2, 1)
	require.NoError(t, err)
	assert.Contains(t, d.ToDot(), "softmax (2)")
}

func TestStatisticsDump(t *testing.T) {
	data := dataset.BarsAndStripes(4)
	d := New(testConf(16, 8))
	_, err := d.Pretrain(data.Inputs, 3)
	require.NoError(t, err)

	filename := filepath.Join(tempDir(t), "stats.csv")
	require.NoError(t, d.Dump(filename))
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	require.Len(t, lines, 4)
	assert.Equal(t, "layer,epoch,error,free_energy,sparsity,seconds", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "0,2,"))
}

func TestWatcher(t *testing.T) {
	var buf strings.Builder
	d := New(testConf(16, 8))
	d.Watcher = trainer.NewLogWatcher("layer", nil)
	d.Watcher.(*trainer.LogWatcher).Logger.SetOutput(&buf)
	_, err := d.Pretrain(dataset.BarsAndStripes(4).Inputs, 2)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "layer: epoch 1")
}

func TestSVM(t *testing.T) {
	data := dataset.BarsAndStripes(4).Repeat(4)
	d := New(testConf(16, 24))
	_, err := d.Pretrain(data.Inputs, 10)
	require.NoError(t, err)

	p := svm.DefaultParameters()
	p.Gamma = 0.5
	m, err := d.TrainSVM(data.Inputs, data.Labels, p)
	require.NoError(t, err)
	predicted, err := d.SVMPredict(m, data.Inputs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(predicted, data.Labels), 0.8)

	p.Epochs = 2
	p.Features = 32
	res, err := d.SVMGridSearch(data.Inputs, data.Labels, p, svm.Grid{C: []float64{1, 10}, Gamma: []float64{0.5}}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Gamma)

	_, err = d.TrainSVM(data.Inputs, data.Labels[:3], p)
	assert.Error(t, err)
}
