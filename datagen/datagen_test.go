package datagen

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotate(t *testing.T) {
	//
	// ⎢ 1 · · · 2 ⎥
	// ⎢ · 1 · 2 · ⎥ // this line is to break rotational symmetry
	// ⎢ · · · · · ⎥
	// ⎢ · · · · · ⎥
	// ⎢ 2 · · · 1 ⎥
	side := 5
	img := []float32{
		1, 0, 0, 0, 2,
		0, 1, 0, 2, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		2, 0, 0, 0, 1,
	}
	rot1, err := Rotate(img, side)
	require.NoError(t, err)
	assert.Equal(t, []float32{
		2, 0, 0, 0, 1,
		0, 2, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		1, 0, 0, 0, 2,
	}, rot1)

	rot := rot1
	for i := 0; i < 3; i++ {
		rot, err = Rotate(rot, side)
		require.NoError(t, err)
	}
	assert.Equal(t, img, rot, "After 4 rotations the image should be the same")

	_, err = Rotate(img, 4)
	assert.Error(t, err)
}

func sequence(n, width int) [][]float32 {
	retVal := make([][]float32, n)
	for i := range retVal {
		retVal[i] = make([]float32, width)
		for j := range retVal[i] {
			retVal[i][j] = float32(i*width + j)
		}
	}
	return retVal
}

// drain collects the first value of every sample of an epoch, and the size of every batch.
func drain(g trainer.Generator) (firsts []float32, sizes []int) {
	for g.HasNextBatch() {
		data := g.DataBatch()
		sizes = append(sizes, len(data))
		for _, row := range data {
			firsts = append(firsts, row[0])
		}
		g.NextBatch()
	}
	return firsts, sizes
}

func TestInMemory(t *testing.T) {
	assert := assert.New(t)
	inputs := sequence(25, 2)
	conf := DefaultConfig()
	conf.BatchSize = 10
	conf.Seed = 1
	g, err := NewInMemory(inputs, nil, conf)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(25, g.Size())
	firsts, sizes := drain(g)
	assert.Equal([]int{10, 10, 5}, sizes)
	for i, f := range firsts {
		assert.Equal(float32(i*2), f)
	}
	assert.False(g.HasNextBatch())

	g.ResetShuffle()
	shuffled, _ := drain(g)
	assert.NotEqual(firsts, shuffled)
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i] < shuffled[j] })
	assert.Equal(firsts, shuffled)
	assert.Equal(sequence(25, 2), inputs, "the samples should never be modified")
}

func TestInMemoryLabels(t *testing.T) {
	inputs := sequence(12, 3)
	labels := sequence(12, 3)
	for _, l := range labels {
		for j := range l {
			l[j] = -l[j]
		}
	}
	conf := DefaultConfig()
	conf.BatchSize = 5
	g, err := NewInMemory(inputs, labels, conf)
	require.NoError(t, err)

	g.ResetShuffle()
	for g.HasNextBatch() {
		data, label := g.DataBatch(), g.LabelBatch()
		require.Equal(t, len(data), len(label))
		for i := range data {
			assert.Equal(t, -data[i][1], label[i][1], "labels must follow their samples")
		}
		g.NextBatch()
	}

	_, err = NewInMemory(inputs, labels[:3], conf)
	assert.Error(t, err)
}

func TestInMemoryAugmentation(t *testing.T) {
	inputs := sequence(8, 9)
	conf := DefaultConfig()
	conf.BatchSize = 4
	conf.Noise = 0.5
	conf.Rotate = true
	conf.Side = 3
	conf.Seed = 3
	g, err := NewInMemory(inputs, nil, conf)
	require.NoError(t, err)

	g.SetTrain()
	data, label := g.DataBatch(), g.LabelBatch()
	for i := range data {
		var sum, clean float32
		for j := range data[i] {
			sum += data[i][j]
			clean += label[i][j]
		}
		// rotations keep the values, the noise does not
		assert.NotEqual(t, inputs[i], []float32(data[i]))
		assert.InDelta(t, float64(clean), float64(sum), 9*4*0.5)
		assert.Equal(t, float32(9*i*9+36), clean)
	}

	g.SetTest()
	data = g.DataBatch()
	for i := range data {
		assert.Equal(t, inputs[i], []float32(data[i]))
	}

	conf.Side = 4
	_, err = NewInMemory(inputs, nil, conf)
	assert.Error(t, err)
}

func writeCSV(t *testing.T, n int) string {
	dir, err := ioutil.TempDir("", "datagen")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", i%2, i, i*10)
	}
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestCSV(t *testing.T) {
	assert := assert.New(t)
	path := writeCSV(t, 23)
	conf := DefaultConfig()
	conf.BatchSize = 4
	conf.Window = 6
	conf.Seed = 5
	g, err := NewCSV(path, true, conf)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(23, g.Size())
	assert.Equal(2, g.Features())
	firsts, sizes := drain(g)
	require.NoError(t, g.Err())
	assert.Equal([]int{4, 4, 4, 4, 4, 3}, sizes)
	for i, f := range firsts {
		assert.Equal(float32(i), f)
	}

	g.ResetShuffle()
	shuffled, _ := drain(g)
	require.NoError(t, g.Err())
	require.Len(t, shuffled, 23)
	assert.NotEqual(firsts, shuffled)
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i] < shuffled[j] })
	assert.Equal(firsts, shuffled)

	g.Reset()
	again, _ := drain(g)
	assert.Equal(firsts, again)
}

func TestCSVErrors(t *testing.T) {
	_, err := NewCSV(filepath.Join(os.TempDir(), "does-not-exist.csv"), false, DefaultConfig())
	assert.Error(t, err)

	dir, err := ioutil.TempDir("", "datagen")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte("1,2\n3,x\n"), 0644))
	_, err = NewCSV(path, false, DefaultConfig())
	assert.Error(t, err)

	ragged := filepath.Join(dir, "ragged.csv")
	require.NoError(t, ioutil.WriteFile(ragged, []byte("0,1,2\n1,3\n"), 0644))
	_, err = NewCSV(ragged, true, DefaultConfig())
	assert.Error(t, err)
}

func TestGeneratorTraining(t *testing.T) {
	inputs := make([][]float32, 60)
	for i := range inputs {
		inputs[i] = make([]float32, 16)
		for j := 0; j < 16; j += 2 + i%2 {
			inputs[i][j] = 1
		}
	}
	conf := DefaultConfig()
	conf.BatchSize = 10
	conf.Seed = 1
	g, err := NewInMemory(inputs, nil, conf)
	require.NoError(t, err)

	rconf := rbm.DefaultConf(16, 8)
	rconf.BatchSize = 10
	rconf.Seed = 1
	r := rbm.New(rconf)
	require.NoError(t, r.Init())

	e := trainer.New(trainer.Config{Silent: true}, trainer.WithSeed(1))
	err1 := e.Train(r, trainer.FromGenerator(g), 1)
	err2 := e.Train(r, trainer.FromGenerator(g), 20)
	assert.False(t, math.IsNaN(err2))
	assert.Less(t, err2, err1)
}
