package gif

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewGifEncoder(&buf, 0, 2)
	enc.Name = "rbm"
	assert.Error(t, enc.Flush(), "an empty gif cannot be encoded")

	conf := rbm.DefaultConf(16, 4)
	conf.BatchSize = 4
	conf.Seed = 1
	l := rbm.New(conf)
	require.NoError(t, l.Init())

	data := make([][]float32, 8)
	for i := range data {
		data[i] = make([]float32, 16)
		data[i][i] = 1
	}
	e := trainer.New(trainer.Config{Silent: true}, trainer.WithWatcher(enc), trainer.WithSeed(1))
	e.Train(l, trainer.FromSlices(data), 3)
	assert.Equal(t, 3, enc.Frames())

	require.NoError(t, enc.Flush())
	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, []int{50, 50, 50}, g.Delay)
}
