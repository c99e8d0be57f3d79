package datagen

import (
	"io"
	"math/rand"
	"os"

	"github.com/gorgonia/boltzmann/internal/dataset"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
)

// CSV streams samples from a CSV file. At most Window samples are held in memory, and shuffling
// only happens within a window.
//
// Read errors stop the generator. They are reported by Err.
type CSV struct {
	Config
	path     string
	labelled bool
	size     int
	features int

	f      *os.File
	reader *dataset.Reader
	window [][]float32
	wpos   int
	eof    bool

	shuffle bool
	train   bool
	r       *rand.Rand
	b       *batcher
	dirty   bool
	err     error
}

var _ trainer.Generator = (*CSV)(nil)

// NewCSV opens the file at path. When labelled, the first column of every record is ignored.
// The whole file is read once to count and check the samples.
func NewCSV(path string, labelled bool, conf Config) (*CSV, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid generator configuration %+v", conf)
	}
	if conf.Window < conf.BatchSize {
		conf.Window = conf.BatchSize
	}
	g := &CSV{
		Config:   conf,
		path:     path,
		labelled: labelled,
		r:        conf.rand(),
	}
	g.b = newBatcher(conf, g.r)

	if err := g.open(); err != nil {
		return nil, err
	}
	for {
		input, _, err := g.reader.Read(labelled)
		if err == io.EOF {
			break
		}
		if err == nil && g.size > 0 && len(input) != g.features {
			err = errors.Errorf("sample %d has %d values, expected %d", g.size, len(input), g.features)
		}
		if err != nil {
			g.Close()
			return nil, errors.Wrapf(err, "Unable to read %v", path)
		}
		g.features = len(input)
		g.size++
	}
	if err := g.open(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *CSV) open() error {
	if g.f != nil {
		g.f.Close()
	}
	f, err := os.Open(g.path)
	if err != nil {
		g.f = nil
		return errors.WithStack(err)
	}
	g.f = f
	g.reader = dataset.NewReader(f)
	g.window = g.window[:0]
	g.wpos = 0
	g.eof = false
	g.dirty = true
	return nil
}

// refill moves the samples left in the window to its front and tops it up from the file.
func (g *CSV) refill() {
	n := copy(g.window, g.window[g.wpos:])
	g.window = g.window[:n]
	g.wpos = 0
	for len(g.window) < g.Window {
		in, _, err := g.reader.Read(g.labelled)
		if err == io.EOF {
			g.eof = true
			break
		}
		if err != nil {
			g.err = errors.Wrapf(err, "Unable to read %v", g.path)
			break
		}
		g.window = append(g.window, in)
	}
	if g.shuffle {
		g.r.Shuffle(len(g.window), func(i, j int) { g.window[i], g.window[j] = g.window[j], g.window[i] })
	}
}

func (g *CSV) load() {
	if !g.dirty || g.err != nil {
		return
	}
	g.dirty = false
	if len(g.window)-g.wpos < g.BatchSize && !g.eof {
		g.refill()
	}
	end := g.wpos + g.BatchSize
	if end > len(g.window) {
		end = len(g.window)
	}
	g.b.fill(g.window[g.wpos:end], nil, g.train)
}

func (g *CSV) Size() int { return g.size }

// Features is the number of values of every sample.
func (g *CSV) Features() int { return g.features }

func (g *CSV) HasNextBatch() bool {
	g.load()
	return g.err == nil && g.b.n > 0
}

func (g *CSV) NextBatch() {
	g.load()
	g.wpos += g.b.n
	g.dirty = true
}

func (g *CSV) DataBatch() trainer.Batch {
	g.load()
	return g.b.DataBatch()
}

func (g *CSV) LabelBatch() trainer.Batch {
	g.load()
	return g.b.LabelBatch()
}

func (g *CSV) Reset() {
	g.shuffle = false
	g.err = g.open()
}

// ResetShuffle rewinds the file. Every window read afterwards is shuffled.
func (g *CSV) ResetShuffle() {
	g.shuffle = true
	g.err = g.open()
}

func (g *CSV) SetTrain() {
	g.train = true
	g.dirty = true
}

func (g *CSV) SetTest() {
	g.train = false
	g.dirty = true
}

// Err returns the first error met while reading the file.
func (g *CSV) Err() error { return g.err }

func (g *CSV) Close() error {
	g.b.release()
	if g.f == nil {
		return nil
	}
	err := g.f.Close()
	g.f = nil
	return errors.WithStack(err)
}
