package gif

import (
	"fmt"
	"image/gif"
	"io"

	"github.com/gorgonia/boltzmann/encoding"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/pkg/errors"
)

// Encoder is a trainer.Watcher that records the filters of a layer at the end of every epoch,
// as the frames of an animated GIF.
type Encoder struct {
	*encoding.Renderer
	Name  string
	Delay int // delay between frames, in 100ths of a second

	out *gif.GIF
	io.Writer
	err error
}

// NewGifEncoder creates an encoder that writes to w when flushed.
func NewGifEncoder(w io.Writer, side, scale int) *Encoder {
	return &Encoder{
		Renderer: encoding.NewRenderer(side, scale),
		Delay:    50,
		out:      &gif.GIF{LoopCount: 0},
		Writer:   w,
	}
}

// Encode adds a frame.
func (enc *Encoder) Encode(l encoding.Filterer, caption ...string) error {
	im, err := enc.Render(l, caption...)
	if err != nil {
		return err
	}
	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, enc.Delay)
	return nil
}

// Frames is the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

func (enc *Encoder) TrainingBegin(l trainer.Layer) {}

func (enc *Encoder) BatchEnd(l trainer.Layer, ctx *trainer.Context, batch, totalBatches int) {}

func (enc *Encoder) EpochEnd(epoch int, ctx *trainer.Context, l trainer.Layer) {
	f, ok := l.(encoding.Filterer)
	if !ok || enc.err != nil {
		return
	}
	enc.err = enc.Encode(f, fmt.Sprintf("%s epoch %d", enc.Name, epoch), fmt.Sprintf("error %.5f", ctx.ReconstructionError))
}

func (enc *Encoder) TrainingEnd(l trainer.Layer) {}

// Flush writes the gif into the writer. It reports the first error met while encoding frames.
func (enc *Encoder) Flush() error {
	if enc.err != nil {
		return enc.err
	}
	if len(enc.out.Image) == 0 {
		return errors.New("no frame to encode")
	}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}
