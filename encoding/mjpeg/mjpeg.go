package mjpeg

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"log"
	"net/http"

	"github.com/gorgonia/boltzmann/encoding"
	"github.com/gorgonia/boltzmann/trainer"
	"github.com/mattn/go-mjpeg"
)

// Encoder is a trainer.Watcher that streams the filters of a layer as an MJPEG stream, one
// frame per epoch.
type Encoder struct {
	*encoding.Renderer
	Name string

	stream *mjpeg.Stream
}

func (e *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.stream.ServeHTTP(w, r)
}

// NewEncoder creates an encoder. See encoding.NewRenderer for side and scale.
func NewEncoder(side, scale int) *Encoder {
	return &Encoder{
		Renderer: encoding.NewRenderer(side, scale),
		stream:   mjpeg.NewStream(),
	}
}

// Encode sends a frame to the stream.
func (enc *Encoder) Encode(l encoding.Filterer, caption ...string) error {
	im, err := enc.Render(l, caption...)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	err = jpeg.Encode(&b, im, nil)
	if err != nil {
		log.Println(err)
		return err
	}
	err = enc.stream.Update(b.Bytes())
	if err != nil {
		log.Println(err)
		return err
	}
	return nil
}

func (enc *Encoder) TrainingBegin(l trainer.Layer) {}

func (enc *Encoder) BatchEnd(l trainer.Layer, ctx *trainer.Context, batch, totalBatches int) {}

func (enc *Encoder) EpochEnd(epoch int, ctx *trainer.Context, l trainer.Layer) {
	if f, ok := l.(encoding.Filterer); ok {
		enc.Encode(f, fmt.Sprintf("%s epoch %d", enc.Name, epoch), fmt.Sprintf("error %.5f", ctx.ReconstructionError))
	}
}

func (enc *Encoder) TrainingEnd(l trainer.Layer) {}
