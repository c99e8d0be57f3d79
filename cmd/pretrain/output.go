package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorgonia/boltzmann/trainer"
	"github.com/gorilla/websocket"
)

type info struct {
	Layer      string  `json:"layer"`
	Epoch      int     `json:"epoch"`
	Error      float64 `json:"error"`
	FreeEnergy float64 `json:"free_energy"`
	Sparsity   float64 `json:"sparsity"`
}

// Encoder is a trainer.Watcher that sends a JSON summary of every epoch to a websocket client.
type Encoder struct {
	info chan info
}

var upgrader = websocket.Upgrader{} // use default options

func (enc *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer c.Close()
	for {
		var b []byte
		select {
		case info := <-enc.info:
			b, _ = json.Marshal(info)
		case <-r.Context().Done():
			return
		}
		if err = c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Println("write:", err)
			return
		}
	}
}

func NewEncoder() *Encoder {
	return &Encoder{
		info: make(chan info, 16),
	}
}

func (enc *Encoder) TrainingBegin(l trainer.Layer) {}

func (enc *Encoder) BatchEnd(l trainer.Layer, ctx *trainer.Context, batch, totalBatches int) {}

// EpochEnd never blocks the training: summaries are dropped when nobody listens.
func (enc *Encoder) EpochEnd(epoch int, ctx *trainer.Context, l trainer.Layer) {
	select {
	case enc.info <- info{
		Layer:      layerName(l),
		Epoch:      epoch,
		Error:      ctx.ReconstructionError,
		FreeEnergy: ctx.FreeEnergy,
		Sparsity:   ctx.Sparsity,
	}:
	default:
	}
}

func (enc *Encoder) TrainingEnd(l trainer.Layer) {}

// onlyLayer forwards the notifications about a single layer.
type onlyLayer struct {
	trainer.Watcher
	layer trainer.Layer
}

func (w onlyLayer) TrainingBegin(l trainer.Layer) {
	if l == w.layer {
		w.Watcher.TrainingBegin(l)
	}
}

func (w onlyLayer) BatchEnd(l trainer.Layer, ctx *trainer.Context, batch, totalBatches int) {
	if l == w.layer {
		w.Watcher.BatchEnd(l, ctx, batch, totalBatches)
	}
}

func (w onlyLayer) EpochEnd(epoch int, ctx *trainer.Context, l trainer.Layer) {
	if l == w.layer {
		w.Watcher.EpochEnd(epoch, ctx, l)
	}
}

func (w onlyLayer) TrainingEnd(l trainer.Layer) {
	if l == w.layer {
		w.Watcher.TrainingEnd(l)
	}
}
