// Package encoding renders the filters learnt by a layer as images. The gif and mjpeg
// subpackages turn the images into animations and live streams.
package encoding

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/chewxy/math32"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi        = 72.0
	fontsize   = 12.0
	lineheight = 1.2
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// Palette is 256 shades of gray.
var Palette color.Palette

func init() {
	Palette = make(color.Palette, 256)
	for i := range Palette {
		Palette[i] = color.Gray{uint8(i)}
	}
}

// Filterer is a layer whose weights can be drawn. weights is row major, visible × hidden.
type Filterer interface {
	Filters() (weights []float32, visible, hidden int)
}

// Renderer draws the filter of every hidden unit of a layer as a tile of a grid, with a caption
// below the grid.
type Renderer struct {
	Side       int // the filters are drawn as Side × Side tiles. 0 draws filters as squares when possible, else as strips
	Scale      int // pixels per weight
	MaxFilters int // 0 draws all the filters
	font.Drawer

	face font.Face
	pad  int
}

func NewRenderer(side, scale int) *Renderer {
	if scale < 1 {
		scale = 1
	}
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &Renderer{
		Side:  side,
		Scale: scale,
		Drawer: font.Drawer{
			Src:  image.Black,
			Face: face,
		},
		face: face,
		pad:  2,
	}
}

func (r *Renderer) tile(visible int) (w, h int, err error) {
	side := r.Side
	if side == 0 {
		if s := int(math.Sqrt(float64(visible))); s*s == visible {
			side = s
		}
	}
	if side == 0 {
		return visible, 1, nil
	}
	if side*side != visible {
		return 0, 0, errors.Errorf("Cannot draw %d weights as %d × %d tiles", visible, side, side)
	}
	return side, side, nil
}

// Render draws the filters of l.
func (r *Renderer) Render(l Filterer, caption ...string) (*image.Paletted, error) {
	weights, visible, hidden := l.Filters()
	if len(weights) != visible*hidden {
		return nil, errors.Errorf("%d weights for %d × %d units", len(weights), visible, hidden)
	}
	tw, th, err := r.tile(visible)
	if err != nil {
		return nil, err
	}
	filters := hidden
	if r.MaxFilters > 0 && filters > r.MaxFilters {
		filters = r.MaxFilters
	}

	cols := int(math.Ceil(math.Sqrt(float64(filters))))
	if th == 1 {
		cols = 1
	}
	rows := (filters + cols - 1) / cols
	cellW := tw*r.Scale + r.pad
	cellH := th*r.Scale + r.pad

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	width := cols*cellW + r.pad
	for _, c := range caption {
		width = maxInt(width, font.MeasureString(r.face, c).Ceil()+2*r.pad)
	}
	height := rows*cellH + r.pad + len(caption)*dy + r.pad

	im := image.NewPaletted(image.Rect(0, 0, width, height), Palette)
	draw.Draw(im, im.Bounds(), image.White, image.Point{}, draw.Src)

	filter := make([]float32, visible)
	for f := 0; f < filters; f++ {
		for v := 0; v < visible; v++ {
			filter[v] = weights[v*hidden+f]
		}
		x0 := r.pad + (f%cols)*cellW
		y0 := r.pad + (f/cols)*cellH
		r.drawFilter(im, filter, tw, x0, y0)
	}

	y := rows*cellH + r.pad + dy
	r.Dst = im
	for _, c := range caption {
		r.Dot = fixed.P(r.pad, y)
		r.DrawString(c)
		y += dy
	}
	return im, nil
}

// drawFilter draws the weights, scaled to the full range of grays.
func (r *Renderer) drawFilter(im *image.Paletted, filter []float32, tw, x0, y0 int) {
	min, max := filter[0], filter[0]
	for _, w := range filter {
		min = math32.Min(min, w)
		max = math32.Max(max, w)
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	for i, w := range filter {
		shade := uint8((w - min) / span * 255)
		px, py := (i%tw)*r.Scale, (i/tw)*r.Scale
		for dx := 0; dx < r.Scale; dx++ {
			for dy := 0; dy < r.Scale; dy++ {
				im.SetColorIndex(x0+px+dx, y0+py+dy, shade)
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
