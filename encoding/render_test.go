package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filters struct {
	w               []float32
	visible, hidden int
}

func (f filters) Filters() ([]float32, int, int) { return f.w, f.visible, f.hidden }

func ramp(visible, hidden int) filters {
	w := make([]float32, visible*hidden)
	for i := range w {
		w[i] = float32(i)
	}
	return filters{w, visible, hidden}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		l         filters
		side      int
		scale     int
		minW      int
		minH      int
		expectErr bool
	}{
		{name: "square", l: ramp(16, 4), scale: 2, minW: 2*(4*2+2) + 2, minH: 2*(4*2+2) + 2},
		{name: "strip", l: ramp(10, 3), scale: 1, minW: 10 + 4, minH: 3*3 + 2},
		{name: "explicit side", l: ramp(9, 9), side: 3, scale: 1, minW: 3*5 + 2, minH: 3*5 + 2},
		{name: "bad side", l: ramp(10, 2), side: 3, expectErr: true},
		{name: "bad weights", l: filters{make([]float32, 3), 2, 2}, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRenderer(tc.side, tc.scale)
			im, err := r.Render(tc.l)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, im.Bounds().Dx(), tc.minW)
			assert.GreaterOrEqual(t, im.Bounds().Dy(), tc.minH)
		})
	}
}

func TestRenderShades(t *testing.T) {
	r := NewRenderer(0, 1)
	im, err := r.Render(filters{[]float32{-1, 3, 1, 1}, 4, 1})
	require.NoError(t, err)

	// the filter of the only hidden unit is drawn at the padding offset
	assert.Equal(t, uint8(0), im.ColorIndexAt(2, 2))
	assert.Equal(t, uint8(255), im.ColorIndexAt(3, 2))
	assert.Equal(t, uint8(127), im.ColorIndexAt(2, 3))
	assert.Equal(t, uint8(255), im.ColorIndexAt(0, 0), "the background is white")
}

func TestRenderCaption(t *testing.T) {
	r := NewRenderer(0, 1)
	plain, err := r.Render(ramp(4, 1))
	require.NoError(t, err)
	captioned, err := r.Render(ramp(4, 1), "a rather long caption", "epoch 1")
	require.NoError(t, err)
	assert.Greater(t, captioned.Bounds().Dx(), plain.Bounds().Dx())
	assert.Greater(t, captioned.Bounds().Dy(), plain.Bounds().Dy())
}
