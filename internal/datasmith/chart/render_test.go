package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderEveryType(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "line smooth", req: Request{Type: entity.ChartTypeLine, Variant: entity.ChartVariantSmooth}},
		{name: "line straight", req: Request{Type: entity.ChartTypeLine, Variant: entity.ChartVariantStraight}},
		{name: "line stepline", req: Request{Type: entity.ChartTypeLine, Variant: entity.ChartVariantStepline}},
		{name: "bar", req: Request{Type: entity.ChartTypeBar}},
		{name: "pie", req: Request{Type: entity.ChartTypePie}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.XKey, req.YKey = "name", "age"
			s, err := Build(peopleTable(), req)
			require.NoError(t, err)

			img, err := Render(s, FormatPNG, entity.ThemeLight)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(img, pngMagic))

			svg, err := Render(s, FormatSVG, entity.ThemeDark)
			require.NoError(t, err)
			assert.Contains(t, string(svg), "<svg")
		})
	}
}

func TestRenderErrors(t *testing.T) {
	s, err := Build(peopleTable(), Request{Type: entity.ChartTypeLine, XKey: "age", YKey: "name"})
	require.NoError(t, err)

	_, err = Render(s, FormatPNG, entity.ThemeLight)
	assert.ErrorIs(t, err, ErrNotEnoughPoints)

	_, err = Render(s, "gif", entity.ThemeLight)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestStepPoints(t *testing.T) {
	x, y := stepPoints([]float64{0, 1, 2}, []float64{5, 7, 3})
	assert.Equal(t, []float64{0, 1, 1, 2, 2}, x)
	assert.Equal(t, []float64{5, 5, 7, 7, 3}, y)
}

func TestCatmullRomPassesThroughInputPoints(t *testing.T) {
	x, y := catmullRom([]float64{0, 1, 2}, []float64{5, 7, 3}, 4)
	require.Len(t, x, 9)
	assert.InDelta(t, 5, y[0], 1e-9)
	assert.InDelta(t, 7, y[4], 1e-9)
	assert.InDelta(t, 3, y[8], 1e-9)
	assert.InDelta(t, 1, x[4], 1e-9)
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "image/png", FormatPNG.ContentType())
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
}
