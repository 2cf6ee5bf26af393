package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

var (
	ErrNotEnoughPoints = errors.New("not enough numeric points to draw")
	ErrUnknownFormat   = errors.New("unknown image format")
)

const (
	width        = 1024
	height       = 512
	barWidth     = 30
	barSpacing   = 10
	maxTicks     = 20
	smoothSteps  = 8
	minLinePoint = 2
)

type palette struct {
	background drawing.Color
	foreground drawing.Color
	series     drawing.Color
}

func paletteFor(theme entity.Theme) palette {
	if theme == entity.ThemeDark {
		return palette{
			background: drawing.ColorFromHex("141414"),
			foreground: drawing.ColorFromHex("e6e6e6"),
			series:     drawing.ColorFromHex("4096ff"),
		}
	}
	return palette{
		background: gochart.ColorWhite,
		foreground: drawing.ColorFromHex("262626"),
		series:     drawing.ColorFromHex("1677ff"),
	}
}

// Render draws s in the requested format using the colors of theme.
func Render(s *Series, format Format, theme entity.Theme) ([]byte, error) {
	var provider gochart.RendererProvider
	switch format {
	case FormatPNG, "":
		provider = gochart.PNG
	case FormatSVG:
		provider = gochart.SVG
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	p := paletteFor(theme)
	var buf bytes.Buffer

	var err error
	switch s.Type {
	case entity.ChartTypeBar:
		err = renderBar(s, p, provider, &buf)
	case entity.ChartTypePie:
		err = renderPie(s, p, provider, &buf)
	default:
		err = renderLine(s, p, provider, &buf)
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func renderLine(s *Series, p palette, provider gochart.RendererProvider, buf *bytes.Buffer) error {
	xs, ys, labels := numericPoints(s.Points)
	if len(xs) < minLinePoint {
		return ErrNotEnoughPoints
	}

	switch s.Variant {
	case entity.ChartVariantStepline:
		xs, ys = stepPoints(xs, ys)
	case entity.ChartVariantStraight:
	default:
		xs, ys = catmullRom(xs, ys, smoothSteps)
	}

	ch := gochart.Chart{
		Width:      width,
		Height:     height,
		Background: gochart.Style{FillColor: p.background, Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 48}},
		Canvas:     gochart.Style{FillColor: p.background},
		XAxis: gochart.XAxis{
			Name:  s.XKey,
			Style: axisStyle(p),
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(len(labels) - 1)},
			Ticks: ticks(labels),
		},
		YAxis: gochart.YAxis{
			Name:  s.YKey,
			Style: axisStyle(p),
			Range: valueRange(ys),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    s.YKey,
				XValues: xs,
				YValues: ys,
				Style:   gochart.Style{StrokeWidth: 2, StrokeColor: p.series},
			},
		},
	}

	return ch.Render(provider, buf)
}

func renderBar(s *Series, p palette, provider gochart.RendererProvider, buf *bytes.Buffer) error {
	bars := make([]gochart.Value, 0, len(s.Points))
	values := make([]float64, 0, len(s.Points))
	for _, pt := range s.Points {
		y, ok := pt.Y.Float()
		if !ok {
			continue
		}
		bars = append(bars, gochart.Value{Label: pt.X.String(), Value: y})
		values = append(values, y)
	}
	if len(bars) == 0 {
		return ErrNotEnoughPoints
	}

	bc := gochart.BarChart{
		Width:      max(width, len(bars)*(barWidth+barSpacing)+160),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: gochart.Style{FillColor: p.background, Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 48}},
		Canvas:     gochart.Style{FillColor: p.background},
		XAxis:      axisStyle(p),
		YAxis: gochart.YAxis{
			Name:  s.YKey,
			Style: axisStyle(p),
			Range: valueRange(append(values, 0)),
		},
		Bars: bars,
	}
	for i := range bc.Bars {
		bc.Bars[i].Style = gochart.Style{FillColor: p.series, StrokeColor: p.series}
	}

	return bc.Render(provider, buf)
}

// renderPie skips slices that are not positive numbers.
func renderPie(s *Series, p palette, provider gochart.RendererProvider, buf *bytes.Buffer) error {
	values := make([]gochart.Value, 0, len(s.Points))
	for _, pt := range s.Points {
		y, ok := pt.Y.Float()
		if !ok || y <= 0 {
			continue
		}
		values = append(values, gochart.Value{Label: pt.X.String(), Value: y})
	}
	if len(values) == 0 {
		return ErrNotEnoughPoints
	}

	pc := gochart.PieChart{
		Width:      height,
		Height:     height,
		Background: gochart.Style{FillColor: p.background},
		Canvas:     gochart.Style{FillColor: p.background},
		Values:     values,
	}

	return pc.Render(provider, buf)
}

func axisStyle(p palette) gochart.Style {
	return gochart.Style{FontColor: p.foreground, StrokeColor: p.foreground}
}

// numericPoints keeps points whose Y is numeric and places them at their
// index on the x axis; labels carry the original X text.
func numericPoints(points []Point) ([]float64, []float64, []string) {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	labels := make([]string, 0, len(points))

	for _, pt := range points {
		y, ok := pt.Y.Float()
		if !ok {
			continue
		}
		xs = append(xs, float64(len(labels)))
		ys = append(ys, y)
		labels = append(labels, pt.X.String())
	}

	return xs, ys, labels
}

func ticks(labels []string) []gochart.Tick {
	stride := max(1, int(math.Ceil(float64(len(labels))/maxTicks)))
	out := make([]gochart.Tick, 0, maxTicks+1)
	for i := 0; i < len(labels); i += stride {
		out = append(out, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	return out
}

// valueRange spans ys with a little headroom and never collapses to a point.
func valueRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// stepPoints holds each value until the next x, then jumps.
func stepPoints(xs, ys []float64) ([]float64, []float64) {
	outX := make([]float64, 0, 2*len(xs))
	outY := make([]float64, 0, 2*len(ys))
	for i := range xs {
		if i > 0 {
			outX = append(outX, xs[i])
			outY = append(outY, ys[i-1])
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY
}

// catmullRom interpolates steps points between each pair of neighbours with
// a uniform Catmull-Rom spline through all input points.
func catmullRom(xs, ys []float64, steps int) ([]float64, []float64) {
	n := len(xs)
	if n < 3 || steps < 1 {
		return xs, ys
	}

	at := func(v []float64, i int) float64 {
		return v[min(max(i, 0), n-1)]
	}
	spline := func(p0, p1, p2, p3, t float64) float64 {
		t2, t3 := t*t, t*t*t
		return 0.5 * (2*p1 + (p2-p0)*t + (2*p0-5*p1+4*p2-p3)*t2 + (3*p1-p0-3*p2+p3)*t3)
	}

	outX := make([]float64, 0, (n-1)*steps+1)
	outY := make([]float64, 0, (n-1)*steps+1)
	for i := 0; i < n-1; i++ {
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			outX = append(outX, spline(at(xs, i-1), xs[i], xs[i+1], at(xs, i+2), t))
			outY = append(outY, spline(at(ys, i-1), ys[i], ys[i+1], at(ys, i+2), t))
		}
	}
	outX = append(outX, xs[n-1])
	outY = append(outY, ys[n-1])

	return outX, outY
}
