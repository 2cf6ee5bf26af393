package chart

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

var (
	ErrNoTable       = errors.New("no preview table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrBadSortKey    = errors.New("sort key must be the x or y column")
)

type Request struct {
	Type      entity.ChartType
	Variant   entity.ChartVariant
	XKey      string
	YKey      string
	SortKey   string
	Ascending bool
}

type Point struct {
	X entity.Value `json:"x"`
	Y entity.Value `json:"y"`
}

type Series struct {
	Type    entity.ChartType    `json:"type"`
	Variant entity.ChartVariant `json:"variant,omitempty"`
	XKey    string              `json:"x_key"`
	YKey    string              `json:"y_key"`
	Points  []Point             `json:"points"`
}

// Build pairs XKey and YKey of every row, coerces Y to a number where it
// reads as one, and sorts the points when SortKey is set.
func Build(table *entity.ParsedTable, req Request) (*Series, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	for _, key := range []string{req.XKey, req.YKey} {
		if !table.HasColumn(key) {
			return nil, columnError(key)
		}
	}
	if req.SortKey != "" && req.SortKey != req.XKey && req.SortKey != req.YKey {
		return nil, ErrBadSortKey
	}

	variant := req.Variant
	if req.Type != entity.ChartTypeLine {
		variant = ""
	} else if variant == "" {
		variant = entity.ChartVariantSmooth
	}

	points := make([]Point, 0, len(table.Rows))
	for _, row := range table.Rows {
		y := row[req.YKey]
		if f, ok := y.Float(); ok {
			y = entity.NumberValue(f)
		}
		points = append(points, Point{X: row[req.XKey], Y: y})
	}

	switch req.SortKey {
	case "":
	case req.XKey:
		Sort(points, func(p Point) entity.Value { return p.X }, req.Ascending)
	default:
		Sort(points, func(p Point) entity.Value { return p.Y }, req.Ascending)
	}

	return &Series{
		Type:    req.Type,
		Variant: variant,
		XKey:    req.XKey,
		YKey:    req.YKey,
		Points:  points,
	}, nil
}

// Sort orders points in place by the value key picks. The comparison is
// numeric when every key reads as a number, byte-wise on the text otherwise.
// The sort is stable in both directions.
func Sort(points []Point, key func(Point) entity.Value, ascending bool) {
	numeric := true
	for _, p := range points {
		if _, ok := key(p).Float(); !ok {
			numeric = false
			break
		}
	}

	cmp := func(a, b Point) int {
		if numeric {
			fa, _ := key(a).Float()
			fb, _ := key(b).Float()
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
		return strings.Compare(key(a).String(), key(b).String())
	}

	slices.SortStableFunc(points, func(a, b Point) int {
		if ascending {
			return cmp(a, b)
		}
		return cmp(b, a)
	})
}

func columnError(key string) error {
	return fmt.Errorf("%w %q", ErrUnknownColumn, key)
}
