package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

func peopleTable() *entity.ParsedTable {
	row := func(name string, age float64) entity.Row {
		return entity.Row{"name": entity.StringValue(name), "age": entity.NumberValue(age)}
	}
	return &entity.ParsedTable{
		Rows: []entity.Row{row("A", 30), row("B", 25), row("C", 40)},
		Columns: []entity.Column{
			{Title: "name", DataIndex: "name", Key: "name"},
			{Title: "age", DataIndex: "age", Key: "age"},
		},
	}
}

func xs(s *Series) []string {
	out := make([]string, 0, len(s.Points))
	for _, p := range s.Points {
		out = append(out, p.X.String())
	}
	return out
}

func TestBuildSortsByAgeAscending(t *testing.T) {
	s, err := Build(peopleTable(), Request{Type: entity.ChartTypeBar, XKey: "name", YKey: "age", SortKey: "age", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, xs(s))
	assert.Empty(t, s.Variant)
}

func TestBuildWithoutSortKeepsRowOrder(t *testing.T) {
	s, err := Build(peopleTable(), Request{Type: entity.ChartTypeLine, XKey: "name", YKey: "age"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, xs(s))
	assert.Equal(t, entity.ChartVariantSmooth, s.Variant)
}

func TestBuildCoercesNumericY(t *testing.T) {
	table := &entity.ParsedTable{
		Rows: []entity.Row{
			{"k": entity.StringValue("a"), "v": entity.StringValue(" 12.5 ")},
			{"k": entity.StringValue("b"), "v": entity.StringValue("n/a")},
		},
		Columns: []entity.Column{{Key: "k"}, {Key: "v"}},
	}

	s, err := Build(table, Request{Type: entity.ChartTypeBar, XKey: "k", YKey: "v"})
	require.NoError(t, err)
	assert.True(t, s.Points[0].Y.IsNumber())
	assert.False(t, s.Points[1].Y.IsNumber())
	assert.Equal(t, "n/a", s.Points[1].Y.String())
}

func TestBuildValidation(t *testing.T) {
	_, err := Build(nil, Request{XKey: "name", YKey: "age"})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = Build(peopleTable(), Request{XKey: "name", YKey: "height"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Build(peopleTable(), Request{XKey: "name", YKey: "age", SortKey: "other"})
	assert.ErrorIs(t, err, ErrBadSortKey)
}

func TestSortDescendingIsReverseOfAscending(t *testing.T) {
	values := []float64{3, -1, 10, 2.5, 7, 0}
	build := func() []Point {
		points := make([]Point, 0, len(values))
		for _, v := range values {
			points = append(points, Point{X: entity.NumberValue(v), Y: entity.NumberValue(v)})
		}
		return points
	}
	key := func(p Point) entity.Value { return p.X }

	asc := build()
	Sort(asc, key, true)
	desc := build()
	Sort(desc, key, false)

	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}
}

func TestSortNumericVersusString(t *testing.T) {
	key := func(p Point) entity.Value { return p.X }

	numeric := []Point{{X: entity.StringValue("10")}, {X: entity.StringValue("9")}, {X: entity.StringValue("100")}}
	Sort(numeric, key, true)
	assert.Equal(t, []string{"9", "10", "100"}, []string{numeric[0].X.String(), numeric[1].X.String(), numeric[2].X.String()})

	mixed := []Point{{X: entity.StringValue("10")}, {X: entity.StringValue("b")}, {X: entity.StringValue("9")}, {X: entity.StringValue("B")}}
	Sort(mixed, key, true)
	assert.Equal(t, []string{"10", "9", "B", "b"}, []string{mixed[0].X.String(), mixed[1].X.String(), mixed[2].X.String(), mixed[3].X.String()})
}

func TestSortIsStableForTies(t *testing.T) {
	points := []Point{
		{X: entity.StringValue("first"), Y: entity.NumberValue(1)},
		{X: entity.StringValue("second"), Y: entity.NumberValue(1)},
		{X: entity.StringValue("third"), Y: entity.NumberValue(0)},
	}
	Sort(points, func(p Point) entity.Value { return p.Y }, false)
	assert.Equal(t, "first", points[0].X.String())
	assert.Equal(t, "second", points[1].X.String())
	assert.Equal(t, "third", points[2].X.String())
}
