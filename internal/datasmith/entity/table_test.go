package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw   string
		isNum bool
		str   string
	}{
		{raw: "30", isNum: true, str: "30"},
		{raw: " 2.5 ", isNum: true, str: "2.5"},
		{raw: "-1e3", isNum: true, str: "-1000"},
		{raw: "", isNum: false, str: ""},
		{raw: "abc", isNum: false, str: "abc"},
		{raw: "NaN", isNum: false, str: "NaN"},
		{raw: "Inf", isNum: false, str: "Inf"},
	}

	for _, tc := range cases {
		v := ParseValue(tc.raw)
		assert.Equal(t, tc.isNum, v.IsNumber(), tc.raw)
		assert.Equal(t, tc.str, v.String(), tc.raw)
	}
}

func TestValueFloatCoercesStrings(t *testing.T) {
	f, ok := StringValue(" 42 ").Float()
	require.True(t, ok)
	assert.InDelta(t, 42, f, 0)

	_, ok = StringValue("forty").Float()
	assert.False(t, ok)
}

func TestValueJSON(t *testing.T) {
	row := Row{"name": StringValue("A"), "age": NumberValue(30)}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A","age":30}`, string(data))

	var back Row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back["age"].IsNumber())
	assert.Equal(t, "A", back["name"].String())
}

func TestParsedTablePage(t *testing.T) {
	table := &ParsedTable{}
	for i := 0; i < 25; i++ {
		table.Rows = append(table.Rows, Row{"i": NumberValue(float64(i))})
	}

	rows, total := table.Page(3, 10)
	assert.Equal(t, 25, total)
	require.Len(t, rows, 5)
	assert.Equal(t, "20", rows[0]["i"].String())

	rows, _ = table.Page(4, 10)
	assert.Empty(t, rows)
}
