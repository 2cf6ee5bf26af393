package entity

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a single preview cell: either a number or a string.
type Value struct {
	str   string
	num   float64
	isNum bool
}

func StringValue(s string) Value {
	return Value{str: s}
}

func NumberValue(f float64) Value {
	return Value{num: f, isNum: true}
}

// ParseValue turns a raw cell into a number when the trimmed text is a finite
// float, otherwise keeps the raw text.
func ParseValue(raw string) Value {
	if f, ok := parseNumber(raw); ok {
		return NumberValue(f)
	}
	return StringValue(raw)
}

func (v Value) IsNumber() bool {
	return v.isNum
}

// Float reports the numeric reading of v. Strings are coerced when their
// trimmed text is a finite number; the empty string is not numeric.
func (v Value) Float() (float64, bool) {
	if v.isNum {
		return v.num, true
	}
	return parseNumber(v.str)
}

func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = StringValue("")
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = NumberValue(f)
	return nil
}

func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

type Row map[string]Value

type Column struct {
	Title     string
	DataIndex string
	Key       string
}

// ParsedTable is the local preview of the current file.
type ParsedTable struct {
	Rows    []Row
	Columns []Column
}

func (t *ParsedTable) HasColumn(key string) bool {
	for _, c := range t.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Page returns the rows of a 1-based page and the total row count.
func (t *ParsedTable) Page(page, pageSize int) ([]Row, int) {
	total := len(t.Rows)
	start := (page - 1) * pageSize
	if page < 1 || pageSize < 1 || start >= total {
		return []Row{}, total
	}
	end := min(start+pageSize, total)
	return t.Rows[start:end], total
}
