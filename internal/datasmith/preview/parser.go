package preview

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoFile            = errors.New("file not selected")
	ErrNoSheet           = errors.New("workbook has no sheets")
)

// checkEvery is how many records are read between context checks.
const checkEvery = 1000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads file into a table according to opts.
func (p *Parser) Parse(ctx context.Context, file *entity.UploadedFile, opts entity.FileOptions) (*entity.ParsedTable, error) {
	if file == nil {
		return nil, ErrNoFile
	}

	var (
		records [][]string
		err     error
	)

	switch file.Kind {
	case entity.FileKindCSV:
		records, err = readCSV(ctx, file.Content)
	case entity.FileKindXLSX:
		records, err = readXLSX(ctx, file.Content)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if opts.SkipEmptyLines {
		records = dropEmpty(records)
	}

	return build(records, opts.Header), nil
}

func readCSV(ctx context.Context, content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}
}

func readXLSX(ctx context.Context, content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
		records = append(records, cols)
	}

	return records, nil
}

func dropEmpty(records [][]string) [][]string {
	kept := records[:0]
	for _, rec := range records {
		if !isEmpty(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func isEmpty(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func build(records [][]string, header bool) *entity.ParsedTable {
	var keys []string
	if header && len(records) > 0 {
		keys = headerKeys(records[0])
		records = records[1:]
	} else {
		width := 0
		for _, rec := range records {
			width = max(width, len(rec))
		}
		keys = make([]string, width)
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
	}

	table := &entity.ParsedTable{
		Rows:    make([]entity.Row, 0, len(records)),
		Columns: []entity.Column{},
	}
	if len(records) == 0 {
		return table
	}

	for _, rec := range records {
		row := make(entity.Row, len(keys))
		for i, key := range keys {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			row[key] = entity.ParseValue(cell)
		}
		table.Rows = append(table.Rows, row)
	}

	table.Columns = make([]entity.Column, 0, len(keys))
	for _, key := range keys {
		table.Columns = append(table.Columns, entity.Column{Title: key, DataIndex: key, Key: key})
	}

	return table
}

// headerKeys names columns from the header record. Blank names become
// column_N (1-based) and repeats get a numeric suffix, so keys are unique.
func headerKeys(rec []string) []string {
	keys := make([]string, len(rec))
	seen := make(map[string]struct{}, len(rec))

	for i, raw := range rec {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}

		candidate := name
		for n := 1; ; n++ {
			if _, dup := seen[candidate]; !dup {
				break
			}
			candidate = name + "_" + strconv.Itoa(n)
		}

		seen[candidate] = struct{}{}
		keys[i] = candidate
	}

	return keys
}
