package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		mimeType string
		want     entity.FileKind
		ok       bool
	}{
		{name: "csv mime", file: "data", mimeType: "text/csv", want: entity.FileKindCSV, ok: true},
		{name: "csv extension", file: "data.csv", mimeType: "application/octet-stream", want: entity.FileKindCSV, ok: true},
		{name: "csv extension upper", file: "DATA.CSV", want: entity.FileKindCSV, ok: true},
		{name: "xlsx mime", file: "book", mimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", want: entity.FileKindXLSX, ok: true},
		{name: "xlsx extension", file: "book.XLSX", want: entity.FileKindXLSX, ok: true},
		{name: "xls extension", file: "old.xls", mimeType: "application/vnd.ms-excel", want: entity.FileKindXLS, ok: true},
		{name: "text", file: "notes.txt", mimeType: "text/plain"},
		{name: "xlsx in middle", file: "book.xlsx.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.file, tt.mimeType)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
