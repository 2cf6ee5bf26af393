package usecase

import (
	"github.com/seanodera/Datasmith/internal/datasmith/chart"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

type PreviewResult struct {
	Columns  []entity.Column
	Rows     []entity.Row
	Page     int
	PageSize int
	Total    int
}

type FileDetails struct {
	Name         string
	Size         string
	Type         string
	LastModified string
	TotalRows    int64
	TotalColumns int64
	AnalysisID   string
	AnalyzedAt   string
}

type NumericalSummary struct {
	Column        string
	Mean          string
	Median        string
	Std           string
	Min           string
	Max           string
	Q1            string
	Q3            string
	MissingValues int64
}

type CategoricalSummary struct {
	Column          string
	UniqueValues    int64
	MostCommonValue string
	MostCommonCount int64
	MissingValues   int64
}

type OverviewResult struct {
	File        FileDetails
	Numerical   []NumericalSummary
	Categorical []CategoricalSummary
}

type ChartImage struct {
	Data        []byte
	ContentType string
}

type ChartRequest = chart.Request
