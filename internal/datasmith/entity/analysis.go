package entity

import "encoding/json"

// AnalysisResponse is the body returned by the remote analysis service. Field
// names follow the service's wire format and are passed through unchanged.
type AnalysisResponse struct {
	Filename   string          `json:"filename"`
	AnalysisID string          `json:"analysis_id"`
	Results    AnalysisResults `json:"results"`
}

type AnalysisResults struct {
	AnalysisID          string                         `json:"analysis_id"`
	AnalysisTimestamp   string                         `json:"analysis_timestamp"`
	Metadata            Metadata                       `json:"metadata"`
	DuplicateAnalysis   map[string]DuplicateAnalysis   `json:"duplicate_analysis"`
	NumericalAnalysis   map[string]NumericalAnalysis   `json:"numerical_analysis"`
	CategoricalAnalysis map[string]CategoricalAnalysis `json:"categorical_analysis"`
	DataQuality         DataQuality                    `json:"data_quality"`
}

type Metadata struct {
	TotalRows    int64             `json:"total_rows"`
	TotalColumns int64             `json:"total_columns"`
	Columns      []string          `json:"columns"`
	DataTypes    map[string]string `json:"data_types"`
	MemoryUsage  string            `json:"memory_usage"`
}

type DuplicateAnalysis struct {
	DuplicateCount      int64   `json:"duplicate_count"`
	UniqueCount         int64   `json:"unique_count"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
	// MostCommonValue is a string, a number or null on the wire.
	MostCommonValue json.RawMessage `json:"most_common_value"`
	MostCommonCount int64           `json:"most_common_count"`
}

type NumericalAnalysis struct {
	Mean          *float64 `json:"mean"`
	Median        *float64 `json:"median"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	Std           *float64 `json:"std"`
	Q1            *float64 `json:"q1"`
	Q3            *float64 `json:"q3"`
	MissingValues int64    `json:"missing_values"`
	ZeroValues    int64    `json:"zero_values"`
}

type CategoricalAnalysis struct {
	UniqueValues      int64            `json:"unique_values"`
	ValueDistribution map[string]int64 `json:"value_distribution"`
	MostCommonValue   *string          `json:"most_common_value"`
	MostCommonCount   int64            `json:"most_common_count"`
	MissingValues     int64            `json:"missing_values"`
}

type DataQuality struct {
	CompleteDuplicatesCount int64            `json:"complete_duplicates_count"`
	TotalMissingValues      int64            `json:"total_missing_values"`
	MissingValuesByColumn   map[string]int64 `json:"missing_values_by_column"`
}
