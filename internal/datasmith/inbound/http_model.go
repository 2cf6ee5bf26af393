package inbound

import (
	"net/http"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/datasmith/usecase"
)

type File struct {
	Name         string          `json:"name"`
	Size         int64           `json:"size"`
	MIMEType     string          `json:"mime_type"`
	Kind         entity.FileKind `json:"kind"`
	LastModified *time.Time      `json:"last_modified,omitempty"`
}

type Options struct {
	Header         bool `json:"header"`
	SkipEmptyLines bool `json:"skip_empty_lines"`
}

type SessionResponse struct {
	File       *File                    `json:"file"`
	Options    Options                  `json:"options"`
	Progress   int                      `json:"progress"`
	Theme      entity.Theme             `json:"theme"`
	Loading    bool                     `json:"loading"`
	Parsing    bool                     `json:"parsing"`
	HasPreview bool                     `json:"has_preview"`
	Error      string                   `json:"error,omitempty"`
	ParseError string                   `json:"parse_error,omitempty"`
	Analysis   *entity.AnalysisResponse `json:"analysis"`

	status  int
	message string
}

func (r SessionResponse) StatusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r SessionResponse) Message() string {
	if r.message == "" {
		return "request has been successfully"
	}
	return r.message
}

func toSessionResponse(st session.State) SessionResponse {
	resp := SessionResponse{
		Options:    Options{Header: st.Options.Header, SkipEmptyLines: st.Options.SkipEmptyLines},
		Progress:   st.Progress,
		Theme:      st.Theme,
		Loading:    st.Loading,
		Parsing:    st.Parsing,
		HasPreview: st.Table != nil,
		Error:      st.Err,
		ParseError: st.ParseErr,
		Analysis:   st.Analysis,
	}

	if st.File != nil {
		resp.File = &File{
			Name:     st.File.Name,
			Size:     st.File.Size,
			MIMEType: st.File.MIMEType,
			Kind:     st.File.Kind,
		}
		if !st.File.LastModified.IsZero() {
			lm := st.File.LastModified
			resp.File.LastModified = &lm
		}
	}

	return resp
}

type SetOptionsRequest struct {
	Header         *bool `json:"header" validate:"required"`
	SkipEmptyLines *bool `json:"skip_empty_lines" validate:"required"`
}

type SetThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type ChartRequest struct {
	Type      string `json:"type" validate:"required,oneof=line bar pie"`
	Variant   string `json:"variant" validate:"omitempty,oneof=smooth straight stepline"`
	XKey      string `json:"x_key" validate:"required"`
	YKey      string `json:"y_key" validate:"required"`
	SortKey   string `json:"sort_key"`
	Ascending *bool  `json:"ascending"`
}

func (r ChartRequest) toUsecase() usecase.ChartRequest {
	ascending := true
	if r.Ascending != nil {
		ascending = *r.Ascending
	}

	return usecase.ChartRequest{
		Type:      entity.ChartType(r.Type),
		Variant:   entity.ChartVariant(r.Variant),
		XKey:      r.XKey,
		YKey:      r.YKey,
		SortKey:   r.SortKey,
		Ascending: ascending,
	}
}

type Column struct {
	Title     string `json:"title"`
	DataIndex string `json:"data_index"`
	Key       string `json:"key"`
}

type PreviewResponse struct {
	Columns []Column     `json:"columns"`
	Rows    []entity.Row `json:"rows"`

	page     int
	pageSize int
	total    int
}

func (r PreviewResponse) Meta() map[string]any {
	return map[string]any{
		"page":      r.page,
		"page_size": r.pageSize,
		"total":     r.total,
	}
}

type OverviewResponse struct {
	File        FileDetails          `json:"file"`
	Numerical   []NumericalSummary   `json:"numerical"`
	Categorical []CategoricalSummary `json:"categorical"`
}

type FileDetails struct {
	Name         string `json:"name"`
	Size         string `json:"size"`
	Type         string `json:"type"`
	LastModified string `json:"last_modified"`
	TotalRows    int64  `json:"total_rows"`
	TotalColumns int64  `json:"total_columns"`
	AnalysisID   string `json:"analysis_id"`
	AnalyzedAt   string `json:"analyzed_at"`
}

type NumericalSummary struct {
	Column        string `json:"column"`
	Mean          string `json:"mean"`
	Median        string `json:"median"`
	Std           string `json:"std"`
	Min           string `json:"min"`
	Max           string `json:"max"`
	Q1            string `json:"q1"`
	Q3            string `json:"q3"`
	MissingValues int64  `json:"missing_values"`
}

type CategoricalSummary struct {
	Column          string `json:"column"`
	UniqueValues    int64  `json:"unique_values"`
	MostCommonValue string `json:"most_common_value"`
	MostCommonCount int64  `json:"most_common_count"`
	MissingValues   int64  `json:"missing_values"`
}

func toOverviewResponse(res usecase.OverviewResult) OverviewResponse {
	out := OverviewResponse{
		File:        FileDetails(res.File),
		Numerical:   make([]NumericalSummary, 0, len(res.Numerical)),
		Categorical: make([]CategoricalSummary, 0, len(res.Categorical)),
	}
	for _, n := range res.Numerical {
		out.Numerical = append(out.Numerical, NumericalSummary(n))
	}
	for _, c := range res.Categorical {
		out.Categorical = append(out.Categorical, CategoricalSummary(c))
	}
	return out
}

// ChartImageResponse is written as raw bytes rather than a JSON envelope.
type ChartImageResponse struct {
	data        []byte
	contentType string
}

func (r ChartImageResponse) ContentType() string {
	return r.contentType
}

func (r ChartImageResponse) Bytes() []byte {
	return r.data
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}
