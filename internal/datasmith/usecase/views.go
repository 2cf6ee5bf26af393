package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/seanodera/Datasmith/internal/datasmith/chart"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

const notAvailable = "N/A"

// Preview returns one page of the parsed preview.
func (u *Usecase) Preview(ctx context.Context, page, pageSize int) (PreviewResult, error) {
	if page < 1 || pageSize < 1 {
		return PreviewResult{}, pkgerror.NewInvalidInput(errors.New("invalid pagination"))
	}

	st, err := u.tableState(ctx)
	if err != nil {
		return PreviewResult{}, err
	}

	rows, total := st.Table.Page(page, pageSize)

	return PreviewResult{
		Columns:  st.Table.Columns,
		Rows:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Overview summarizes the file and its analysis. Statistics the service
// could not compute read "N/A".
func (u *Usecase) Overview(ctx context.Context) (OverviewResult, error) {
	st, err := u.store.Snapshot(ctx)
	if err != nil {
		return OverviewResult{}, normalizeErr(err)
	}
	if st.File == nil {
		return OverviewResult{}, pkgerror.NewBusiness("No file selected.", pkgerror.CodeNotFound)
	}
	if st.Analysis == nil {
		if st.Loading {
			return OverviewResult{}, pkgerror.NewBusiness("Loading analysis...", pkgerror.CodeConflict)
		}
		if st.Err != "" {
			return OverviewResult{}, pkgerror.NewBusiness(st.Err, pkgerror.CodeNotFound)
		}
		return OverviewResult{}, pkgerror.NewBusiness("No analysis available.", pkgerror.CodeNotFound)
	}

	return buildOverview(st.File, st.Analysis), nil
}

// Chart builds the series for req from the preview.
func (u *Usecase) Chart(ctx context.Context, req ChartRequest) (*chart.Series, error) {
	st, err := u.tableState(ctx)
	if err != nil {
		return nil, err
	}

	s, err := chart.Build(st.Table, req)
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	return s, nil
}

// RenderChart draws the series for req in the session theme.
func (u *Usecase) RenderChart(ctx context.Context, req ChartRequest, format chart.Format) (ChartImage, error) {
	st, err := u.tableState(ctx)
	if err != nil {
		return ChartImage{}, err
	}

	s, err := chart.Build(st.Table, req)
	if err != nil {
		return ChartImage{}, pkgerror.NewInvalidInput(err)
	}

	data, err := chart.Render(s, format, st.Theme)
	if err != nil {
		if errors.Is(err, chart.ErrNotEnoughPoints) || errors.Is(err, chart.ErrUnknownFormat) {
			return ChartImage{}, pkgerror.NewInvalidInput(err)
		}
		return ChartImage{}, pkgerror.NewServer(err)
	}

	return ChartImage{Data: data, ContentType: format.ContentType()}, nil
}

// tableState returns a snapshot holding a preview table, or the reason there
// is none.
func (u *Usecase) tableState(ctx context.Context) (session.State, error) {
	st, err := u.store.Snapshot(ctx)
	if err != nil {
		return session.State{}, normalizeErr(err)
	}

	switch {
	case st.File == nil:
		return session.State{}, pkgerror.NewBusiness("No file selected.", pkgerror.CodeNotFound)
	case st.Table != nil:
		return st, nil
	case st.Parsing:
		return session.State{}, pkgerror.NewBusiness("Preview is still being prepared.", pkgerror.CodeConflict)
	case st.ParseErr != "":
		return session.State{}, pkgerror.NewBusiness(st.ParseErr, pkgerror.CodeNotFound)
	default:
		return session.State{}, pkgerror.NewBusiness("Preview is still being prepared.", pkgerror.CodeConflict)
	}
}

func buildOverview(file *entity.UploadedFile, a *entity.AnalysisResponse) OverviewResult {
	meta := a.Results.Metadata

	out := OverviewResult{
		File: FileDetails{
			Name:         file.Name,
			Size:         fmt.Sprintf("%.2f KB", float64(file.Size)/1024),
			Type:         orNA(file.MIMEType),
			LastModified: notAvailable,
			TotalRows:    meta.TotalRows,
			TotalColumns: meta.TotalColumns,
			AnalysisID:   a.AnalysisID,
			AnalyzedAt:   orNA(a.Results.AnalysisTimestamp),
		},
		Numerical:   make([]NumericalSummary, 0, len(a.Results.NumericalAnalysis)),
		Categorical: make([]CategoricalSummary, 0, len(a.Results.CategoricalAnalysis)),
	}
	if !file.LastModified.IsZero() {
		out.File.LastModified = file.LastModified.Format("2006-01-02")
	}

	for _, col := range columnOrder(meta.Columns, a.Results.NumericalAnalysis) {
		stats := a.Results.NumericalAnalysis[col]
		out.Numerical = append(out.Numerical, NumericalSummary{
			Column:        col,
			Mean:          statOrNA(stats.Mean),
			Median:        statOrNA(stats.Median),
			Std:           statOrNA(stats.Std),
			Min:           statOrNA(stats.Min),
			Max:           statOrNA(stats.Max),
			Q1:            statOrNA(stats.Q1),
			Q3:            statOrNA(stats.Q3),
			MissingValues: stats.MissingValues,
		})
	}

	for _, col := range columnOrder(meta.Columns, a.Results.CategoricalAnalysis) {
		stats := a.Results.CategoricalAnalysis[col]
		common := notAvailable
		if stats.MostCommonValue != nil {
			common = *stats.MostCommonValue
		}
		out.Categorical = append(out.Categorical, CategoricalSummary{
			Column:          col,
			UniqueValues:    stats.UniqueValues,
			MostCommonValue: common,
			MostCommonCount: stats.MostCommonCount,
			MissingValues:   stats.MissingValues,
		})
	}

	return out
}

// columnOrder lists the keys of stats in file column order; keys the metadata
// does not mention follow in name order.
func columnOrder[T any](columns []string, stats map[string]T) []string {
	out := make([]string, 0, len(stats))
	for _, c := range columns {
		if _, ok := stats[c]; ok && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}

	var rest []string
	for c := range stats {
		if !slices.Contains(out, c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)

	return append(out, rest...)
}

func statOrNA(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
