package inbound

import (
	"context"
	"net/http"

	"github.com/seanodera/Datasmith/internal/datasmith/analyzer"
	"github.com/seanodera/Datasmith/internal/datasmith/chart"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/datasmith/usecase"
	"github.com/seanodera/Datasmith/internal/pkg/pkgrouter"
)

type uc interface {
	State(ctx context.Context) (session.State, error)
	SelectFile(ctx context.Context, in usecase.Upload) (session.State, error)
	Cancel(ctx context.Context) (session.State, error)
	SetOptions(ctx context.Context, opts entity.FileOptions) (session.State, error)
	SetTheme(ctx context.Context, theme entity.Theme) (session.State, error)
	Analyze(ctx context.Context) (session.State, error)
	Preview(ctx context.Context, page, pageSize int) (usecase.PreviewResult, error)
	Overview(ctx context.Context) (usecase.OverviewResult, error)
	Chart(ctx context.Context, req usecase.ChartRequest) (*chart.Series, error)
	RenderChart(ctx context.Context, req usecase.ChartRequest, format chart.Format) (usecase.ChartImage, error)
	AnalyzerHealth(ctx context.Context) (*analyzer.Health, error)
}

type validator interface {
	Validate(s any) error
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, v validator, events http.Handler) {
	end := &HTTPEndpoint{uc: uc, validator: v}

	r.GET("/session", end.Session)
	r.DELETE("/session", end.Cancel)
	r.POST("/session/file", end.UploadFile)
	r.PUT("/session/options", end.SetOptions)
	r.PUT("/session/theme", end.SetTheme)
	r.POST("/session/analyze", end.Analyze)

	r.GET("/session/preview", end.Preview) // ?page=&page_size=
	r.GET("/session/overview", end.Overview)
	r.POST("/session/chart", end.Chart)
	r.POST("/session/chart/render", end.RenderChart) // ?format=png|svg

	r.GET("/analyzer/health", end.AnalyzerHealth)

	if events != nil {
		r.Handle(http.MethodGet, "/session/events", events)
	}
}
