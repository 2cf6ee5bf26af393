package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/chart"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/usecase"
	"github.com/seanodera/Datasmith/internal/pkg/pkgerror"
)

const maxJSONBody = 1 << 20

type HTTPEndpoint struct {
	uc        uc
	validator validator
}

func (h *HTTPEndpoint) Session(ctx context.Context, _ *http.Request) (any, error) {
	st, err := h.uc.State(ctx)
	if err != nil {
		return nil, err
	}

	return toSessionResponse(st), nil
}

func (h *HTTPEndpoint) Cancel(ctx context.Context, _ *http.Request) (any, error) {
	st, err := h.uc.Cancel(ctx)
	if err != nil {
		return nil, err
	}

	resp := toSessionResponse(st)
	resp.message = "upload cancelled"
	return resp, nil
}

func (h *HTTPEndpoint) UploadFile(ctx context.Context, r *http.Request) (any, error) {
	upload, cleanup, err := extractUpload(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	st, err := h.uc.SelectFile(ctx, upload)
	if err != nil {
		return nil, err
	}

	resp := toSessionResponse(st)
	resp.status = http.StatusAccepted
	resp.message = "file accepted"
	return resp, nil
}

func (h *HTTPEndpoint) SetOptions(ctx context.Context, r *http.Request) (any, error) {
	var req SetOptionsRequest
	if err := h.decode(r, &req); err != nil {
		return nil, err
	}

	st, err := h.uc.SetOptions(ctx, entity.FileOptions{
		Header:         *req.Header,
		SkipEmptyLines: *req.SkipEmptyLines,
	})
	if err != nil {
		return nil, err
	}

	return toSessionResponse(st), nil
}

func (h *HTTPEndpoint) SetTheme(ctx context.Context, r *http.Request) (any, error) {
	var req SetThemeRequest
	if err := h.decode(r, &req); err != nil {
		return nil, err
	}

	st, err := h.uc.SetTheme(ctx, entity.Theme(req.Theme))
	if err != nil {
		return nil, err
	}

	return toSessionResponse(st), nil
}

func (h *HTTPEndpoint) Analyze(ctx context.Context, _ *http.Request) (any, error) {
	st, err := h.uc.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	resp := toSessionResponse(st)
	resp.status = http.StatusAccepted
	resp.message = "analysis started"
	return resp, nil
}

func (h *HTTPEndpoint) Preview(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()
	page, pageSize, err := parsePagination(query.Get("page"), query.Get("page_size"))
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Preview(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, len(result.Columns))
	for _, c := range result.Columns {
		columns = append(columns, Column(c))
	}

	return PreviewResponse{
		Columns:  columns,
		Rows:     result.Rows,
		page:     result.Page,
		pageSize: result.PageSize,
		total:    result.Total,
	}, nil
}

func (h *HTTPEndpoint) Overview(ctx context.Context, _ *http.Request) (any, error) {
	result, err := h.uc.Overview(ctx)
	if err != nil {
		return nil, err
	}

	return toOverviewResponse(result), nil
}

func (h *HTTPEndpoint) Chart(ctx context.Context, r *http.Request) (any, error) {
	var req ChartRequest
	if err := h.decode(r, &req); err != nil {
		return nil, err
	}

	series, err := h.uc.Chart(ctx, req.toUsecase())
	if err != nil {
		return nil, err
	}

	return series, nil
}

func (h *HTTPEndpoint) RenderChart(ctx context.Context, r *http.Request) (any, error) {
	var req ChartRequest
	if err := h.decode(r, &req); err != nil {
		return nil, err
	}

	format := chart.Format(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))))
	if format == "" {
		format = chart.FormatPNG
	}

	img, err := h.uc.RenderChart(ctx, req.toUsecase(), format)
	if err != nil {
		return nil, err
	}

	return ChartImageResponse{data: img.Data, contentType: img.ContentType}, nil
}

func (h *HTTPEndpoint) AnalyzerHealth(ctx context.Context, _ *http.Request) (any, error) {
	health, err := h.uc.AnalyzerHealth(ctx)
	if err != nil {
		return nil, err
	}

	return HealthResponse{Status: health.Status, Timestamp: health.Timestamp}, nil
}

func (h *HTTPEndpoint) decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidInput(errors.New("empty request body"))
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return pkgerror.NewInvalidFormat()
	}

	if h.validator == nil {
		return nil
	}

	return h.validator.Validate(dst)
}

func parsePagination(pageRaw, sizeRaw string) (int, int, error) {
	page := 1
	pageSize := 10

	if pageRaw != "" {
		value, err := strconv.Atoi(pageRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page"))
		}
		page = value
	}

	if sizeRaw != "" {
		value, err := strconv.Atoi(sizeRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page_size"))
		}
		if value > 100 {
			value = 100
		}
		pageSize = value
	}

	return page, pageSize, nil
}

// extractUpload reads the multipart form up to the "file" part. The optional
// "size" and "last_modified" fields are only seen when they precede it.
func extractUpload(r *http.Request) (usecase.Upload, func(), error) {
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return usecase.Upload{}, noop, pkgerror.NewInvalidInput(errors.New("multipart/form-data body is required"))
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return usecase.Upload{}, noop, pkgerror.NewInvalidFormat()
	}

	upload := usecase.Upload{Size: -1}
	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return usecase.Upload{}, noop, pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			return usecase.Upload{}, noop, pkgerror.NewInvalidFormat()
		}

		switch part.FormName() {
		case "file":
			upload.Name = part.FileName()
			upload.MIMEType = partMediaType(part)
			upload.Body = part
			return upload, func() { _ = part.Close() }, nil
		case "size":
			size, err := readIntField(part)
			if err != nil || size < 0 {
				return usecase.Upload{}, noop, pkgerror.NewInvalidInput(errors.New("invalid size"))
			}
			upload.Size = size
		case "last_modified":
			lm, err := readTimeField(part)
			if err != nil {
				return usecase.Upload{}, noop, pkgerror.NewInvalidInput(errors.New("invalid last_modified"))
			}
			upload.LastModified = lm
		default:
			_ = part.Close()
		}
	}
}

func partMediaType(part *multipart.Part) string {
	ct := part.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mediaType
}

func readField(part *multipart.Part) (string, error) {
	defer func() { _ = part.Close() }()

	raw, err := io.ReadAll(io.LimitReader(part, 64))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func readIntField(part *multipart.Part) (int64, error) {
	raw, err := readField(part)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// readTimeField accepts RFC 3339 or Unix milliseconds, the form browsers
// report for File.lastModified.
func readTimeField(part *multipart.Part) (time.Time, error) {
	raw, err := readField(part)
	if err != nil {
		return time.Time{}, err
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
