package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

const (
	analyzePath = "/api/v1/analyze"
	healthPath  = "/health"
	formField   = "file"

	// maxResponseBytes bounds the decoded analysis body.
	maxResponseBytes = 64 << 20
)

type Config struct {
	BaseURL string
	// Timeout bounds a whole request; zero leaves it to the transport.
	Timeout time.Duration
	// ProgressPerSecond caps intermediate progress reports; zero disables
	// throttling.
	ProgressPerSecond float64
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	perSecond  float64
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The configured timeout
// is not applied to a client passed this way.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		perSecond:  cfg.ProgressPerSecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Analyze uploads file to the analysis service and decodes its answer.
// Every returned error is an *Error.
func (c *Client) Analyze(ctx context.Context, file *entity.UploadedFile, onProgress ProgressFunc) (*entity.AnalysisResponse, error) {
	if file == nil {
		return nil, setupError(errors.New("file not selected"))
	}

	endpoint, err := c.endpoint(analyzePath)
	if err != nil {
		return nil, setupError(err)
	}

	body, contentType, err := encodeFile(file)
	if err != nil {
		return nil, setupError(err)
	}

	var limiter *rate.Limiter
	if c.perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.perSecond), 1)
	}
	total := int64(body.Len())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, newProgressReader(body, total, limiter, onProgress))
	if err != nil {
		return nil, setupError(err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "analysis request got no response", "file", file.Name, "error", err)
		return nil, noResponse(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		slog.WarnContext(ctx, "analysis request failed", "file", file.Name, "status", resp.StatusCode)
		return nil, statusError(resp)
	}

	var out entity.AnalysisResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, setupError(fmt.Errorf("decode analysis response: %w", err))
	}

	slog.InfoContext(ctx, "analysis completed", "file", file.Name, "analysis_id", out.AnalysisID, "duration", time.Since(start).String())

	return &out, nil
}

// Health is the answer of the service health endpoint.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health queries the analysis service liveness endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	endpoint, err := c.endpoint(healthPath)
	if err != nil {
		return nil, setupError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, setupError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, noResponse(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var out Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, setupError(fmt.Errorf("decode health response: %w", err))
	}

	return &out, nil
}

func (c *Client) endpoint(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid analyzer base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid analyzer base url %q", c.baseURL)
	}

	return u.JoinPath(path).String(), nil
}

func encodeFile(file *entity.UploadedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, file.Name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
