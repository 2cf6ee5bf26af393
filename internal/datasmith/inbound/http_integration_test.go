package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/analyzer"
	"github.com/seanodera/Datasmith/internal/datasmith/chart"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/event"
	"github.com/seanodera/Datasmith/internal/datasmith/preview"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/datasmith/usecase"
	"github.com/seanodera/Datasmith/internal/pkg/pkgrouter"
	"github.com/seanodera/Datasmith/internal/pkg/pkgroutine"
	"github.com/seanodera/Datasmith/internal/pkg/pkguid"
	"github.com/seanodera/Datasmith/internal/pkg/pkgvalidator"
)

const peopleCSV = "name,age\nA,30\nB,25\nC,40\n"

type envelope[T any] struct {
	Message string         `json:"message"`
	Data    T              `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

type memoryPrefs struct {
	theme entity.Theme
}

func (m *memoryPrefs) Theme() entity.Theme { return m.theme }

func (m *memoryPrefs) SaveTheme(theme entity.Theme) error {
	m.theme = theme
	return nil
}

func analysisServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "timestamp": "2024-01-01T00:00:00"})
		case "/api/v1/analyze":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			_, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "missing file", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"filename":    header.Filename,
				"analysis_id": "a-1",
				"results": map[string]any{
					"analysis_id":        "a-1",
					"analysis_timestamp": "2024-01-01T00:00:00",
					"metadata": map[string]any{
						"total_rows":    3,
						"total_columns": 2,
						"columns":       []string{"name", "age"},
					},
					"numerical_analysis": map[string]any{
						"age": map[string]any{"mean": 31.67, "median": 30, "min": 25, "max": 40, "missing_values": 0},
					},
					"categorical_analysis": map[string]any{
						"name": map[string]any{"unique_values": 3, "most_common_value": "A", "most_common_count": 1},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestRouter(t *testing.T) (http.Handler, *pkgroutine.Manager) {
	t.Helper()

	srv := analysisServer(t)

	store := session.NewStore(session.Initial(entity.ThemeLight))
	store.Start()
	t.Cleanup(func() { _ = store.Stop(context.Background()) })

	bus := event.NewBus(64)
	t.Cleanup(bus.Close)

	runner := pkgroutine.NewManager(10)

	uc := usecase.New(usecase.Dependency{
		Store:       store,
		Parser:      preview.NewParser(),
		Analyzer:    analyzer.New(analyzer.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}),
		Preferences: &memoryPrefs{theme: entity.ThemeLight},
		Events:      bus,
		Runner:      runner,
		ID:          pkguid.NewUUID(),
		Generation:  pkguid.NewCounter(0),
		RootCtx:     context.Background(),
	})

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc, pkgvalidator.New(), nil)

	return router, runner
}

func TestUploadAnalyzeAndQuery(t *testing.T) {
	router, runner := newTestRouter(t)

	st := uploadFile(t, router, "people.csv", "text/csv", peopleCSV)
	if st.File == nil || st.File.Name != "people.csv" {
		t.Fatalf("unexpected file: %+v", st.File)
	}
	if st.File.Kind != entity.FileKindCSV {
		t.Fatalf("unexpected kind: %s", st.File.Kind)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		st = getSession(t, router)
		if !st.Loading && !st.Parsing && st.Analysis != nil && st.HasPreview {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if st.Analysis == nil {
		t.Fatalf("analysis not available, error=%q", st.Error)
	}
	if st.Progress != 100 {
		t.Fatalf("unexpected progress: %d", st.Progress)
	}
	if st.Analysis.AnalysisID != "a-1" {
		t.Fatalf("unexpected analysis id: %s", st.Analysis.AnalysisID)
	}

	var prev envelope[PreviewResponse]
	doJSON(t, router, http.MethodGet, "/session/preview?page=1&page_size=2", nil, http.StatusOK, &prev)
	if len(prev.Data.Columns) != 2 || prev.Data.Columns[0].Key != "name" {
		t.Fatalf("unexpected columns: %+v", prev.Data.Columns)
	}
	if len(prev.Data.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(prev.Data.Rows))
	}
	if total, _ := prev.Meta["total"].(float64); total != 3 {
		t.Fatalf("unexpected total: %v", prev.Meta["total"])
	}

	var over envelope[OverviewResponse]
	doJSON(t, router, http.MethodGet, "/session/overview", nil, http.StatusOK, &over)
	if over.Data.File.Name != "people.csv" {
		t.Fatalf("unexpected overview file: %+v", over.Data.File)
	}
	if len(over.Data.Numerical) != 1 || over.Data.Numerical[0].Column != "age" {
		t.Fatalf("unexpected numerical summary: %+v", over.Data.Numerical)
	}
	if over.Data.Numerical[0].Std != "N/A" {
		t.Fatalf("expected N/A std, got %s", over.Data.Numerical[0].Std)
	}

	var series envelope[chart.Series]
	doJSON(t, router, http.MethodPost, "/session/chart",
		map[string]any{"type": "bar", "x_key": "name", "y_key": "age", "sort_key": "age", "ascending": false},
		http.StatusOK, &series)
	if len(series.Data.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series.Data.Points))
	}
	if got := series.Data.Points[0].X.String(); got != "C" {
		t.Fatalf("expected C first, got %s", got)
	}

	body, _ := json.Marshal(map[string]any{"type": "line", "x_key": "name", "y_key": "age"})
	req := httptest.NewRequest(http.MethodPost, "/session/chart/render?format=svg", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected render status: %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatal("render body is not svg")
	}

	var cancelled envelope[SessionResponse]
	doJSON(t, router, http.MethodDelete, "/session", nil, http.StatusOK, &cancelled)
	if cancelled.Data.File != nil || cancelled.Data.Analysis != nil {
		t.Fatalf("session not reset: %+v", cancelled.Data)
	}

	if err := runner.Wait(); err != nil {
		t.Fatalf("runner wait: %v", err)
	}
}

func TestUploadRejections(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name     string
		filename string
		mimeType string
		content  string
		status   int
		message  string
	}{
		{
			name:     "wrong type",
			filename: "notes.txt",
			mimeType: "text/plain",
			content:  "hello",
			status:   http.StatusUnsupportedMediaType,
			message:  usecase.MsgInvalidType,
		},
		{
			name:     "too large",
			filename: "big.csv",
			mimeType: "text/csv",
			content:  strings.Repeat("a", int(usecase.DefaultMaxBytes)+1),
			status:   http.StatusRequestEntityTooLarge,
			message:  usecase.MsgTooLarge,
		},
		{
			name:     "empty",
			filename: "empty.csv",
			mimeType: "text/csv",
			content:  "",
			status:   http.StatusUnprocessableEntity,
			message:  usecase.MsgEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.filename, tt.mimeType, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/session/file", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d body=%s", tt.status, rec.Code, rec.Body.String())
			}

			var env errorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if env.Message != tt.message {
				t.Fatalf("unexpected message: %q", env.Message)
			}

			st := getSession(t, router)
			if st.File != nil {
				t.Fatalf("rejected upload changed the session: %+v", st.File)
			}
		})
	}
}

func TestUploadRequiresMultipart(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/session/file", strings.NewReader(peopleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	var env errorEnvelope
	doJSON(t, router, http.MethodPut, "/session/theme", map[string]any{"theme": "blue"}, http.StatusUnprocessableEntity, &env)
	if env.Error["theme"] == "" {
		t.Fatalf("expected theme field error, got %+v", env.Error)
	}

	env = errorEnvelope{}
	doJSON(t, router, http.MethodPut, "/session/options", map[string]any{"header": true}, http.StatusUnprocessableEntity, &env)
	if env.Error["skip_empty_lines"] == "" {
		t.Fatalf("expected skip_empty_lines field error, got %+v", env.Error)
	}

	env = errorEnvelope{}
	doJSON(t, router, http.MethodPut, "/session/options", map[string]any{"header": true, "skip_empty_lines": true, "extra": 1}, http.StatusBadRequest, &env)

	var ok envelope[SessionResponse]
	doJSON(t, router, http.MethodPut, "/session/theme", map[string]any{"theme": "dark"}, http.StatusOK, &ok)
	if ok.Data.Theme != entity.ThemeDark {
		t.Fatalf("theme not applied: %s", ok.Data.Theme)
	}

	env = errorEnvelope{}
	doJSON(t, router, http.MethodGet, "/session/preview?page=0", nil, http.StatusUnprocessableEntity, &env)
}

func TestViewsWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t)

	var env errorEnvelope
	doJSON(t, router, http.MethodGet, "/session/preview", nil, http.StatusNotFound, &env)
	doJSON(t, router, http.MethodGet, "/session/overview", nil, http.StatusNotFound, &env)
	doJSON(t, router, http.MethodPost, "/session/analyze", nil, http.StatusNotFound, &env)
}

func TestAnalyzerHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	var env envelope[HealthResponse]
	doJSON(t, router, http.MethodGet, "/analyzer/health", nil, http.StatusOK, &env)
	if env.Data.Status != "healthy" {
		t.Fatalf("unexpected health: %+v", env.Data)
	}
}

func TestReadTimeFieldFormats(t *testing.T) {
	for _, raw := range []string{"1700000000000", "2023-11-14T22:13:20Z"} {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		_ = writer.WriteField("last_modified", raw)
		_ = writer.Close()

		reader := multipart.NewReader(body, writer.Boundary())
		part, err := reader.NextPart()
		if err != nil {
			t.Fatalf("next part: %v", err)
		}

		got, err := readTimeField(part)
		if err != nil {
			t.Fatalf("read %q: %v", raw, err)
		}
		if !got.Equal(time.UnixMilli(1700000000000)) {
			t.Fatalf("read %q: unexpected time %s", raw, got)
		}
	}
}

func TestParsePagination(t *testing.T) {
	page, size, err := parsePagination("", "")
	if err != nil || page != 1 || size != 10 {
		t.Fatalf("unexpected defaults: %d %d %v", page, size, err)
	}

	_, size, err = parsePagination("2", "500")
	if err != nil || size != 100 {
		t.Fatalf("expected page size capped at 100, got %d %v", size, err)
	}

	if _, _, err := parsePagination("x", ""); err == nil {
		t.Fatal("expected error for invalid page")
	}
}

func TestExtractUploadReadsLeadingFields(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("size", strconv.Itoa(len(peopleCSV)))
	_ = writer.WriteField("last_modified", "1700000000000")
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="people.csv"`)
	header.Set("Content-Type", "text/csv; charset=utf-8")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte(peopleCSV))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/session/file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	upload, cleanup, err := extractUpload(req)
	if err != nil {
		t.Fatalf("extract upload: %v", err)
	}
	defer cleanup()

	if upload.Name != "people.csv" || upload.MIMEType != "text/csv" {
		t.Fatalf("unexpected upload: %+v", upload)
	}
	if upload.Size != int64(len(peopleCSV)) {
		t.Fatalf("unexpected size: %d", upload.Size)
	}
	if !upload.LastModified.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("unexpected last modified: %s", upload.LastModified)
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != peopleCSV {
		t.Fatalf("unexpected body: %q", data)
	}
}

func multipartBody(t *testing.T, filename, mimeType, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func uploadFile(t *testing.T, router http.Handler, filename, mimeType, content string) SessionResponse {
	t.Helper()

	body, contentType := multipartBody(t, filename, mimeType, content)
	req := httptest.NewRequest(http.MethodPost, "/session/file", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var env envelope[SessionResponse]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	return env.Data
}

func getSession(t *testing.T, router http.Handler) SessionResponse {
	t.Helper()

	var env envelope[SessionResponse]
	doJSON(t, router, http.MethodGet, "/session", nil, http.StatusOK, &env)
	return env.Data
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any, status int, out any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != status {
		t.Fatalf("%s %s: expected %d, got %d body=%s", method, target, status, rec.Code, rec.Body.String())
	}

	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, target, err)
		}
	}
}
