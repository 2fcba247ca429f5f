package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/paper-summarizer/internal/domain/catalog"
	"github.com/yanqian/paper-summarizer/internal/domain/paper"
	"github.com/yanqian/paper-summarizer/internal/domain/summarizer"
	"github.com/yanqian/paper-summarizer/internal/infra/config"
	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
)

func TestRouter_Health(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{})

	recorder := performRequest(server, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "Server is running", body["message"])
	require.Equal(t, "bart", body["variant"])
	require.Equal(t, "cpu", body["device"])
	require.Equal(t, "float32", body["dtype"])
	require.NotEmpty(t, recorder.Header().Get(requestIDHeader))
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRouter_SummarizeSuccess(t *testing.T) {
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			require.Equal(t, "hello world, this is text", req.Text)
			require.Equal(t, 100, req.MaxLength)
			require.Equal(t, 0, req.MinLength)
			return summarizer.Response{Summary: "short summary"}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{summarizer: svc})

	recorder := performRequest(server, http.MethodPost, "/api/summarize", `{"text":"hello world, this is text","max_length":100}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "short summary", got.Summary)
}

func TestRouter_SummarizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "malformed body",
			body:       `{"text":123}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
			wantDetail: msgInvalidBody,
		},
		{
			name:       "text too short",
			body:       `{"text":"hi"}`,
			err:        apperrors.Wrap(apperrors.CodeInvalidInput, summarizer.MsgTextTooShort, nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
			wantDetail: "Text is too short or empty",
		},
		{
			name:       "invalid generation",
			body:       `{"text":"long enough text"}`,
			err:        apperrors.Wrap(apperrors.CodeGenerationFailed, summarizer.MsgInvalidSummary, nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeGenerationFailed,
			wantDetail: "Failed to generate a valid summary.",
		},
		{
			name:       "model busy",
			body:       `{"text":"long enough text"}`,
			err:        apperrors.Wrap(apperrors.CodeModelBusy, summarizer.MsgModelBusy, inference.ErrBusy),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeModelBusy,
			wantDetail: summarizer.MsgModelBusy,
		},
		{
			name:       "unclassified error hides detail",
			body:       `{"text":"long enough text"}`,
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
			wantDetail: msgInternal,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSummarizer{
				summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
					return summarizer.Response{}, tt.err
				},
			}
			server := newRouterUnderTest(t, routerDeps{summarizer: svc})

			recorder := performRequest(server, http.MethodPost, "/api/summarize", tt.body)
			require.Equal(t, tt.wantStatus, recorder.Code)
			body := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tt.wantCode, body["code"])
			require.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestRouter_SummarizePaper(t *testing.T) {
	svc := &stubPaper{
		summarizeFn: func(ctx context.Context, id string) (paper.Summary, error) {
			require.Equal(t, "/hep-th/9901001", id)
			return paper.Summary{PaperID: "hep-th/9901001", Summary: "A string theory paper.", Pages: 12}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{paper: svc})

	recorder := performRequest(server, http.MethodGet, "/api/summarize-paper/hep-th/9901001", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got paper.Summary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "A string theory paper.", got.Summary)
	require.Equal(t, 12, got.Pages)
}

func TestRouter_SummarizePaperErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "not found", err: apperrors.Wrap(apperrors.CodeNotFound, paper.MsgPDFNotFound, apperrors.ErrNotFound), wantStatus: http.StatusNotFound, wantDetail: "PDF not found"},
		{name: "extraction", err: apperrors.Wrap(apperrors.CodeExtractionFailed, paper.MsgExtractionFailed, nil), wantStatus: http.StatusInternalServerError, wantDetail: "Failed to extract text"},
		{name: "generation", err: apperrors.Wrap(apperrors.CodeInternal, summarizer.MsgDocGenerateFailed, nil), wantStatus: http.StatusInternalServerError, wantDetail: "Failed to generate summary."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPaper{
				summarizeFn: func(ctx context.Context, id string) (paper.Summary, error) {
					return paper.Summary{}, tt.err
				},
			}
			server := newRouterUnderTest(t, routerDeps{paper: svc})

			recorder := performRequest(server, http.MethodGet, "/api/summarize-paper/1234.5678", "")
			require.Equal(t, tt.wantStatus, recorder.Code)
			require.Equal(t, tt.wantDetail, decodeErrorBody(t, recorder.Body.Bytes())["detail"])
		})
	}
}

func TestRouter_StreamPDF(t *testing.T) {
	content := []byte("%PDF-1.5 bytes")
	svc := &stubPaper{
		fetchFn: func(ctx context.Context, id string) (paper.Document, error) {
			require.Equal(t, "/1706.03762.pdf", id)
			return paper.Document{PaperID: "1706.03762", Filename: "1706.03762.pdf", Content: content}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{paper: svc})

	recorder := performRequest(server, http.MethodGet, "/api/pdf/1706.03762.pdf", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "application/pdf", recorder.Header().Get("Content-Type"))
	require.Equal(t, "inline; filename=1706.03762.pdf", recorder.Header().Get("Content-Disposition"))
	require.Equal(t, "14", recorder.Header().Get("Content-Length"))
	require.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	require.Equal(t, content, recorder.Body.Bytes())
}

func TestRouter_StreamPDFNotFound(t *testing.T) {
	svc := &stubPaper{
		fetchFn: func(ctx context.Context, id string) (paper.Document, error) {
			return paper.Document{}, apperrors.Wrap(apperrors.CodeNotFound, paper.MsgPDFNotFound, apperrors.ErrNotFound)
		},
	}
	server := newRouterUnderTest(t, routerDeps{paper: svc})

	recorder := performRequest(server, http.MethodGet, "/api/pdf/0000.00000", "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	body := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "PDF not found", body["detail"])
	require.Equal(t, apperrors.CodeNotFound, body["code"])
}

func TestRouter_Search(t *testing.T) {
	svc := &stubCatalog{
		searchFn: func(ctx context.Context, req catalog.SearchRequest) (catalog.SearchResponse, error) {
			require.Equal(t, catalog.SearchRequest{Query: "graph neural", Start: 10, Max: 5}, req)
			return catalog.SearchResponse{Results: []catalog.Entry{{ID: "1812.08434"}}, Total: 1, Start: 10}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{catalog: svc})

	recorder := performRequest(server, http.MethodGet, "/api/search?q=graph+neural&start=10&max=5", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got catalog.SearchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, 1, got.Total)
	require.Equal(t, "1812.08434", got.Results[0].ID)
}

func TestRouter_CatalogOutageIsBadGateway(t *testing.T) {
	svc := &stubCatalog{
		searchFn: func(ctx context.Context, req catalog.SearchRequest) (catalog.SearchResponse, error) {
			return catalog.SearchResponse{}, apperrors.Wrap(apperrors.CodeFetchFailed, catalog.MsgIndexFailed, io.EOF)
		},
	}
	server := newRouterUnderTest(t, routerDeps{catalog: svc})

	recorder := performRequest(server, http.MethodGet, "/api/search?q=x", "")
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	recorder = performRequest(server, http.MethodGet, "/api/search?q=x&max=ten", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_Lookup(t *testing.T) {
	svc := &stubCatalog{
		lookupFn: func(ctx context.Context, id string) (catalog.Entry, error) {
			require.Equal(t, "/1706.03762", id)
			return catalog.Entry{ID: "1706.03762", Title: "Attention Is All You Need"}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{catalog: svc})

	recorder := performRequest(server, http.MethodGet, "/api/papers/1706.03762", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got catalog.Entry
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "Attention Is All You Need", got.Title)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/summarize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	server := NewRouter(cfg, newTestHandler(routerDeps{}), newTestLogger())

	require.Equal(t, http.StatusOK, performRequest(server, http.MethodGet, "/", "").Code)
	require.Equal(t, http.StatusOK, performRequest(server, http.MethodGet, "/", "").Code)

	recorder := performRequest(server, http.MethodGet, "/", "")
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, codeRateLimited, decodeErrorBody(t, recorder.Body.Bytes())["code"])
}

func TestRouter_StaticAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "viewer.html"), []byte("<html>viewer</html>"), 0o600))
	cfg := testConfig()
	cfg.HTTP.StaticDir = dir
	cfg.HTTP.StaticPrefix = "/pdfjs"
	server := NewRouter(cfg, newTestHandler(routerDeps{}), newTestLogger())

	recorder := performRequest(server, http.MethodGet, "/pdfjs/viewer.html", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "viewer")
}

func performRequest(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

type routerDeps struct {
	summarizer summarizer.Service
	paper      paper.Service
	catalog    catalog.Service
}

func newRouterUnderTest(t *testing.T, deps routerDeps) *http.Server {
	t.Helper()
	return NewRouter(testConfig(), newTestHandler(deps), newTestLogger())
}

func newTestHandler(deps routerDeps) *Handler {
	if deps.summarizer == nil {
		deps.summarizer = &stubSummarizer{}
	}
	if deps.paper == nil {
		deps.paper = &stubPaper{}
	}
	if deps.catalog == nil {
		deps.catalog = &stubCatalog{}
	}
	model := stubModel{status: inference.Status{Model: "facebook/bart-large-cnn", Variant: "bart", Backend: "hf", Device: "cpu", DType: "float32"}}
	return NewHandler(deps.summarizer, deps.paper, deps.catalog, model, newTestLogger())
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			AllowedOrigins: []string{"*"},
		},
	}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubModel struct {
	status inference.Status
}

func (s stubModel) Status() inference.Status { return s.status }

type stubSummarizer struct {
	summarizeFn func(ctx context.Context, req summarizer.Request) (summarizer.Response, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

func (s *stubSummarizer) SummarizeDocument(context.Context, string) (summarizer.DocumentSummary, error) {
	return summarizer.DocumentSummary{}, nil
}

type stubPaper struct {
	summarizeFn func(ctx context.Context, id string) (paper.Summary, error)
	fetchFn     func(ctx context.Context, id string) (paper.Document, error)
}

func (s *stubPaper) Summarize(ctx context.Context, id string) (paper.Summary, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, id)
	}
	return paper.Summary{}, nil
}

func (s *stubPaper) FetchPDF(ctx context.Context, id string) (paper.Document, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx, id)
	}
	return paper.Document{}, nil
}

type stubCatalog struct {
	searchFn func(ctx context.Context, req catalog.SearchRequest) (catalog.SearchResponse, error)
	lookupFn func(ctx context.Context, id string) (catalog.Entry, error)
}

func (s *stubCatalog) Search(ctx context.Context, req catalog.SearchRequest) (catalog.SearchResponse, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, req)
	}
	return catalog.SearchResponse{}, nil
}

func (s *stubCatalog) Lookup(ctx context.Context, id string) (catalog.Entry, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, id)
	}
	return catalog.Entry{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
