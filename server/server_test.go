package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"slidefit/config"
	"slidefit/generate"
	"slidefit/layout"
	"slidefit/paginate"
	"slidefit/slides"
)

type generatorFunc func(ctx context.Context, req generate.Request) (*generate.Response, error)

func (f generatorFunc) Generate(ctx context.Context, req generate.Request) (*generate.Response, error) {
	return f(ctx, req)
}

func newTestServer(t *testing.T, gen Generator, adjust func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if adjust != nil {
		adjust(cfg)
	}
	fonts, err := layout.LoadFonts("", "")
	if err != nil {
		t.Fatalf("LoadFonts() error = %v", err)
	}
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
	engine, err := paginate.NewEngine(cfg, fonts, log)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return New(&cfg.Server, engine, gen, log)
}

func do(s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeSlides(t *testing.T, rec *httptest.ResponseRecorder) []slides.Record {
	t.Helper()
	var out []slides.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unable to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unable to decode error envelope %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(s, http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthcheck = %d %s", rec.Code, rec.Body.String())
	}
}

func TestPaginateRecords(t *testing.T) {
	s := newTestServer(t, nil, nil)

	body := `[{"type":"cover","title":"Deck","category":"Notes"},{"type":"content","content":["## Part","Some text."]}]`
	rec := do(s, http.MethodPost, "/api/paginate?subtitle=Sub", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeSlides(t, rec)
	if len(out) != 2 {
		t.Fatalf("got %d slides, want 2", len(out))
	}
	if !out[0].IsCover() || out[0].Title != "Deck" {
		t.Errorf("cover = %+v", out[0])
	}
	if out[1].PageNumber != 1 || out[1].TotalPages != 1 || len(out[1].Content) != 2 {
		t.Errorf("content slide = %+v", out[1])
	}
}

func TestPaginateRecordsErrors(t *testing.T) {
	s := newTestServer(t, nil, func(cfg *config.Config) {
		cfg.Server.MaxBodySize = 64
	})

	rec := do(s, http.MethodPost, "/api/paginate", `{"not":"an array"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != CodeInvalidRequest || len(e.Message) == 0 {
		t.Errorf("error = %+v", e)
	}

	big := `[{"type":"content","content":["` + strings.Repeat("x", 200) + `"]}]`
	rec = do(s, http.MethodPost, "/api/paginate", big, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestGenerateSlides(t *testing.T) {
	var got generate.Request
	gen := generatorFunc(func(_ context.Context, req generate.Request) (*generate.Response, error) {
		got = req
		return &generate.Response{
			Records: []generate.Record{{Type: "content", Content: []string{"First sentence. Second sentence."}}},
			Cached:  true,
		}, nil
	})
	s := newTestServer(t, gen, nil)

	rec := do(s, http.MethodPost, "/api/slides", `{"text":"raw notes","title":"My deck"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.Text != "raw notes" || got.Title != "My deck" {
		t.Errorf("generation request = %+v", got)
	}
	if rec.Header().Get("X-Generation-Cache") != "hit" {
		t.Error("Expected cache hit header")
	}
	out := decodeSlides(t, rec)
	if len(out) != 2 || out[0].Title != "My deck" {
		t.Errorf("slides = %+v", out)
	}
}

func TestGenerateSlidesFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		status  int
		code    string
		message string
	}{
		{"missing text", `{"title":"x"}`, nil, http.StatusBadRequest, CodeInvalidRequest, ""},
		{"malformed body", `{"text":`, nil, http.StatusBadRequest, CodeInvalidRequest, ""},
		{"upstream rejects", `{"text":"a"}`, &generate.StatusError{Code: http.StatusUnprocessableEntity, Message: "too short"},
			http.StatusUnprocessableEntity, CodeGenerationFailed, "too short"},
		{"upstream fails", `{"text":"a"}`, &generate.StatusError{Code: http.StatusInternalServerError, Message: "boom"},
			http.StatusBadGateway, CodeGenerationFailed, "boom"},
		{"upstream times out", `{"text":"a"}`, context.DeadlineExceeded,
			http.StatusGatewayTimeout, CodeGenerationFailed, generate.DefaultErrorMessage},
		{"transport error", `{"text":"a"}`, errors.New("connection refused"),
			http.StatusBadGateway, CodeGenerationFailed, generate.DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := generatorFunc(func(context.Context, generate.Request) (*generate.Response, error) {
				if tt.err == nil {
					t.Error("Generator must not be called")
					return &generate.Response{}, nil
				}
				return nil, tt.err
			})
			s := newTestServer(t, gen, nil)
			rec := do(s, http.MethodPost, "/api/slides", tt.body, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			e := decodeError(t, rec)
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if len(tt.message) > 0 && e.Message != tt.message {
				t.Errorf("message = %q, want %q", e.Message, tt.message)
			}
		})
	}
}

func TestGenerateSlidesNotConfigured(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(s, http.MethodPost, "/api/slides", `{"text":"a"}`, nil)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	preflight := map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": http.MethodPost,
	}

	s := newTestServer(t, nil, nil)
	rec := do(s, http.MethodOptions, "/api/paginate", "", preflight)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	s = newTestServer(t, nil, func(cfg *config.Config) {
		cfg.Server.CORSOrigins = []string{"https://app.example"}
	})
	rec = do(s, http.MethodOptions, "/api/paginate", "", preflight)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	rec = do(s, http.MethodGet, "/healthcheck", "", map[string]string{"Origin": "https://other.example"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign origin status = %d, want 403", rec.Code)
	}
}

func TestServeShutdown(t *testing.T) {
	s := newTestServer(t, nil, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthcheck")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down")
	}
}
