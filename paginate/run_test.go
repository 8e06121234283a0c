package paginate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"slidefit/config"
	"slidefit/generate"
	"slidefit/slides"
	"slidefit/state"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func runPaginate(ctx context.Context, args ...string) error {
	cmd := &cli.Command{
		Name:   "paginate",
		Action: Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "subtitle"},
			&cli.StringFlag{Name: "charset"},
			&cli.BoolFlag{Name: "from-json"},
			&cli.BoolFlag{Name: "overwrite"},
		},
	}
	return cmd.Run(ctx, append([]string{"paginate"}, args...))
}

func readSlides(t *testing.T, path string) []slides.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var out []slides.Record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return out
}

func TestRun_FromJSON(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "generated.json")
	records := []generate.Record{
		{Type: "cover", Title: "Hello World", Category: "Demo"},
		{Type: "content", Content: []string{"## Part", longParagraph(25)}},
	}
	data, _ := json.Marshal(records)
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := runPaginate(ctx, "--from-json", src, dir); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := readSlides(t, filepath.Join(dir, "hello-world.json"))
	if len(out) < 3 || !out[0].IsCover() || out[0].TotalPages != len(out)-1 {
		t.Errorf("output = %+v", out)
	}

	// refuses to overwrite
	if err := runPaginate(ctx, "--from-json", src, dir); err == nil {
		t.Error("Expected error for existing destination")
	}
	if err := runPaginate(ctx, "--from-json", "--overwrite", src, dir); err != nil {
		t.Errorf("Run() with --overwrite error = %v", err)
	}
}

func TestRun_Generate(t *testing.T) {
	ctx, env := setupTestEnv(t)

	var got generate.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[{"type":"content","content":["First sentence. Second sentence."]}]`))
	}))
	defer srv.Close()
	env.Cfg.Generation.Endpoint = srv.URL

	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	if err := os.WriteFile(src, []byte("raw notes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.json")

	if err := runPaginate(ctx, "--title", "My deck", src, dst); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Text != "raw notes" || got.Title != "My deck" {
		t.Errorf("generation request = %+v", got)
	}

	out := readSlides(t, dst)
	if len(out) != 2 {
		t.Fatalf("output = %+v", out)
	}
	if out[0].Title != "My deck" || out[0].Subtitle != "Subtitle" {
		t.Errorf("synthesized cover = %+v", out[0])
	}
	if out[1].Category != "Category" || len(out[1].Content) != 1 {
		t.Errorf("content slide = %+v", out[1])
	}
}

func TestRun_GenerationFailure(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"text is too short"}`))
	}))
	defer srv.Close()
	env.Cfg.Generation.Endpoint = srv.URL

	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.json")

	err := runPaginate(ctx, src, dst)
	se, ok := generate.IsStatusError(err)
	if !ok || se.Message != "text is too short" {
		t.Fatalf("Run() error = %v, want status error", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("No output expected on failure")
	}
}

func TestRun_DebugReport(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()

	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	env.Rpt = rpt

	src := filepath.Join(dir, "generated.json")
	if err := os.WriteFile(src, []byte(`[{"type":"content","content":["Hello."]}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := runPaginate(ctx, "--from-json", src, filepath.Join(dir, "out.json")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("report Close() error = %v", err)
	}
	if fi, err := os.Stat(rpt.Name()); err != nil || fi.Size() == 0 {
		t.Errorf("report was not written: %v", err)
	}
}

func TestRun_NoSource(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	if err := runPaginate(ctx); err == nil {
		t.Error("Expected error without source")
	}
}
