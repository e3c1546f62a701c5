package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ghearing/internal/config"
	"ghearing/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "detector.py")
	if err := os.WriteFile(f, []byte("print('SEGMENTS: []')"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFile("script", f); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckFile("script", ""); !r.Skipped {
		t.Fatal("expected blank path to be skipped")
	}
	if r := CheckFile("script", filepath.Dir(f)); r.Passed {
		t.Fatal("expected directory to fail")
	}
}

func TestCheckRecognition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckRecognition(context.Background(), config.Recognition{APIToken: "tok", BaseURL: srv.URL})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	skipped := CheckRecognition(context.Background(), config.Recognition{BaseURL: srv.URL})
	if !skipped.Skipped || skipped.Passed {
		t.Fatalf("expected skip without token, got %+v", skipped)
	}
}

func TestCheckRecognitionAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	result := CheckRecognition(context.Background(), config.Recognition{APIToken: "bad", BaseURL: srv.URL})
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	result := CheckLLM(context.Background(), "LLM", config.Fallback{Enabled: true, APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if r := CheckLLM(context.Background(), "LLM", config.Fallback{Enabled: false}); !r.Skipped {
		t.Fatal("expected disabled fallback to be skipped")
	}
	if r := CheckLLM(context.Background(), "LLM", config.Fallback{Enabled: true}); r.Passed || r.Skipped {
		t.Fatalf("expected missing key failure, got %+v", r)
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	cfg.Detector.Script = ""

	results := RunAll(context.Background(), cfg, nil, false)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
}
