package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type versionRunner struct {
	stdout string
	err    error
	calls  int
}

func (r *versionRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	r.calls++
	return []byte(r.stdout), nil, r.err
}

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), nil, reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
	if missing := Missing(results); len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}
}

func TestCheckBinariesCapturesVersion(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg")
	runner := &versionRunner{stdout: "\nffmpeg version 6.1.1\nbuilt with gcc\n"}
	results := CheckBinaries(context.Background(), runner, []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, VersionArgs: []string{"-version"}},
	})
	if results[0].Version != "ffmpeg version 6.1.1" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}

	runner = &versionRunner{err: errors.New("exit status 1")}
	results = CheckBinaries(context.Background(), runner, []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, VersionArgs: []string{"-version"}},
	})
	if !results[0].Available || results[0].Detail == "" {
		t.Fatalf("expected available with probe detail, got %#v", results[0])
	}
}

func TestMissingIgnoresOptional(t *testing.T) {
	statuses := []Status{{Name: "a", Optional: true}, {Name: "b", Available: true}}
	if got := Missing(statuses); len(got) != 0 {
		t.Fatalf("expected none missing, got %v", got)
	}
}
