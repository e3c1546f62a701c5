package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteMedia creates a placeholder upload of size bytes at path and returns
// the path. The content is not decodable media; tests fake ffmpeg.
func WriteMedia(t testing.TB, path string, size int) string {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x47}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
