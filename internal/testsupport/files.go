package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const pdfHeader = "%PDF-1.4\n"

// WriteDocument writes a fake PDF of roughly size bytes to path, creating
// parent directories, and returns the exact content written.
func WriteDocument(t testing.TB, path string, size int64) []byte {
	t.Helper()

	body := []byte(pdfHeader)
	if pad := size - int64(len(body)); pad > 0 {
		body = append(body, bytes.Repeat([]byte("0"), int(pad))...)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return body
}
