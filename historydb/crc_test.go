package historydb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileCRC(t *testing.T) {
	content := []byte("[2026-02-15 10:00:00] Worker 1 started\n")
	path := filepath.Join(t.TempDir(), "debug.log")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FileCRC(path)
	if err != nil {
		t.Fatalf("FileCRC failed: %v", err)
	}
	if got != TraceCRC(content) {
		t.Errorf("FileCRC = %08x, want %08x", got, TraceCRC(content))
	}
	if TraceCRC(content) == TraceCRC(append(content, '\n')) {
		t.Error("CRC should change with content")
	}

	if _, err := FileCRC(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("FileCRC should fail for missing file")
	}
}
