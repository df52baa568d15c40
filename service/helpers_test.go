package service

import (
	"os"
	"path/filepath"
	"testing"

	"dltrace/config"
	"dltrace/log"
)

const sampleTrace = `[2026-02-15 10:00:00] Probe complete - filename: big.iso, size: 31457280
[2026-02-15 10:00:00] Worker 0 started
[2026-02-15 10:00:00] Worker 1 started
[2026-02-15 10:00:02] Worker 0: Task offset=0 length=10485760 took 2s
[2026-02-15 10:00:04] Worker 0: Task offset=10485760 length=10485760 took 2s
[2026-02-15 10:00:10] Worker 1: Task offset=20971520 length=10485760 took 10s
[2026-02-15 10:00:11] Health: Worker 1 slow
[2026-02-15 10:00:12] Balancer: split largest task (total splits: 3)
[2026-02-15 10:00:20] Worker 0 finished
[2026-02-15 10:00:20] Worker 1 finished
[2026-02-15 10:00:20] Download big.iso completed in 20s (1.50 MB/s)
`

// createTestConfig returns a configuration rooted in tmpDir with history
// enabled and file logging off.
func createTestConfig(tmpDir string) *config.Config {
	cfg := config.Default()
	cfg.StateDir = filepath.Join(tmpDir, "state")
	cfg.ChartDir = filepath.Join(tmpDir, "charts")
	cfg.Database.Path = filepath.Join(cfg.StateDir, "history.db")
	cfg.ChartsEnabled = false
	return cfg
}

// newTestService creates a service backed by a MemoryLogger.
func newTestService(t *testing.T, cfg *config.Config) (*Service, *log.MemoryLogger) {
	t.Helper()
	mem := log.NewMemoryLogger()
	svc, err := NewService(cfg, mem)
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, mem
}

// writeTrace writes content to a trace file in dir.
func writeTrace(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "debug.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}
	return path
}
