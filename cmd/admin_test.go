package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dltrace/config"
	"dltrace/historydb"
)

// recordRun analyzes the env trace once and returns the short run id shown
// by history list.
func recordRun(t *testing.T, env *testEnv) string {
	t.Helper()
	if _, stderr, err := env.run(t, "", "analyze", env.tracePath); err != nil {
		t.Fatalf("analyze failed: %v\nstderr: %s", err, stderr)
	}
	out, _, err := env.run(t, "", "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("history list shows no runs:\n%s", out)
	}
	return strings.Fields(lines[1])[0]
}

func TestHistoryListShowDelete(t *testing.T) {
	env := newTestEnv(t)
	id := recordRun(t, env)

	out, _, err := env.run(t, "", "history", "show", id)
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	for _, want := range []string{"Run:", id, "big.iso", "Workers:        2", "Tasks:          3", "Recommendations:", "STATUS"} {
		if !strings.Contains(out, want) {
			t.Errorf("history show missing %q:\n%s", want, out)
		}
	}

	out, _, err = env.run(t, "", "history", "delete", id)
	if err != nil {
		t.Fatalf("history delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted run "+id) {
		t.Errorf("unexpected delete output: %s", out)
	}

	out, _, err = env.run(t, "", "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("run still listed after delete:\n%s", out)
	}

	_, _, err = env.run(t, "", "history", "show", id)
	if !historydb.IsRecordNotFound(err) {
		t.Errorf("show after delete error = %v, want record not found", err)
	}
}

func TestHistoryErrorHints(t *testing.T) {
	env := newTestEnv(t)
	recordRun(t, env)

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
		hint  string
	}{
		{"unknown run", []string{"history", "show", "zzzzzzzz"}, historydb.IsRecordNotFound, "no recorded run matches"},
		{"empty run id", []string{"history", "show", ""}, historydb.IsValidationError, "invalid run id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(t, "", tt.args...)
			if !tt.check(err) {
				t.Fatalf("error = %v, wrong kind", err)
			}
			if !strings.HasPrefix(err.Error(), tt.hint) {
				t.Errorf("error = %q, want prefix %q", err, tt.hint)
			}
		})
	}
}

func TestHistoryUnusableDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Database.Path = filepath.Join(env.dir, "db-is-a-dir")
	if err := os.MkdirAll(env.cfg.Database.Path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := config.SaveConfig(filepath.Join(env.configDir, config.ConfigFileName), env.cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	_, _, err := env.run(t, "", "history", "list")
	if !historydb.IsDatabaseError(err) {
		t.Fatalf("error = %v, want a database error", err)
	}
	if !strings.Contains(err.Error(), "History_enabled = false") {
		t.Errorf("error = %q, want the History_enabled hint", err)
	}
}

func TestHistoryNoHistoryFlag(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.run(t, "", "analyze", env.tracePath, "--no-history"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	out, _, err := env.run(t, "", "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("--no-history run was recorded:\n%s", out)
	}
}

func TestHistoryBackup(t *testing.T) {
	env := newTestEnv(t)
	recordRun(t, env)

	out, _, err := env.run(t, "", "history", "backup")
	if err != nil {
		t.Fatalf("history backup failed: %v", err)
	}
	backup := env.cfg.Database.Path + ".backup"
	if !strings.Contains(out, backup) {
		t.Errorf("backup path not reported: %s", out)
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestHistoryReset(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantOut    string
		wantExists bool
	}{
		{"cancelled", "n\n", nil, "Cancelled", true},
		{"confirmed", "yes\n", nil, "reset successfully", false},
		{"yes flag", "", []string{"--yes"}, "reset successfully", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			recordRun(t, env)

			args := append([]string{"history", "reset"}, tt.args...)
			out, _, err := env.run(t, tt.stdin, args...)
			if err != nil {
				t.Fatalf("history reset failed: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
			_, statErr := os.Stat(env.cfg.Database.Path)
			if exists := statErr == nil; exists != tt.wantExists {
				t.Errorf("database exists = %v, want %v", exists, tt.wantExists)
			}
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.History.Enabled = false
	if err := config.SaveConfig(filepath.Join(env.configDir, config.ConfigFileName), env.cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, _, err := env.run(t, "", "analyze", env.tracePath); err != nil {
		t.Fatalf("analyze with history disabled failed: %v", err)
	}
	_, _, err := env.run(t, "", "history", "list")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("history list error = %v, want history disabled", err)
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	configDir := filepath.Join(dir, "config")

	out, _, err := execute(t, "", "-C", configDir, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	configFile := filepath.Join(configDir, config.ConfigFileName)
	for _, want := range []string{"Initializing dltrace environment", "Config: " + configFile, "History database:", "Initialization complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("init output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(configFile); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, _, err = execute(t, "", "-C", configDir, "init")
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init did not warn about the existing config:\n%s", out)
	}

	out, _, err = execute(t, "", "-C", configDir, "init", "--force")
	if err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if !strings.Contains(out, "Config: "+configFile) {
		t.Errorf("init --force did not rewrite the config:\n%s", out)
	}
}

func TestStatusCommand(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"=== dltrace Status ===", env.cfg.Database.Path, "Runs:          0"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}

	id := recordRun(t, env)
	out, _, err = env.run(t, "", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Runs:          1") || !strings.Contains(out, "Latest run:    "+id) ||
		!strings.Contains(out, "Latest trace:  unchanged") {
		t.Errorf("status does not show the recorded run:\n%s", out)
	}
}

func TestLogCommand(t *testing.T) {
	env := newTestEnv(t)
	recordRun(t, env)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"summary", []string{"--summary"}, "INFO"},
		{"grep", []string{"--grep", "Parsed"}, "Parsed 2 workers"},
		{"tail", []string{"--tail", "2"}, "dltrace analyzer log"},
		{"full", nil, "ANALYSIS SUMMARY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := env.run(t, "", append([]string{"log"}, tt.args...)...)
			if err != nil {
				t.Fatalf("log failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("log output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestLogCommandDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.LogFile = ""
	if err := config.SaveConfig(filepath.Join(env.configDir, config.ConfigFileName), env.cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	_, _, err := env.run(t, "", "log")
	if !errors.Is(err, ErrNoLogFile) {
		t.Errorf("error = %v, want ErrNoLogFile", err)
	}
}
