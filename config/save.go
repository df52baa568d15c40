package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

// SaveConfig writes cfg to path as a [Global Configuration] section,
// creating parent directories as needed. cfg.ConfigFile is updated to path.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ConfigError{File: path, Err: fmt.Errorf("failed to create config directory: %w", err)}
	}

	f := ini.Empty()
	sec, err := f.NewSection("Global Configuration")
	if err != nil {
		return &ConfigError{File: path, Err: err}
	}

	values := []struct{ key, value string }{
		{"Directory_state", cfg.StateDir},
		{"Database_path", cfg.Database.Path},
		{"Chart_dir", cfg.ChartDir},
		{"Log_file", cfg.LogFile},
		{"Slow_task_multiplier", strconv.FormatFloat(cfg.SlowTaskMultiplier, 'g', -1, 64)},
		{"Speed_variance_ratio", strconv.FormatFloat(cfg.SpeedVarianceRatio, 'g', -1, 64)},
		{"Idle_threshold", cfg.IdleThreshold.String()},
		{"Low_utilization_pct", strconv.FormatFloat(cfg.LowUtilizationPct, 'g', -1, 64)},
		{"Split_threshold", strconv.Itoa(cfg.SplitThreshold)},
		{"Bucket_count", strconv.Itoa(cfg.BucketCount)},
		{"Impact_window", cfg.ImpactWindow.String()},
		{"Impact_scope", cfg.ImpactScope},
		{"Top_slow_tasks", strconv.Itoa(cfg.TopSlowTasks)},
		{"Slow_task_list_limit", strconv.Itoa(cfg.SlowTaskListLimit)},
		{"Charts_enabled", yesNo(cfg.ChartsEnabled)},
		{"History_enabled", yesNo(cfg.History.Enabled)},
		{"Color", cfg.Color},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		if _, err := sec.NewKey(v.key, v.value); err != nil {
			return &ConfigError{File: path, Key: v.key, Value: v.value, Err: err}
		}
	}

	if err := f.SaveTo(path); err != nil {
		return &ConfigError{File: path, Err: fmt.Errorf("failed to write config file: %w", err)}
	}
	cfg.ConfigFile = path
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
