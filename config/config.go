package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// ConfigFileName is the ini file looked up inside the config directory.
const ConfigFileName = "dltrace.ini"

// Config holds dltrace configuration
type Config struct {
	Profile  string
	StateDir string
	ChartDir string
	LogFile  string

	// Anomaly thresholds
	SlowTaskMultiplier float64
	SpeedVarianceRatio float64
	IdleThreshold      time.Duration
	LowUtilizationPct  float64
	SplitThreshold     int

	// Analysis parameters
	BucketCount       int
	ImpactWindow      time.Duration
	ImpactScope       string
	TopSlowTasks      int
	SlowTaskListLimit int

	ChartsEnabled bool
	Color         string // auto, always, never
	Debug         bool

	// History settings
	History struct {
		Enabled bool // Default: true
	}

	// Database settings
	Database struct {
		Path string // Default: ${StateDir}/history.db
	}

	// ConfigFile is the file the values were read from, empty when the
	// defaults were used.
	ConfigFile string
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		SlowTaskMultiplier: 2.0,
		SpeedVarianceRatio: 3.0,
		IdleThreshold:      5 * time.Second,
		LowUtilizationPct:  70,
		SplitThreshold:     30,
		BucketCount:        20,
		ImpactWindow:       10 * time.Second,
		ImpactScope:        "worker",
		TopSlowTasks:       3,
		SlowTaskListLimit:  10,
		ChartsEnabled:      true,
		Color:              "auto",
	}
	cfg.History.Enabled = true
	return cfg
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/dltrace or its platform
// equivalent.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dltrace")
	}
	return ""
}

// DefaultStateDir returns $XDG_STATE_HOME/dltrace, falling back to
// ~/.local/state/dltrace.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "dltrace")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "dltrace")
	}
	return filepath.Join(os.TempDir(), "dltrace")
}

// LoadConfig loads configuration from file. An empty configDir means
// DefaultConfigDir. A missing file is not an error: the defaults are used,
// and a warning is printed when configDir was given explicitly.
func LoadConfig(configDir, profile string) (*Config, error) {
	cfg := Default()
	cfg.Profile = profile

	explicit := configDir != ""
	if !explicit {
		configDir = DefaultConfigDir()
	}
	configFile := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configFile); err == nil {
		iniFile, err := ini.Load(configFile)
		if err != nil {
			return nil, &ConfigError{File: configFile, Err: fmt.Errorf("failed to load config file: %w", err)}
		}
		cfg.ConfigFile = configFile

		globalSec := iniFile.Section("Global Configuration")

		// If no profile specified, read it from the global section
		if cfg.Profile == "" || cfg.Profile == "default" {
			if key := globalSec.Key("profile_selected"); key.String() != "" {
				cfg.Profile = key.String()
			}
		}

		// Global values first, then the profile overrides them
		if err := cfg.loadFromSection(globalSec); err != nil {
			return nil, err
		}
		if cfg.Profile != "" && cfg.Profile != "default" && iniFile.HasSection(cfg.Profile) {
			if err := cfg.loadFromSection(iniFile.Section(cfg.Profile)); err != nil {
				return nil, err
			}
		}
	} else if explicit {
		fmt.Fprintf(os.Stderr, "Warning: No config file found at %s, using defaults\n", configFile)
	}

	cfg.applyPathDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPathDefaults fills unset paths relative to the state directory.
func (cfg *Config) applyPathDefaults() {
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir()
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.StateDir, "history.db")
	}
	if cfg.ChartDir == "" {
		cfg.ChartDir = "."
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(cfg.StateDir, cfg.LogFile)
	}
}

// Validate checks the enumerated and bounded settings.
func (cfg *Config) Validate() error {
	switch cfg.Color {
	case "auto", "always", "never":
	default:
		return &ConfigError{Key: "Color", Value: cfg.Color, Err: ErrInvalidValue}
	}
	switch cfg.ImpactScope {
	case "worker", "fleet":
	default:
		return &ConfigError{Key: "Impact_scope", Value: cfg.ImpactScope, Err: ErrInvalidValue}
	}
	if cfg.BucketCount < 1 {
		return &ConfigError{Key: "Bucket_count", Value: strconv.Itoa(cfg.BucketCount), Err: ErrInvalidValue}
	}
	return nil
}

// loadFromSection loads config values from an INI section
func (cfg *Config) loadFromSection(sec *ini.Section) error {
	// Skip if section is nil
	if sec == nil {
		return nil
	}

	// Directory paths
	if key := sec.Key("Directory_state"); key.String() != "" {
		cfg.StateDir = key.String()
	}
	if key := sec.Key("Chart_dir"); key.String() != "" {
		cfg.ChartDir = key.String()
	}
	if key := sec.Key("Log_file"); key.String() != "" {
		cfg.LogFile = key.String()
	}

	// Thresholds
	floats := []struct {
		name string
		dst  *float64
	}{
		{"Slow_task_multiplier", &cfg.SlowTaskMultiplier},
		{"Speed_variance_ratio", &cfg.SpeedVarianceRatio},
		{"Low_utilization_pct", &cfg.LowUtilizationPct},
	}
	for _, f := range floats {
		if !sec.HasKey(f.name) {
			continue
		}
		v, err := sec.Key(f.name).Float64()
		if err != nil || v <= 0 {
			return &ConfigError{Key: f.name, Value: sec.Key(f.name).String(), Err: ErrInvalidValue}
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"Split_threshold", &cfg.SplitThreshold},
		{"Bucket_count", &cfg.BucketCount},
		{"Top_slow_tasks", &cfg.TopSlowTasks},
		{"Slow_task_list_limit", &cfg.SlowTaskListLimit},
	}
	for _, i := range ints {
		if !sec.HasKey(i.name) {
			continue
		}
		n, err := sec.Key(i.name).Int()
		if err != nil || n < 0 {
			return &ConfigError{Key: i.name, Value: sec.Key(i.name).String(), Err: ErrInvalidValue}
		}
		*i.dst = n
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"Idle_threshold", &cfg.IdleThreshold},
		{"Impact_window", &cfg.ImpactWindow},
	}
	for _, d := range durations {
		if !sec.HasKey(d.name) {
			continue
		}
		v, err := parseDuration(sec.Key(d.name).String())
		if err != nil || v <= 0 {
			return &ConfigError{Key: d.name, Value: sec.Key(d.name).String(), Err: ErrInvalidValue}
		}
		*d.dst = v
	}

	if key := sec.Key("Impact_scope"); key.String() != "" {
		cfg.ImpactScope = strings.ToLower(key.String())
	}
	if key := sec.Key("Color"); key.String() != "" {
		cfg.Color = strings.ToLower(key.String())
	}

	// Boolean options
	if sec.HasKey("Charts_enabled") {
		cfg.ChartsEnabled = parseBool(sec.Key("Charts_enabled").String())
	}
	if sec.HasKey("History_enabled") {
		cfg.History.Enabled = parseBool(sec.Key("History_enabled").String())
	}
	if sec.HasKey("Debug") {
		cfg.Debug = parseBool(sec.Key("Debug").String())
	}

	// Database settings
	if key := sec.Key("Database_path"); key.String() != "" {
		cfg.Database.Path = key.String()
	}
	return nil
}

// parseDuration accepts Go durations ("5s", "1m30s") or bare seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseBool(s string) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	// Handle yes/no
	switch strings.ToLower(s) {
	case "yes", "on":
		return true
	}
	return false
}
