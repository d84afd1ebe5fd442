package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig
	Capture CaptureConfig
	Display DisplayConfig
	History HistoryConfig
	Log     LogConfig
}

type ServerConfig struct {
	BaseURL     string `toml:"base_url"`
	SaveLogPath string `toml:"save_log_path"`
	PredictPath string `toml:"predict_path"`
}

// SaveLogURL returns the absolute logging endpoint.
func (s ServerConfig) SaveLogURL() string {
	return joinURL(s.BaseURL, s.SaveLogPath)
}

// PredictURL returns the absolute prediction endpoint.
func (s ServerConfig) PredictURL() string {
	return joinURL(s.BaseURL, s.PredictPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

type CaptureConfig struct {
	Source   string `toml:"source"`
	Device   string `toml:"device"`
	Sentence string `toml:"sentence"`
}

type DisplayConfig struct {
	TimelineRows int  `toml:"timeline_rows"`
	ShowStats    bool `toml:"show_stats"`
}

type HistoryConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
	RecentLimit   int    `toml:"recent_limit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

const (
	SourceTerminal = "terminal"
	SourceEvdev    = "evdev"
)

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:5000",
			SaveLogPath: "/api/save_log",
			PredictPath: "/api/predict",
		},
		Capture: CaptureConfig{
			Source:   SourceTerminal,
			Sentence: "The quick brown fox jumps over the lazy dog.",
		},
		Display: DisplayConfig{
			TimelineRows: 8,
			ShowStats:    true,
		},
		History: HistoryConfig{
			DBPath:        "~/.local/share/keyprint/history.db",
			RetentionDays: 30,
			RecentLimit:   200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "keyprint", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultConfigPath())
}

func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := LoadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return result, nil
}

var knownTopLevel = map[string]bool{
	"server":  true,
	"capture": true,
	"display": true,
	"history": true,
	"log":     true,
}

func LoadFromString(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if data == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	Server  *ServerConfig  `toml:"server"`
	Capture *CaptureConfig `toml:"capture"`
	Display *DisplayConfig `toml:"display"`
	History *HistoryConfig `toml:"history"`
	Log     *LogConfig     `toml:"log"`
}

// mergeFromRaw copies only the keys present in the file, so an omitted key
// keeps its default even when its zero value would be valid.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Server != nil {
		if section, ok := rawSection(raw, "server"); ok {
			if _, exists := section["base_url"]; exists {
				cfg.Server.BaseURL = tf.Server.BaseURL
			}
			if _, exists := section["save_log_path"]; exists {
				cfg.Server.SaveLogPath = tf.Server.SaveLogPath
			}
			if _, exists := section["predict_path"]; exists {
				cfg.Server.PredictPath = tf.Server.PredictPath
			}
		}
	}
	if tf.Capture != nil {
		if section, ok := rawSection(raw, "capture"); ok {
			if _, exists := section["source"]; exists {
				cfg.Capture.Source = strings.ToLower(strings.TrimSpace(tf.Capture.Source))
			}
			if _, exists := section["device"]; exists {
				cfg.Capture.Device = tf.Capture.Device
			}
			if _, exists := section["sentence"]; exists {
				cfg.Capture.Sentence = tf.Capture.Sentence
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["timeline_rows"]; exists {
				cfg.Display.TimelineRows = tf.Display.TimelineRows
			}
			if _, exists := section["show_stats"]; exists {
				cfg.Display.ShowStats = tf.Display.ShowStats
			}
		}
	}
	if tf.History != nil {
		if section, ok := rawSection(raw, "history"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.History.DBPath = tf.History.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.History.RetentionDays = tf.History.RetentionDays
			}
			if _, exists := section["recent_limit"]; exists {
				cfg.History.RecentLimit = tf.History.RecentLimit
			}
		}
	}
	if tf.Log != nil {
		if section, ok := rawSection(raw, "log"); ok {
			if _, exists := section["level"]; exists {
				cfg.Log.Level = tf.Log.Level
			}
			if _, exists := section["format"]; exists {
				cfg.Log.Format = tf.Log.Format
			}
			if _, exists := section["path"]; exists {
				cfg.Log.Path = tf.Log.Path
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Validate reports every problem with cfg in one error.
func (c Config) Validate() error {
	return validate(&c)
}

func validate(cfg *Config) error {
	var errs []string

	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("server base_url must be an http(s) URL, got %q", cfg.Server.BaseURL))
	}
	if strings.TrimSpace(cfg.Server.SaveLogPath) == "" {
		errs = append(errs, "server save_log_path must not be empty")
	}
	if strings.TrimSpace(cfg.Server.PredictPath) == "" {
		errs = append(errs, "server predict_path must not be empty")
	}

	switch cfg.Capture.Source {
	case SourceTerminal:
	case SourceEvdev:
		if cfg.Capture.Device == "" {
			errs = append(errs, "capture device is required when source is \"evdev\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("capture source must be %q or %q, got %q", SourceTerminal, SourceEvdev, cfg.Capture.Source))
	}

	if cfg.Display.TimelineRows < 0 {
		errs = append(errs, fmt.Sprintf("timeline_rows must not be negative, got %d", cfg.Display.TimelineRows))
	}

	if cfg.History.RetentionDays <= 0 {
		errs = append(errs, fmt.Sprintf("history retention_days must be positive, got %d", cfg.History.RetentionDays))
	}
	if cfg.History.RecentLimit < 1 {
		errs = append(errs, fmt.Sprintf("history recent_limit must be positive, got %d", cfg.History.RecentLimit))
	}

	if _, err := NormalizeLogLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := NormalizeLogFormat(cfg.Log.Format); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeLogLevel canonicalizes a log level name.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeLogFormat canonicalizes a log format name.
func NormalizeLogFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "text", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
