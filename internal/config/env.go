package config

import (
	"strings"
)

// Environment variables that override the file. They are applied after the
// file, so a variable always wins.
const (
	EnvBaseURL   = "KEYPRINT_BASE_URL"
	EnvSource    = "KEYPRINT_SOURCE"
	EnvDevice    = "KEYPRINT_DEVICE"
	EnvHistoryDB = "KEYPRINT_HISTORY_DB"
	EnvLogLevel  = "KEYPRINT_LOG_LEVEL"
	EnvLogPath   = "KEYPRINT_LOG_PATH"
)

// ApplyEnv overlays the KEYPRINT_* variables found by lookup onto cfg and
// validates the result. It reports the names it applied.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) ([]string, error) {
	var applied []string
	set := func(name string, dst *string, normalize func(string) string) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		if normalize != nil {
			v = normalize(v)
		}
		*dst = v
		applied = append(applied, name)
	}

	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	set(EnvBaseURL, &cfg.Server.BaseURL, strings.TrimSpace)
	set(EnvSource, &cfg.Capture.Source, lower)
	set(EnvDevice, &cfg.Capture.Device, strings.TrimSpace)
	set(EnvHistoryDB, &cfg.History.DBPath, strings.TrimSpace)
	set(EnvLogLevel, &cfg.Log.Level, lower)
	set(EnvLogPath, &cfg.Log.Path, strings.TrimSpace)

	if len(applied) == 0 {
		return nil, nil
	}
	return applied, validate(cfg)
}
