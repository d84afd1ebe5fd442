package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// WriteResult describes what Write did.
type WriteResult int

const (
	WriteCreated WriteResult = iota
	WriteAlreadyExists
	WriteReplaced
)

// Encode renders cfg as TOML using the same section and key names Load reads.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	tf := tomlFile{
		Server:  &cfg.Server,
		Capture: &cfg.Capture,
		Display: &cfg.Display,
		History: &cfg.History,
		Log:     &cfg.Log,
	}
	if err := toml.NewEncoder(&buf).Encode(tf); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves cfg to path. An existing file is left alone unless force is
// set, in which case it is copied to path + ".bak" first. The write goes
// through a temp file and rename so a crash never leaves a partial config.
func Write(path string, cfg Config, force bool) (WriteResult, error) {
	existing, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if exists && !force {
		return WriteAlreadyExists, nil
	}

	data, err := Encode(cfg)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}

	if exists {
		bakPath := path + ".bak"
		if err := os.WriteFile(bakPath, existing, 0644); err != nil {
			return 0, fmt.Errorf("backing up %s: %w", path, err)
		}
	}

	if err := writeAtomic(path, data); err != nil {
		return 0, err
	}
	if exists {
		return WriteReplaced, nil
	}
	return WriteCreated, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("permission denied writing to %s", dir)
		}
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	_ = os.Chmod(tmpPath, mode)

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	tmpPath = ""

	return nil
}
