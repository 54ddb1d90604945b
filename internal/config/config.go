// Package config holds the user settings of mdecd: when formatting runs and
// where the server logs. Settings come from a TOML file and can be changed
// at runtime by the LSP client.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDebounceDelay    = 300 * time.Millisecond
	DefaultApplyEditTimeout = 5 * time.Second
)

type Settings struct {
	// FormatOnTyping enables debounced passes while the document changes.
	FormatOnTyping bool
	// FormatOnBoundary enables passes when the editor leaves or saves a document.
	FormatOnBoundary bool
	DebounceDelay    time.Duration
	// ApplyEditTimeout bounds how long a pass waits for the client to
	// acknowledge a workspace/applyEdit request.
	ApplyEditTimeout time.Duration
	ExcludeDirs      []string
	Extensions       []string
	Log              LogSettings
}

type LogSettings struct {
	Level string
	// File is the log destination. Empty means standard error.
	File string
}

func Default() Settings {
	return Settings{
		FormatOnTyping:   false,
		FormatOnBoundary: true,
		DebounceDelay:    DefaultDebounceDelay,
		ApplyEditTimeout: DefaultApplyEditTimeout,
		ExcludeDirs:      []string{".git", "node_modules", ".obsidian"},
		Extensions:       []string{".md", ".markdown"},
		Log: LogSettings{
			Level: "info",
		},
	}
}

type fileSettings struct {
	FormatOnTyping   *bool    `toml:"format_on_typing"`
	FormatOnBoundary *bool    `toml:"format_on_boundary"`
	DebounceDelay    *int64   `toml:"debounce_delay"`
	ApplyEditTimeout *int64   `toml:"apply_edit_timeout"`
	ExcludeDirs      []string `toml:"exclude_dirs"`
	Extensions       []string `toml:"extensions"`
	Log              struct {
		Level *string `toml:"level"`
		File  *string `toml:"file"`
	} `toml:"log"`
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mdecd", "config.toml")
}

// Load reads the settings file at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	var file fileSettings
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return settings, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := settings.applyFile(file); err != nil {
		return settings, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

func (s *Settings) applyFile(f fileSettings) error {
	if f.FormatOnTyping != nil {
		s.FormatOnTyping = *f.FormatOnTyping
	}
	if f.FormatOnBoundary != nil {
		s.FormatOnBoundary = *f.FormatOnBoundary
	}
	if f.DebounceDelay != nil {
		if *f.DebounceDelay < 0 {
			return fmt.Errorf("debounce_delay must not be negative, got %d", *f.DebounceDelay)
		}
		s.DebounceDelay = time.Duration(*f.DebounceDelay) * time.Millisecond
	}
	if f.ApplyEditTimeout != nil {
		if *f.ApplyEditTimeout <= 0 {
			return fmt.Errorf("apply_edit_timeout must be positive, got %d", *f.ApplyEditTimeout)
		}
		s.ApplyEditTimeout = time.Duration(*f.ApplyEditTimeout) * time.Millisecond
	}
	if f.ExcludeDirs != nil {
		s.ExcludeDirs = f.ExcludeDirs
	}
	if len(f.Extensions) > 0 {
		s.Extensions = f.Extensions
	}
	if f.Log.Level != nil {
		s.Log.Level = *f.Log.Level
	}
	if f.Log.File != nil {
		s.Log.File = *f.Log.File
	}
	return nil
}

// ClientSettings is the "mdecd" section sent by LSP clients in
// initializationOptions and workspace/didChangeConfiguration.
type ClientSettings struct {
	FormatOnTyping   *bool   `json:"formatOnTyping"`
	FormatOnBoundary *bool   `json:"formatOnBoundary"`
	DebounceDelay    *int64  `json:"debounceDelay"`
	LogLevel         *string `json:"logLevel"`
}

type clientEnvelope struct {
	Mdecd *ClientSettings `json:"mdecd"`
}

// ParseClientSettings accepts either {"mdecd": {...}} or the bare section.
func ParseClientSettings(raw json.RawMessage) (ClientSettings, error) {
	var envelope clientEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ClientSettings{}, err
	}
	if envelope.Mdecd != nil {
		return *envelope.Mdecd, nil
	}

	var bare ClientSettings
	if err := json.Unmarshal(raw, &bare); err != nil {
		return ClientSettings{}, err
	}
	return bare, nil
}

// Merge returns s updated with the fields the client set. A negative delay
// is ignored.
func (s Settings) Merge(c ClientSettings) Settings {
	if c.FormatOnTyping != nil {
		s.FormatOnTyping = *c.FormatOnTyping
	}
	if c.FormatOnBoundary != nil {
		s.FormatOnBoundary = *c.FormatOnBoundary
	}
	if c.DebounceDelay != nil && *c.DebounceDelay >= 0 {
		s.DebounceDelay = time.Duration(*c.DebounceDelay) * time.Millisecond
	}
	if c.LogLevel != nil {
		s.Log.Level = *c.LogLevel
	}
	return s
}
