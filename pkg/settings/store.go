package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes Settings at a fixed path. It holds no settings of
// its own; callers serialize access to the file.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a Store backed by path. An empty path means DefaultPath.
// A nil logger falls back to slog.Default().
func NewStore(path string, log *slog.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = slog.Default()
	}

	return &Store{path: path, log: log.With("component", "settings", "path", path)}
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load returns the persisted settings. The parent directory is created if
// missing; the file itself never is. A missing file yields Defaults. Each
// known field is read on its own: absent, null or wrongly typed fields keep
// their defaults and unknown fields are ignored. A file that is not a JSON
// object is logged and yields Defaults.
func (s *Store) Load() Settings {
	cfg, err := s.load()
	if err != nil {
		s.log.Warn("could not load settings, using defaults", "error", err)
		return Defaults()
	}

	return cfg
}

// Save overwrites the file with cfg, all fields included. Failures are logged.
func (s *Store) Save(cfg Settings) {
	if err := s.save(cfg); err != nil {
		s.log.Error("could not save settings", "error", err)
	}
}

// Clear deletes the file. A missing file is not an error. Failures are logged.
func (s *Store) Clear() {
	if err := s.clear(); err != nil {
		s.log.Error("could not clear settings", "error", err)
	}
}

// --- persistence ---

func (s *Store) load() (Settings, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return Settings{}, fmt.Errorf("settings: create dir: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}

		return Settings{}, fmt.Errorf("settings: read file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Settings{}, errors.New("settings: parse file: not a JSON object")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Settings{}, fmt.Errorf("settings: parse file: %w", err)
	}

	cfg := Defaults()
	var skipped []string
	for _, err := range []error{
		decodeField(raw, "apiKey", &cfg.APIKey),
		decodeField(raw, "maxTokens", &cfg.MaxTokens),
		decodeField(raw, "verbosity", &cfg.Verbosity),
		decodeField(raw, "reasoning", &cfg.Reasoning),
		decodeField(raw, "systemPrompt", &cfg.SystemPrompt),
	} {
		var fe *fieldError
		if errors.As(err, &fe) {
			skipped = append(skipped, fe.name)
		}
	}
	if len(skipped) > 0 {
		s.log.Warn("unreadable settings fields, defaults kept", "fields", skipped)
	}

	cfg, reset := cfg.sanitize()
	if len(reset) > 0 {
		s.log.Warn("settings out of range, defaults substituted", "fields", reset)
	}

	return cfg, nil
}

type fieldError struct {
	name string
	err  error
}

func (e *fieldError) Error() string { return fmt.Sprintf("settings: field %s: %v", e.name, e.err) }

func (e *fieldError) Unwrap() error { return e.err }

// decodeField sets *dst from raw[name]. Absent or null fields leave *dst
// untouched; a value of the wrong type does too and is reported.
func decodeField[T any](raw map[string]json.RawMessage, name string, dst *T) error {
	v, ok := raw[name]
	if !ok || string(bytes.TrimSpace(v)) == "null" {
		return nil
	}

	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return &fieldError{name: name, err: err}
	}
	*dst = out

	return nil
}

func (s *Store) save(cfg Settings) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mineclanker-*.tmp")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("settings: write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("settings: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("settings: rename temp file: %w", err)
	}

	return nil
}

func (s *Store) clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("settings: remove file: %w", err)
	}

	return nil
}
