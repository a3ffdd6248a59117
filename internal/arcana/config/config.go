package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Settings holds the values the client needs to talk to the CogniSys
// backend. They are resolved once at startup and treated as immutable for
// the lifetime of the session.
type Settings struct {
	APIKey  string
	BaseURL string
	UserID  string
}

// Config file keys. Each one resolves environment variable first, then the
// persisted config document, then the hardcoded default.
const (
	KeyAPIKey  = "api_key"
	KeyBaseURL = "base_url"
	KeyUserID  = "user_id"
)

const (
	envAPIKey  = "ARCANA_API_KEY"
	envBaseURL = "ARCANA_BASE_URL"
	envUserID  = "ARCANA_USER_ID"

	defaultBaseURL = "http://localhost:8000"
	defaultUserID  = "default-user"
)

// Keys lists every recognized config key in a stable order.
func Keys() []string {
	keys := []string{KeyAPIKey, KeyBaseURL, KeyUserID}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when a caller references a key the client does
// not recognize.
var ErrUnknownKey = errors.New("unknown config key")

func validateKey(key string) error {
	switch key {
	case KeyAPIKey, KeyBaseURL, KeyUserID:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
}

// DefaultPath returns the per-user location of the config document.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".arcana", "config.json"), nil
}

// Store persists settings as a flat key-value JSON document.
type Store struct {
	path string
}

// NewStore builds a store over the JSON document at path. The file is
// created lazily on the first Set.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}
	return &Store{path: path}, nil
}

// Load reads the whole document. A missing file is an empty document.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return values, nil
}

// Get returns the stored value for key; ok reports whether it was present.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	values, err := s.Load()
	if err != nil {
		return "", false, err
	}
	value, ok = values[key]
	return value, ok, nil
}

// Set writes key=value and persists the document.
func (s *Store) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	values, err := s.Load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Delete removes key from the document. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	values, err := s.Load()
	if err != nil {
		return err
	}
	delete(values, key)
	return s.write(values)
}

func (s *Store) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Resolve produces the effective settings: environment wins over the stored
// document, which wins over defaults.
func Resolve(store *Store) (Settings, error) {
	stored := map[string]string{}
	if store != nil {
		var err error
		stored, err = store.Load()
		if err != nil {
			return Settings{}, err
		}
	}
	pick := func(env, key, fallback string) string {
		if v := os.Getenv(env); v != "" {
			return v
		}
		if v := stored[key]; v != "" {
			return v
		}
		return fallback
	}
	return Settings{
		APIKey:  pick(envAPIKey, KeyAPIKey, ""),
		BaseURL: pick(envBaseURL, KeyBaseURL, defaultBaseURL),
		UserID:  pick(envUserID, KeyUserID, defaultUserID),
	}, nil
}
