// Package config persists the workboard's durable configuration: the
// extraction API key and the target spreadsheet identifier, plus the
// remote service endpoints. The two strings are opaque here; absence of
// either blocks every gateway verb.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-yaml/yaml"
	"github.com/rs/zerolog/log"
)

// Record is the persisted configuration consulted by the gateway.
type Record struct {
	APIKey        string    `yaml:"api_key"`
	SpreadsheetID string    `yaml:"spreadsheet_id"`
	Endpoints     Endpoints `yaml:"endpoints"`
}

// Endpoints lists the remote service URLs. Predict may stay empty when the
// local classifier fallback is in use.
type Endpoints struct {
	Analyze  string `yaml:"analyze"`
	Predict  string `yaml:"predict"`
	Save     string `yaml:"save"`
	Accounts string `yaml:"accounts"`
	Revoke   string `yaml:"revoke"`
}

// Complete reports whether both required strings are present.
func (r Record) Complete() bool {
	return r.APIKey != "" && r.SpreadsheetID != ""
}

// Store loads and saves the Record from a YAML file. Reads after the first
// are served from memory; Save writes through.
type Store struct {
	path string

	mu     sync.Mutex
	record Record
	loaded bool
}

// NewStore builds a store over the given file path. The file may not exist
// yet; an empty record is served until the first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current record.
func (s *Store) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.read()
	}
	return s.record
}

func (s *Store) read() {
	s.loaded = true
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Could not read config file")
		return
	}
	if err := yaml.Unmarshal(raw, &s.record); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Could not parse config file")
	}
}

// Save replaces the record and writes it to disk.
func (s *Store) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return err
	}
	s.record = r
	s.loaded = true
	log.Info().Str("path", s.path).Msg("Saved configuration")
	return nil
}
