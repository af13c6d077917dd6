package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"feedsync/internal/fsguard"
	"feedsync/internal/logger"
)

// Store reads and writes the catalog JSON file inside a confined root.
type Store struct {
	root   *fsguard.Root
	logger *slog.Logger
}

// NewStore creates a catalog Store confined to root.
func NewStore(root *fsguard.Root, log *slog.Logger) *Store {
	return &Store{root: root, logger: log}
}

// Load reads the catalog at path. A missing file is an empty catalog;
// malformed JSON is an error.
func (s *Store) Load(path string) ([]Entry, error) {
	abs, err := s.root.Resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("catalog not found, starting empty", logger.SafeString("path", abs))
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", logger.Sanitize(abs), err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Save writes entries as a pretty-printed, newline-terminated JSON array.
func (s *Store) Save(path string, entries []Entry) error {
	abs, err := s.root.Resolve(path)
	if err != nil {
		return err
	}

	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := fsguard.WriteFile(abs, data, 0o644); err != nil {
		s.logger.Error("catalog write failed", logger.SafeString("path", abs), logger.SafeErr(err))
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Encode renders entries the way the catalog file stores them: two-space
// indent, no HTML escaping, trailing newline.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}
