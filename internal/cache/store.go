// Package cache keeps the raw feed snapshot from the previous run.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"feedsync/internal/fsguard"
	"feedsync/internal/logger"
)

// Store reads and writes snapshot files confined to a single root.
type Store struct {
	root   *fsguard.Root
	logger *slog.Logger
}

// NewStore creates a Store confined to root.
func NewStore(root *fsguard.Root, log *slog.Logger) *Store {
	return &Store{root: root, logger: log}
}

// Load returns the cached snapshot at path. ok is false when there is no
// usable snapshot: the file is missing, blank, or unreadable. Only a path
// outside the root is an error.
func (s *Store) Load(path string) (content string, ok bool, err error) {
	abs, err := s.root.Resolve(path)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Warn("feed cache unreadable, treating as absent",
			logger.SafeString("path", abs),
			logger.SafeErr(err),
		)
		return "", false, nil
	}

	content = string(data)
	if strings.TrimSpace(content) == "" {
		s.logger.Warn("feed cache is empty, treating as absent", logger.SafeString("path", abs))
		return "", false, nil
	}
	return content, true, nil
}

// Save overwrites the snapshot at path, creating parent directories. A
// failed write is returned to the caller; the run must not continue with an
// unrecorded snapshot.
func (s *Store) Save(path, content string) error {
	abs, err := s.root.Resolve(path)
	if err != nil {
		return err
	}

	if err := fsguard.WriteFile(abs, []byte(content), 0o644); err != nil {
		s.logger.Error("feed cache write failed",
			logger.SafeString("path", abs),
			logger.SafeErr(err),
		)
		return fmt.Errorf("save feed cache: %w", err)
	}
	return nil
}
