// Package artifact stores rendered PDF documents on disk and hands them
// back by reference. Job records carry the reference, never the bytes.
// Retention and cleanup of stored artifacts is an operational concern
// outside this package; retrieval therefore tolerates artifacts that have
// been removed underneath it.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Common artifact store errors.
var (
	// ErrMissing is returned when an artifact's bytes are gone, e.g. after
	// an external cleanup removed the file between completion and fetch.
	ErrMissing = errors.New("artifact missing")

	// ErrInvalidRef is returned when a reference does not name a file in
	// the artifact directory.
	ErrInvalidRef = errors.New("invalid artifact reference")
)

// Store persists rendered documents in a single directory, one file per
// artifact, named "<uuid>.pdf".
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the artifact directory if needed and returns a store
// over it.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "artifact_store"),
	}, nil
}

// Save writes the document and returns its reference.
func (s *Store) Save(data []byte) (string, error) {
	ref := uuid.New().String() + ".pdf"
	path := filepath.Join(s.dir, ref)

	// Write through a temp name so a concurrent reader never sees a
	// half-written document.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	s.logger.Debug("saved artifact", "ref", ref, "bytes", len(data))
	return ref, nil
}

// Open returns a reader over the referenced artifact and its size.
// Returns ErrMissing if the bytes are gone and ErrInvalidRef if the
// reference does not name a file inside the artifact directory.
func (s *Store) Open(ref string) (io.ReadCloser, int64, error) {
	if err := validateRef(ref); err != nil {
		return nil, 0, err
	}

	path := filepath.Join(s.dir, ref)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissing, ref)
		}
		return nil, 0, fmt.Errorf("failed to open artifact %s: %w", ref, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat artifact %s: %w", ref, err)
	}

	return f, info.Size(), nil
}

// validateRef rejects references that could escape the artifact directory.
func validateRef(ref string) error {
	if ref == "" ||
		strings.ContainsAny(ref, `/\`) ||
		strings.Contains(ref, "..") ||
		ref != filepath.Base(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
