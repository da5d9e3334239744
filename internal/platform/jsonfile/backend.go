// Package jsonfile stores the vocabulary as a single JSON array on disk.
//
// Every save rewrites the whole file through a temporary sibling that is
// renamed into place, so a crash mid-write leaves the previous file intact.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/store"
	"github.com/spf13/afero"
)

const filePerm = 0o644

// Backend is a store.Backend over one JSON file.
type Backend struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithFs replaces the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(b *Backend) {
		if fsys != nil {
			b.fs = fsys
		}
	}
}

// WithLogger sets the fallback logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a backend reading and writing path. It panics on an empty path.
func New(path string, opts ...Option) *Backend {
	if path == "" {
		panic("path cannot be empty")
	}

	b := &Backend{
		fs:     afero.NewOsFs(),
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String("component", "jsonfile_backend"))
	return b
}

// Path returns the file the backend writes.
func (b *Backend) Path() string {
	return b.path
}

// Load reads the file. A missing or empty file is an empty set.
func (b *Backend) Load(ctx context.Context) ([]domain.VocabularyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, b.logger)

	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("vocabulary file not found, starting empty", slog.String("path", b.path))
		return []domain.VocabularyRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	if len(data) == 0 {
		return []domain.VocabularyRecord{}, nil
	}

	var raw []recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", b.path, err)
	}

	records := make([]domain.VocabularyRecord, len(raw))
	for i, r := range raw {
		records[i] = fromJSON(r)
	}
	return records, nil
}

// Save writes records to a temporary file in the target directory and
// renames it over the target.
func (b *Backend) Save(ctx context.Context, records []domain.VocabularyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.FromContextOrDefault(ctx, b.logger)

	raw := make([]recordJSON, len(records))
	for i, r := range records {
		raw[i] = toJSON(r)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if rmErr := b.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn("failed to remove temp file",
				slog.String("path", tmpName),
				slog.String("error", rmErr.Error()))
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := b.fs.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := b.fs.Rename(tmpName, b.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}

	log.Debug("vocabulary file written",
		slog.String("path", b.path),
		slog.Int("count", len(records)))
	return nil
}
