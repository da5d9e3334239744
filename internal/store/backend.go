package store

import (
	"context"

	"github.com/phrazzld/vocab-srs/internal/domain"
)

// Backend persists the complete vocabulary record set as one unit.
//
// Load returns every record in insertion order. Save replaces the persisted
// set with records atomically: after Save returns, readers observe either the
// previous set or the new one, never a mix. Implementations return errors
// from the underlying storage unchanged; the vocabulary store is responsible
// for wrapping them as ErrPersistence.
type Backend interface {
	Load(ctx context.Context) ([]domain.VocabularyRecord, error)
	Save(ctx context.Context, records []domain.VocabularyRecord) error
}
