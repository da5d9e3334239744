// Package memory provides an in-process vocabulary backend. It keeps the last
// saved record set in memory and can be told to fail loads or saves, which
// makes it the backend of choice for tests and throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/store"
)

// Backend is an in-memory store.Backend.
type Backend struct {
	mu      sync.Mutex
	records []domain.VocabularyRecord
	loadErr error
	saveErr error
	saves   int
}

var _ store.Backend = (*Backend)(nil)

// NewBackend returns a backend seeded with copies of records.
func NewBackend(records ...domain.VocabularyRecord) *Backend {
	return &Backend{records: cloneAll(records)}
}

// Load returns a copy of the last saved set.
func (b *Backend) Load(ctx context.Context) ([]domain.VocabularyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return cloneAll(b.records), nil
}

// Save replaces the stored set with a copy of records.
func (b *Backend) Save(ctx context.Context, records []domain.VocabularyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.saveErr != nil {
		return b.saveErr
	}
	b.records = cloneAll(records)
	b.saves++
	return nil
}

// FailLoad makes every subsequent Load return err. A nil err clears the fault.
func (b *Backend) FailLoad(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr = err
}

// FailSave makes every subsequent Save return err without storing anything.
// A nil err clears the fault.
func (b *Backend) FailSave(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErr = err
}

// Records returns a copy of the persisted set.
func (b *Backend) Records() []domain.VocabularyRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.records)
}

// Saves reports how many Save calls succeeded.
func (b *Backend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func cloneAll(records []domain.VocabularyRecord) []domain.VocabularyRecord {
	out := make([]domain.VocabularyRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
