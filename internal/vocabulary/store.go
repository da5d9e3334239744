package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/domain/srs"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/query"
	"github.com/phrazzld/vocab-srs/internal/store"
)

const entity = "vocabulary"

// Store is the single writer of the vocabulary record set.
type Store struct {
	backend store.Backend
	srs     srs.Service
	logger  *slog.Logger
	clock   func() time.Time
	loc     *time.Location

	mu      sync.RWMutex
	records []domain.VocabularyRecord
	// byWord maps the normalized word to the record id.
	byWord map[string]string
}

// New builds a Store over backend and loads the persisted set.
// It panics if backend is nil.
func New(ctx context.Context, backend store.Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		panic("backend cannot be nil")
	}

	s := &Store{
		backend: backend,
		srs:     srs.NewDefaultService(),
		logger:  slog.Default(),
		clock:   time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "vocabulary_store"))

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) now() time.Time {
	return s.clock().In(s.loc)
}

// Reload replaces the in-memory set with what the backend currently holds.
// On failure the Store keeps its previous contents. Persisted levels outside
// the interval table are clamped; records that fail validation and repeated
// words are dropped. Either is logged and reaches the backend on the next
// successful mutation.
func (s *Store) Reload(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.backend.Load(ctx)
	if err != nil {
		log.Error("failed to load vocabulary", slog.String("error", err.Error()))
		return store.NewPersistenceError(entity, "load", err)
	}

	index := make(map[string]string, len(loaded))
	records := make([]domain.VocabularyRecord, 0, len(loaded))
	for _, r := range loaded {
		if err := s.srs.ValidateLevel(r.Level); err != nil {
			clamped := min(max(r.Level, 0), s.srs.MaxLevel())
			log.Warn("clamping out of range level in persisted record",
				slog.String("id", r.ID),
				slog.Int("level", r.Level),
				slog.Int("clamped", clamped))
			r.Level = clamped
		}
		if err := r.Validate(); err != nil {
			log.Warn("dropping invalid record from persisted set",
				slog.String("id", r.ID),
				slog.String("word", r.Word),
				slog.String("error", err.Error()))
			continue
		}

		key := r.Key()
		if _, dup := index[key]; dup {
			log.Warn("dropping duplicate word from persisted set",
				slog.String("word", r.Word),
				slog.String("id", r.ID))
			continue
		}
		index[key] = r.ID
		records = append(records, r)
	}

	s.records = records
	s.byWord = index

	log.Debug("vocabulary loaded", slog.Int("count", len(records)))
	return nil
}

// AddWords inserts every candidate whose word is not already present,
// comparing case-insensitively against both the stored set and earlier
// candidates in the same batch. It returns the number of records inserted.
//
// Candidates with a blank word are skipped. Any other invalid candidate
// rejects the whole batch and nothing is inserted.
func (s *Store) AddWords(ctx context.Context, candidates []domain.WordCandidate) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]domain.VocabularyRecord, 0, len(candidates))

	for i, c := range candidates {
		if strings.TrimSpace(c.Word) == "" {
			log.Warn("skipping candidate with blank word", slog.Int("index", i))
			continue
		}

		key := c.Key()
		if _, exists := s.byWord[key]; exists {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}

		rec, err := domain.NewVocabularyRecord(c, now)
		if err != nil {
			log.Warn("rejecting candidate batch",
				slog.Int("index", i),
				slog.String("word", c.Word),
				slog.String("error", err.Error()))
			return 0, fmt.Errorf("candidate %d (%q): %w", i, c.Word, err)
		}

		seen[key] = struct{}{}
		fresh = append(fresh, *rec)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	next := make([]domain.VocabularyRecord, 0, len(s.records)+len(fresh))
	next = append(next, s.records...)
	next = append(next, fresh...)

	if err := s.commit(ctx, "add_words", next); err != nil {
		return 0, err
	}
	for _, r := range fresh {
		s.byWord[r.Key()] = r.ID
	}

	log.Info("added words",
		slog.Int("inserted", len(fresh)),
		slog.Int("submitted", len(candidates)))
	return len(fresh), nil
}

// AddSingle inserts one manually entered word. A blank word is a
// validation error rather than a silent skip.
func (s *Store) AddSingle(ctx context.Context, candidate domain.WordCandidate) (int, error) {
	candidate.Source = domain.SourceManual
	if err := candidate.Validate(); err != nil {
		return 0, err
	}
	return s.AddWords(ctx, []domain.WordCandidate{candidate})
}

// GetAll returns copies of every record in insertion order.
func (s *Store) GetAll(_ context.Context) []domain.VocabularyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// GetByID returns a copy of the record with id.
func (s *Store) GetByID(_ context.Context, id string) (domain.VocabularyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos := s.position(id)
	if pos < 0 {
		return domain.VocabularyRecord{}, notFound(id)
	}
	return s.records[pos].Clone(), nil
}

// Len returns the number of stored records.
func (s *Store) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Delete removes the record with id. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.position(id)
	if pos < 0 {
		log.Debug("delete of unknown record ignored", slog.String("id", id))
		return nil
	}
	removed := s.records[pos]

	next := make([]domain.VocabularyRecord, 0, len(s.records)-1)
	next = append(next, s.records[:pos]...)
	next = append(next, s.records[pos+1:]...)

	if err := s.commit(ctx, "delete", next); err != nil {
		return err
	}
	delete(s.byWord, removed.Key())

	log.Info("deleted word", slog.String("id", id), slog.String("word", removed.Word))
	return nil
}

// Update replaces the stored record that has the same id as rec.
//
// The id, word, creation time and source of a record never change; an
// update that alters any of them is rejected, as is one whose level falls
// outside the interval table or whose counters are negative.
func (s *Store) Update(ctx context.Context, rec domain.VocabularyRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.position(rec.ID)
	if pos < 0 {
		return notFound(rec.ID)
	}

	if err := s.validateUpdate(s.records[pos], rec); err != nil {
		log.Warn("rejecting record update",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()))
		return err
	}

	rec = rec.Clone()
	rec.NextReviewTime = rec.NextReviewTime.Truncate(time.Millisecond)
	if rec.LastReviewTime != nil {
		t := rec.LastReviewTime.Truncate(time.Millisecond)
		rec.LastReviewTime = &t
	}

	if err := s.replace(ctx, "update", pos, rec); err != nil {
		return err
	}

	log.Debug("updated word", slog.String("id", rec.ID))
	return nil
}

// Review applies one review outcome to the record with id and returns the
// updated copy. Each call applies a transition; submitting the same outcome
// twice advances or regresses the record twice.
func (s *Store) Review(ctx context.Context, id string, isCorrect bool) (domain.VocabularyRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.position(id)
	if pos < 0 {
		log.Warn("review of unknown record", slog.String("id", id))
		return domain.VocabularyRecord{}, notFound(id)
	}

	current := s.records[pos].Clone()
	updated, err := s.srs.CalculateNextReview(&current, isCorrect, s.now())
	if err != nil {
		log.Error("failed to schedule review",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return domain.VocabularyRecord{}, fmt.Errorf("failed to schedule review of %s: %w", id, err)
	}

	if err := s.replace(ctx, "review", pos, *updated); err != nil {
		return domain.VocabularyRecord{}, err
	}

	log.Info("review recorded",
		slog.String("id", id),
		slog.Bool("correct", isCorrect),
		slog.Int("level", updated.Level),
		slog.Time("next_review_time", updated.NextReviewTime))
	return updated.Clone(), nil
}

// DueForReview returns the records due at the Store clock, earliest first.
func (s *Store) DueForReview(_ context.Context) []domain.VocabularyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.DueForReview(s.records, s.now())
}

// DueTodayCount counts records due before the end of the current local day.
func (s *Store) DueTodayCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.DueTodayCount(s.records, s.now())
}

// Stats aggregates the stored records at the Store clock.
func (s *Store) Stats(_ context.Context) query.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.ComputeStats(s.records, s.now())
}

// Now returns the Store clock in its configured time zone.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) validateUpdate(current, rec domain.VocabularyRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.srs.ValidateLevel(rec.Level); err != nil {
		return fmt.Errorf("%w: level %d", err, rec.Level)
	}

	switch {
	case rec.Word != current.Word:
		return fmt.Errorf("%w: word", domain.ErrImmutableField)
	case !rec.CreatedAt.Equal(current.CreatedAt):
		return fmt.Errorf("%w: createdAt", domain.ErrImmutableField)
	case rec.Source != current.Source:
		return fmt.Errorf("%w: source", domain.ErrImmutableField)
	}
	return nil
}

// replace persists the set with the record at pos swapped for rec.
// Callers hold the write lock.
func (s *Store) replace(ctx context.Context, op string, pos int, rec domain.VocabularyRecord) error {
	next := make([]domain.VocabularyRecord, len(s.records))
	copy(next, s.records)
	next[pos] = rec
	return s.commit(ctx, op, next)
}

// commit saves next and, only if the backend accepts it, makes it the
// current set. Callers hold the write lock.
func (s *Store) commit(ctx context.Context, op string, next []domain.VocabularyRecord) error {
	if err := s.backend.Save(ctx, next); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to persist vocabulary",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return store.NewPersistenceError(entity, op, err)
	}
	s.records = next
	return nil
}

// position returns the index of id in the record slice, or -1.
func (s *Store) position(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []domain.VocabularyRecord {
	out := make([]domain.VocabularyRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func notFound(id string) error {
	return fmt.Errorf("%w: id %q", store.ErrVocabularyNotFound, id)
}
