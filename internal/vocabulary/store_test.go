package vocabulary_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/domain/srs"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/platform/memory"
	"github.com/phrazzld/vocab-srs/internal/store"
	"github.com/phrazzld/vocab-srs/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// fakeClock is a settable clock shared between a test and its Store.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, backend *memory.Backend) (*vocabulary.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
	l, _ := logger.NewTestLogger(t)

	s, err := vocabulary.New(context.Background(), backend,
		vocabulary.WithClock(clock.Now),
		vocabulary.WithLocation(time.UTC),
		vocabulary.WithLogger(l),
	)
	require.NoError(t, err)
	return s, clock
}

func addWord(t *testing.T, s *vocabulary.Store, word string) domain.VocabularyRecord {
	t.Helper()
	ctx := context.Background()
	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: word}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	all := s.GetAll(ctx)
	return all[len(all)-1]
}

func TestNewPanicsOnNilBackend(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		_, _ = vocabulary.New(context.Background(), nil)
	})
}

func TestNewLoadsPersistedRecords(t *testing.T) {
	t.Parallel()

	seed, err := domain.NewVocabularyRecord(domain.WordCandidate{Word: "seeded"}, time.Now())
	require.NoError(t, err)
	backend := memory.NewBackend(*seed)

	s, _ := newTestStore(t, backend)

	assert.Equal(t, 1, s.Len(context.Background()))
	n, err := s.AddWords(context.Background(), []domain.WordCandidate{{Word: "SEEDED"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewFailsWhenBackendCannotLoad(t *testing.T) {
	t.Parallel()
	backend := memory.NewBackend()
	backend.FailLoad(errDiskFull)

	_, err := vocabulary.New(context.Background(), backend)

	require.Error(t, err)
	assert.True(t, store.IsPersistenceError(err))
	assert.ErrorIs(t, err, errDiskFull)
	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Operation)
}

func TestAddWordsScenarioA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, clock := newTestStore(t, backend)

	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: "resilient", Chinese: "有弹性的"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	rec := all[0]
	assert.Equal(t, "resilient", rec.Word)
	assert.Equal(t, "有弹性的", rec.Chinese)
	assert.Equal(t, 0, rec.Level)
	assert.Equal(t, 0, rec.CorrectCount)
	assert.Equal(t, 0, rec.IncorrectCount)
	assert.Nil(t, rec.LastReviewTime)
	assert.True(t, rec.NextReviewTime.Equal(clock.Now()))
	assert.True(t, rec.CreatedAt.Equal(clock.Now()))
	assert.Equal(t, domain.SourceConversation, rec.Source)

	assert.Equal(t, all, backend.Records())
}

func TestAddWordsDeduplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)

	n, err := s.AddWords(ctx, []domain.WordCandidate{
		{Word: "Resilient", Chinese: "first"},
		{Word: "resilient", Chinese: "second"},
		{Word: " RESILIENT ", Chinese: "third"},
		{Word: "ephemeral"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all := s.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "Resilient", all[0].Word)
	assert.Equal(t, "first", all[0].Chinese)

	// Resubmitting is a no-op and touches neither the record nor the backend.
	saves := backend.Saves()
	n, err = s.AddWords(ctx, []domain.WordCandidate{{Word: "resilient", Chinese: "changed"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, saves, backend.Saves())

	got, err := s.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Chinese)
	assert.Equal(t, 2, s.Len(ctx))
}

func TestAddWordsSkipsBlankCandidates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, buf := logger.NewTestLogger(t)
	s, err := vocabulary.New(ctx, memory.NewBackend(), vocabulary.WithLogger(l))
	require.NoError(t, err)

	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: "  "}, {Word: "valid"}, {Word: ""}})
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.True(t, buf.HasEntry(slog.LevelWarn, "skipping candidate with blank word"))
}

func TestAddWordsRejectsInvalidBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)

	n, err := s.AddWords(ctx, []domain.WordCandidate{
		{Word: "fine"},
		{Word: "broken", Difficulty: "impossible"},
	})

	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, 0, s.Len(ctx))
	assert.Equal(t, 0, backend.Saves())
}

func TestAddWordsPersistenceFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	addWord(t, s, "kept")

	backend.FailSave(errDiskFull)
	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: "lost"}})

	assert.Equal(t, 0, n)
	assert.True(t, store.IsPersistenceError(err))
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 1, s.Len(ctx))

	// The failed word was never indexed, so it can be added once storage recovers.
	backend.FailSave(nil)
	n, err = s.AddWords(ctx, []domain.WordCandidate{{Word: "lost"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddSingle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t, memory.NewBackend())

	n, err := s.AddSingle(ctx, domain.WordCandidate{Word: "manual", Source: domain.SourceConversation})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.SourceManual, s.GetAll(ctx)[0].Source)

	n, err = s.AddSingle(ctx, domain.WordCandidate{Word: "MANUAL"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.AddSingle(ctx, domain.WordCandidate{Word: " \t"})
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, domain.ErrEmptyWord)
	assert.True(t, domain.IsValidationError(err))
}

func TestGetAllReturnsCopiesInInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t, memory.NewBackend())

	for _, w := range []string{"c", "a", "b"} {
		addWord(t, s, w)
	}

	all := s.GetAll(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Word)
	assert.Equal(t, "a", all[1].Word)
	assert.Equal(t, "b", all[2].Word)

	all[0].Level = 6
	assert.Equal(t, 0, s.GetAll(ctx)[0].Level)
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, memory.NewBackend())

	_, err := s.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, store.ErrVocabularyNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	a := addWord(t, s, "alpha")
	b := addWord(t, s, "beta")

	require.NoError(t, s.Delete(ctx, a.ID))

	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Equal(t, all, backend.Records())

	// The word can come back after deletion.
	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: "Alpha"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteUnknownIDScenarioE(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	addWord(t, s, "alpha")
	before := s.GetAll(ctx)
	saves := backend.Saves()

	require.NoError(t, s.Delete(ctx, "nope"))

	assert.Equal(t, before, s.GetAll(ctx))
	assert.Equal(t, saves, backend.Saves())
}

func TestDeletePersistenceFailureKeepsRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	a := addWord(t, s, "alpha")

	backend.FailSave(errDiskFull)
	err := s.Delete(ctx, a.ID)

	assert.True(t, store.IsPersistenceError(err))
	_, err = s.GetByID(ctx, a.ID)
	assert.NoError(t, err)

	// Still indexed, so a duplicate add is ignored.
	backend.FailSave(nil)
	n, err := s.AddWords(ctx, []domain.WordCandidate{{Word: "alpha"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReviewScenarioB(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(t, memory.NewBackend())
	rec := addWord(t, s, "climb")
	rec.Level = 2
	require.NoError(t, s.Update(ctx, rec))

	clock.Advance(time.Hour)
	got, err := s.Review(ctx, rec.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Level)
	assert.Equal(t, clock.Now().Add(24*time.Hour), got.NextReviewTime)
	require.NotNil(t, got.LastReviewTime)
	assert.Equal(t, clock.Now(), *got.LastReviewTime)
	assert.Equal(t, 1, got.CorrectCount)

	stored, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestReviewScenarioC(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(t, memory.NewBackend())
	rec := addWord(t, s, "floor")

	got, err := s.Review(ctx, rec.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 0, got.Level)
	assert.Equal(t, 1, got.IncorrectCount)
	assert.Equal(t, clock.Now().Add(1188*time.Second), got.NextReviewTime)
}

func TestReviewCountersTrackEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(t, memory.NewBackend())
	rec := addWord(t, s, "counter")

	outcomes := []bool{true, true, false, true, true, true, true, true, true, false}
	for _, ok := range outcomes {
		clock.Advance(time.Minute)
		got, err := s.Review(ctx, rec.ID, ok)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Level, 0)
		assert.LessOrEqual(t, got.Level, 6)
	}

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, len(outcomes), got.CorrectCount+got.IncorrectCount)
	assert.Equal(t, 8, got.CorrectCount)
	assert.Equal(t, 5, got.Level)
}

func TestReviewUnknownID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	addWord(t, s, "alpha")
	saves := backend.Saves()

	_, err := s.Review(ctx, "missing", true)

	assert.ErrorIs(t, err, store.ErrVocabularyNotFound)
	assert.Equal(t, saves, backend.Saves())
}

func TestReviewPersistenceFailureLeavesRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	rec := addWord(t, s, "alpha")

	backend.FailSave(errDiskFull)
	_, err := s.Review(ctx, rec.ID, true)

	require.Error(t, err)
	assert.True(t, store.IsPersistenceError(err))
	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "vocabulary", se.Entity)
	assert.Equal(t, "review", se.Operation)

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t, memory.NewBackend())
	rec := addWord(t, s, "edit")

	edited := rec
	edited.Chinese = "编辑"
	edited.Tips = "verb"
	edited.Difficulty = domain.DifficultyHard
	require.NoError(t, s.Update(ctx, edited))

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, edited, got)
}

func TestUpdateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *domain.VocabularyRecord)
		wantErr error
	}{
		{"unknown id", func(r *domain.VocabularyRecord) { r.ID = "other" }, store.ErrVocabularyNotFound},
		{"level above table", func(r *domain.VocabularyRecord) { r.Level = 7 }, srs.ErrInvalidLevel},
		{"negative level", func(r *domain.VocabularyRecord) { r.Level = -1 }, domain.ErrInvalidLevel},
		{"negative counter", func(r *domain.VocabularyRecord) { r.CorrectCount = -1 }, domain.ErrNegativeCount},
		{"changed word", func(r *domain.VocabularyRecord) { r.Word = "other" }, domain.ErrImmutableField},
		{"changed createdAt", func(r *domain.VocabularyRecord) { r.CreatedAt = r.CreatedAt.Add(time.Second) }, domain.ErrImmutableField},
		{"changed source", func(r *domain.VocabularyRecord) { r.Source = domain.SourceManual }, domain.ErrImmutableField},
		{"zero next review", func(r *domain.VocabularyRecord) { r.NextReviewTime = time.Time{} }, domain.ErrMissingNextReview},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			backend := memory.NewBackend()
			s, _ := newTestStore(t, backend)
			rec := addWord(t, s, "immutable")
			saves := backend.Saves()

			edited := rec.Clone()
			tc.mutate(&edited)
			err := s.Update(ctx, edited)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, saves, backend.Saves())
			got, getErr := s.GetByID(ctx, rec.ID)
			require.NoError(t, getErr)
			assert.Equal(t, rec, got)
		})
	}
}

func TestDueViews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(t, memory.NewBackend())

	first := addWord(t, s, "first")
	clock.Advance(time.Minute)
	second := addWord(t, s, "second")
	clock.Advance(time.Minute)
	later := addWord(t, s, "later")

	// Push "later" out by nine hours; 09:02 + 9h is still today in UTC.
	later.Level = 2
	later.NextReviewTime = clock.Now().Add(9 * time.Hour)
	require.NoError(t, s.Update(ctx, later))

	due := s.DueForReview(ctx)
	require.Len(t, due, 2)
	assert.Equal(t, first.ID, due[0].ID)
	assert.Equal(t, second.ID, due[1].ID)

	assert.Equal(t, 3, s.DueTodayCount(ctx))

	stats := s.Stats(ctx)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.New)
	assert.Equal(t, 1, stats.Learning)
	assert.Equal(t, 3, stats.DueToday)
}

func TestDueTodayHonorsLocation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	shanghai := time.FixedZone("UTC+8", 8*3600)
	clock := &fakeClock{now: time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)}

	s, err := vocabulary.New(ctx, memory.NewBackend(),
		vocabulary.WithClock(clock.Now),
		vocabulary.WithLocation(shanghai))
	require.NoError(t, err)

	rec := addWord(t, s, "timezone")
	// 20:00 UTC is 04:00 the next day in UTC+8.
	rec.NextReviewTime = time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(ctx, rec))

	assert.Equal(t, 0, s.DueTodayCount(ctx))
}

func TestStatsScenarioD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(t, memory.NewBackend())

	for i := 0; i < 10; i++ {
		rec := addWord(t, s, fmt.Sprintf("word%d", i))
		_, err := s.Review(ctx, rec.ID, i < 6)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	stats := s.Stats(ctx)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 6, stats.TotalCorrect)
	assert.Equal(t, 4, stats.TotalIncorrect)
	assert.Equal(t, 60, stats.Accuracy)
}

func TestReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := memory.NewBackend()
	s, _ := newTestStore(t, backend)
	addWord(t, s, "alpha")

	ext, err := domain.NewVocabularyRecord(domain.WordCandidate{Word: "external"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, append(backend.Records(), *ext)))

	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, 2, s.Len(ctx))

	backend.FailLoad(errDiskFull)
	err = s.Reload(ctx)
	assert.True(t, store.IsPersistenceError(err))
	assert.Equal(t, 2, s.Len(ctx))
}

func TestReloadRepairsPersistedRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	newRecord := func(word string, level int) domain.VocabularyRecord {
		rec, err := domain.NewVocabularyRecord(domain.WordCandidate{Word: word}, now)
		require.NoError(t, err)
		rec.Level = level
		return *rec
	}
	tooHigh := newRecord("ceiling", 9)
	negative := newRecord("floor", -1)
	noID := newRecord("orphan", 2)
	noID.ID = ""
	negativeCount := newRecord("broken", 1)
	negativeCount.CorrectCount = -4

	l, buf := logger.NewTestLogger(t)
	s, err := vocabulary.New(ctx,
		memory.NewBackend(tooHigh, negative, noID, negativeCount),
		vocabulary.WithClock(func() time.Time { return now }),
		vocabulary.WithLogger(l),
	)
	require.NoError(t, err)

	all := s.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "ceiling", all[0].Word)
	assert.Equal(t, srs.NewDefaultService().MaxLevel(), all[0].Level)
	assert.Equal(t, "floor", all[1].Word)
	assert.Equal(t, 0, all[1].Level)

	assert.True(t, buf.HasEntry(slog.LevelWarn, "clamping out of range level in persisted record"))
	assert.True(t, buf.HasEntry(slog.LevelWarn, "dropping invalid record from persisted set"))

	reviewed, err := s.Review(ctx, tooHigh.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 6, reviewed.Level)
	assert.Equal(t, 1, reviewed.CorrectCount)
}

func TestConcurrentReviewsOfSameWord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t, memory.NewBackend())
	rec := addWord(t, s, "race")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(correct bool) {
			defer wg.Done()
			_, err := s.Review(ctx, rec.ID, correct)
			assert.NoError(t, err)
		}(i%2 == 0)
	}
	wg.Wait()

	got, err := s.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.CorrectCount+got.IncorrectCount)
}
