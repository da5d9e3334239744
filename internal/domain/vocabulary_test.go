package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVocabularyRecord(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)

	rec, err := NewVocabularyRecord(WordCandidate{Word: "  resilient ", Chinese: "有弹性的"}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "resilient", rec.Word)
	assert.Equal(t, "有弹性的", rec.Chinese)
	assert.Equal(t, 0, rec.Level)
	assert.Equal(t, 0, rec.CorrectCount)
	assert.Equal(t, 0, rec.IncorrectCount)
	assert.Nil(t, rec.LastReviewTime)
	assert.Equal(t, now.Truncate(time.Millisecond), rec.NextReviewTime)
	assert.Equal(t, rec.NextReviewTime, rec.CreatedAt)
	assert.True(t, rec.IsDue(now))
	assert.NoError(t, rec.Validate())
}

func TestNewVocabularyRecordDefaults(t *testing.T) {
	t.Parallel()

	rec, err := NewVocabularyRecord(WordCandidate{Word: "ephemeral"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, DefaultChinese, rec.Chinese)
	assert.Equal(t, DifficultyMedium, rec.Difficulty)
	assert.Equal(t, SourceConversation, rec.Source)
}

func TestNewVocabularyRecordUniqueIDs(t *testing.T) {
	t.Parallel()
	now := time.Now()

	a, err := NewVocabularyRecord(WordCandidate{Word: "a"}, now)
	require.NoError(t, err)
	b, err := NewVocabularyRecord(WordCandidate{Word: "b"}, now)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestWordCandidateValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate WordCandidate
		wantErr   error
	}{
		{"valid minimal", WordCandidate{Word: "ok"}, nil},
		{"valid full", WordCandidate{Word: "ok", Difficulty: DifficultyHard, Source: SourceManual}, nil},
		{"empty word", WordCandidate{Word: ""}, ErrEmptyWord},
		{"blank word", WordCandidate{Word: " \t\n"}, ErrEmptyWord},
		{"bad difficulty", WordCandidate{Word: "ok", Difficulty: "brutal"}, ErrInvalidDifficulty},
		{"bad source", WordCandidate{Word: "ok", Source: "import"}, ErrInvalidSource},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.candidate.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestVocabularyRecordValidate(t *testing.T) {
	t.Parallel()

	base, err := NewVocabularyRecord(WordCandidate{Word: "valid"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(r *VocabularyRecord)
		wantErr error
	}{
		{"empty id", func(r *VocabularyRecord) { r.ID = "" }, ErrEmptyID},
		{"blank word", func(r *VocabularyRecord) { r.Word = "  " }, ErrEmptyWord},
		{"negative level", func(r *VocabularyRecord) { r.Level = -1 }, ErrInvalidLevel},
		{"negative correct", func(r *VocabularyRecord) { r.CorrectCount = -1 }, ErrNegativeCount},
		{"negative incorrect", func(r *VocabularyRecord) { r.IncorrectCount = -3 }, ErrNegativeCount},
		{"zero next review", func(r *VocabularyRecord) { r.NextReviewTime = time.Time{} }, ErrMissingNextReview},
		{"bad difficulty", func(r *VocabularyRecord) { r.Difficulty = "" }, ErrInvalidDifficulty},
		{"bad source", func(r *VocabularyRecord) { r.Source = "x" }, ErrInvalidSource},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := base.Clone()
			tc.mutate(&rec)
			err := rec.Validate()
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestNormalizeWord(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "resilient", NormalizeWord("  Resilient "))
	assert.Equal(t, WordCandidate{Word: "RESILIENT"}.Key(), VocabularyRecord{Word: "resilient"}.Key())
}

func TestClone(t *testing.T) {
	t.Parallel()
	last := time.Now()
	rec := VocabularyRecord{ID: "1", Word: "w", LastReviewTime: &last}

	cp := rec.Clone()
	*cp.LastReviewTime = last.Add(time.Hour)

	assert.Equal(t, last, *rec.LastReviewTime)
}
