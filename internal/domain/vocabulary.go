package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Difficulty is the self-reported difficulty of a word.
type Difficulty string

// Supported difficulty values
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Source records where a word came from.
type Source string

// Supported source values
const (
	SourceConversation Source = "conversation"
	SourceManual       Source = "manual"
)

// DefaultChinese is used when a candidate arrives without a translation.
const DefaultChinese = "（请查阅词典）"

// IsValid reports whether d is one of the known difficulties.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is one of the known sources.
func (s Source) IsValid() bool {
	switch s {
	case SourceConversation, SourceManual:
		return true
	default:
		return false
	}
}

// WordCandidate is a word submitted for insertion by an external collaborator
// (the conversation report, a manual entry form, an import file).
// Only Word is required; everything else is defaulted on insertion.
type WordCandidate struct {
	Word         string     `json:"word"                   validate:"notblank"`
	Chinese      string     `json:"chinese,omitempty"`
	Phonetic     string     `json:"phonetic,omitempty"`
	PartOfSpeech string     `json:"partOfSpeech,omitempty"`
	Example      string     `json:"example,omitempty"`
	Translation  string     `json:"translation,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty"   validate:"omitempty,oneof=easy medium hard"`
	Tips         string     `json:"tips,omitempty"`
	Source       Source     `json:"source,omitempty"       validate:"omitempty,oneof=conversation manual"`
}

// VocabularyRecord is the learning state of one unique word.
type VocabularyRecord struct {
	ID             string     `json:"id"`
	Word           string     `json:"word"`
	Chinese        string     `json:"chinese"`
	Phonetic       string     `json:"phonetic"`
	PartOfSpeech   string     `json:"partOfSpeech"`
	Example        string     `json:"example"`
	Translation    string     `json:"translation"`
	Difficulty     Difficulty `json:"difficulty"`
	Tips           string     `json:"tips"`
	Level          int        `json:"level"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
	NextReviewTime time.Time  `json:"nextReviewTime"`
	LastReviewTime *time.Time `json:"lastReviewTime"`
	CreatedAt      time.Time  `json:"createdAt"`
	Source         Source     `json:"source"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func candidateValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// "required" accepts whitespace-only strings, which are not words.
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks the candidate against the insertion rules.
// The returned error always wraps ErrValidation.
func (c WordCandidate) Validate() error {
	err := candidateValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch verrs[0].Field() {
	case "Word":
		return ErrEmptyWord
	case "Difficulty":
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, c.Difficulty)
	case "Source":
		return fmt.Errorf("%w: %q", ErrInvalidSource, c.Source)
	default:
		return fmt.Errorf("%w: %s", ErrValidation, verrs[0].Error())
	}
}

// NormalizeWord returns the identity key used for case-insensitive dedup.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Key returns the normalized identity of the candidate word.
func (c WordCandidate) Key() string {
	return NormalizeWord(c.Word)
}

// Key returns the normalized identity of the record word.
func (r VocabularyRecord) Key() string {
	return NormalizeWord(r.Word)
}

// NewVocabularyRecord materializes a validated candidate into a fresh record
// that is immediately due. now is truncated to millisecond precision so the
// record round-trips through every persistence backend unchanged.
func NewVocabularyRecord(c WordCandidate, now time.Time) (*VocabularyRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now = now.Truncate(time.Millisecond)

	rec := &VocabularyRecord{
		ID:             uuid.NewString(),
		Word:           strings.TrimSpace(c.Word),
		Chinese:        c.Chinese,
		Phonetic:       c.Phonetic,
		PartOfSpeech:   c.PartOfSpeech,
		Example:        c.Example,
		Translation:    c.Translation,
		Difficulty:     c.Difficulty,
		Tips:           c.Tips,
		Level:          0,
		CorrectCount:   0,
		IncorrectCount: 0,
		NextReviewTime: now,
		LastReviewTime: nil,
		CreatedAt:      now,
		Source:         c.Source,
	}

	if rec.Chinese == "" {
		rec.Chinese = DefaultChinese
	}
	if rec.Difficulty == "" {
		rec.Difficulty = DifficultyMedium
	}
	if rec.Source == "" {
		rec.Source = SourceConversation
	}

	return rec, nil
}

// Validate checks the structural invariants of a record that do not depend
// on the interval table. The upper level bound is checked by the scheduler.
func (r *VocabularyRecord) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.Word) == "" {
		return ErrEmptyWord
	}
	if !r.Difficulty.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, r.Difficulty)
	}
	if !r.Source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, r.Source)
	}
	if r.Level < 0 {
		return ErrInvalidLevel
	}
	if r.CorrectCount < 0 || r.IncorrectCount < 0 {
		return ErrNegativeCount
	}
	if r.NextReviewTime.IsZero() {
		return ErrMissingNextReview
	}
	return nil
}

// ReviewCount is the number of review events applied to the record.
func (r *VocabularyRecord) ReviewCount() int {
	return r.CorrectCount + r.IncorrectCount
}

// IsDue reports whether the record must be reviewed at now.
func (r *VocabularyRecord) IsDue(now time.Time) bool {
	return !r.NextReviewTime.After(now)
}

// Clone returns a deep copy of the record.
func (r VocabularyRecord) Clone() VocabularyRecord {
	if r.LastReviewTime != nil {
		t := *r.LastReviewTime
		r.LastReviewTime = &t
	}
	return r
}
