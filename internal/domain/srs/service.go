package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
)

// Common errors
var (
	ErrNilRecord     = errors.New("vocabulary record cannot be nil")
	ErrInvalidLevel  = domain.ErrInvalidLevel
	ErrNilParameters = errors.New("srs params cannot be nil")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// CalculateNextReview computes the record state after one review outcome.
	// The input record is not modified. Submitting the same outcome twice
	// applies the transition twice; callers submit exactly one outcome per
	// review presentation.
	CalculateNextReview(
		rec *domain.VocabularyRecord,
		isCorrect bool,
		now time.Time,
	) (*domain.VocabularyRecord, error)

	// ValidateLevel checks that level indexes the interval table.
	ValidateLevel(level int) error

	// Interval returns the review interval for level. level must satisfy
	// ValidateLevel.
	Interval(level int) time.Duration

	// MaxLevel returns the ceiling level.
	MaxLevel() int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with the default interval table
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
// The table is validated like NewParams and copied.
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParameters
	}
	checked, err := NewParams(params.IntervalHours)
	if err != nil {
		return nil, err
	}
	return &defaultService{
		params: checked,
	}, nil
}

// CalculateNextReview implements the Service interface
func (s *defaultService) CalculateNextReview(
	rec *domain.VocabularyRecord,
	isCorrect bool,
	now time.Time,
) (*domain.VocabularyRecord, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if err := s.ValidateLevel(rec.Level); err != nil {
		return nil, err
	}

	return calculateNextRecord(rec, isCorrect, now, s.params), nil
}

// ValidateLevel implements the Service interface
func (s *defaultService) ValidateLevel(level int) error {
	if level < 0 || level > s.params.MaxLevel() {
		return ErrInvalidLevel
	}
	return nil
}

// Interval implements the Service interface
func (s *defaultService) Interval(level int) time.Duration {
	return s.params.Interval(level)
}

// MaxLevel implements the Service interface
func (s *defaultService) MaxLevel() int {
	return s.params.MaxLevel()
}
