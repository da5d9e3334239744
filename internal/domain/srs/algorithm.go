package srs

import (
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
)

// calculateNewLevel moves the level one step up on a correct answer and one
// step down on an incorrect one, clamped to [0, params.MaxLevel()].
//
// A lapse regresses exactly one level rather than resetting to zero, so a
// single mistake shortens the next interval without erasing earlier progress.
func calculateNewLevel(currentLevel int, isCorrect bool, params *Params) int {
	if isCorrect {
		return min(currentLevel+1, params.MaxLevel())
	}
	return max(currentLevel-1, 0)
}

// calculateNextReviewTime schedules the next review from now using the
// interval of the new level.
func calculateNextReviewTime(level int, now time.Time, params *Params) time.Time {
	return now.Add(params.Interval(level))
}

// calculateNextRecord creates a new VocabularyRecord with updated values
// based on the review outcome. The input record is never modified.
//
// Only level, counters and review timestamps change; identity and
// descriptive metadata are carried over untouched.
func calculateNextRecord(
	rec *domain.VocabularyRecord,
	isCorrect bool,
	now time.Time,
	params *Params,
) *domain.VocabularyRecord {
	now = now.Truncate(time.Millisecond)

	next := rec.Clone()

	next.Level = calculateNewLevel(rec.Level, isCorrect, params)
	if isCorrect {
		next.CorrectCount++
	} else {
		next.IncorrectCount++
	}

	next.NextReviewTime = calculateNextReviewTime(next.Level, now, params)
	reviewedAt := now
	next.LastReviewTime = &reviewedAt

	return &next
}
