package query

import (
	"math"
	"sort"
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
)

// MasteredLevel is the lowest level counted as mastered.
const MasteredLevel = 5

// Stats aggregates the learning state of a record set.
type Stats struct {
	Total          int `json:"total"`
	Mastered       int `json:"mastered"`
	Learning       int `json:"learning"`
	New            int `json:"new"`
	DueToday       int `json:"dueToday"`
	TotalCorrect   int `json:"totalCorrect"`
	TotalIncorrect int `json:"totalIncorrect"`
	Accuracy       int `json:"accuracy"`
}

// DueForReview returns the records whose next review time is at or before
// now, earliest first. Records due at the same instant keep their relative
// input order.
func DueForReview(records []domain.VocabularyRecord, now time.Time) []domain.VocabularyRecord {
	due := make([]domain.VocabularyRecord, 0, len(records))
	for _, r := range records {
		if r.IsDue(now) {
			due = append(due, r.Clone())
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReviewTime.Before(due[j].NextReviewTime)
	})

	return due
}

// EndOfDay returns 23:59:59.999 on the calendar day of now, in now's location.
func EndOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), now.Location())
}

// DueTodayCount counts records due at any point up to the end of now's local
// day. Unlike DueForReview it includes records that become due later today.
func DueTodayCount(records []domain.VocabularyRecord, now time.Time) int {
	end := EndOfDay(now)
	count := 0
	for _, r := range records {
		if !r.NextReviewTime.After(end) {
			count++
		}
	}
	return count
}

// ComputeStats aggregates records as seen at now.
func ComputeStats(records []domain.VocabularyRecord, now time.Time) Stats {
	s := Stats{
		Total:    len(records),
		DueToday: DueTodayCount(records, now),
	}

	for _, r := range records {
		switch {
		case r.Level >= MasteredLevel:
			s.Mastered++
		case r.Level > 0:
			s.Learning++
		case r.Level == 0:
			s.New++
		}
		s.TotalCorrect += r.CorrectCount
		s.TotalIncorrect += r.IncorrectCount
	}

	s.Accuracy = Accuracy(s.TotalCorrect, s.TotalIncorrect)
	return s
}

// Accuracy is the rounded percentage of correct answers, 0 when there are none.
func Accuracy(correct, incorrect int) int {
	total := correct + incorrect
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
