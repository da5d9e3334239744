package jsonfile

import (
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain"
)

// recordJSON is the on-disk shape of a record. Timestamps are epoch
// milliseconds and lastReviewTime is null until the first review.
type recordJSON struct {
	ID             string `json:"id"`
	Word           string `json:"word"`
	Chinese        string `json:"chinese"`
	Phonetic       string `json:"phonetic"`
	PartOfSpeech   string `json:"partOfSpeech"`
	Example        string `json:"example"`
	Translation    string `json:"translation"`
	Difficulty     string `json:"difficulty"`
	Tips           string `json:"tips"`
	Level          int    `json:"level"`
	CorrectCount   int    `json:"correctCount"`
	IncorrectCount int    `json:"incorrectCount"`
	NextReviewTime int64  `json:"nextReviewTime"`
	LastReviewTime *int64 `json:"lastReviewTime"`
	CreatedAt      int64  `json:"createdAt"`
	Source         string `json:"source"`
}

func toJSON(r domain.VocabularyRecord) recordJSON {
	out := recordJSON{
		ID:             r.ID,
		Word:           r.Word,
		Chinese:        r.Chinese,
		Phonetic:       r.Phonetic,
		PartOfSpeech:   r.PartOfSpeech,
		Example:        r.Example,
		Translation:    r.Translation,
		Difficulty:     string(r.Difficulty),
		Tips:           r.Tips,
		Level:          r.Level,
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
		NextReviewTime: r.NextReviewTime.UnixMilli(),
		CreatedAt:      r.CreatedAt.UnixMilli(),
		Source:         string(r.Source),
	}
	if r.LastReviewTime != nil {
		ms := r.LastReviewTime.UnixMilli()
		out.LastReviewTime = &ms
	}
	return out
}

func fromJSON(r recordJSON) domain.VocabularyRecord {
	out := domain.VocabularyRecord{
		ID:             r.ID,
		Word:           r.Word,
		Chinese:        r.Chinese,
		Phonetic:       r.Phonetic,
		PartOfSpeech:   r.PartOfSpeech,
		Example:        r.Example,
		Translation:    r.Translation,
		Difficulty:     domain.Difficulty(r.Difficulty),
		Tips:           r.Tips,
		Level:          r.Level,
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
		NextReviewTime: fromMillis(r.NextReviewTime),
		CreatedAt:      fromMillis(r.CreatedAt),
		Source:         domain.Source(r.Source),
	}
	if r.LastReviewTime != nil {
		t := fromMillis(*r.LastReviewTime)
		out.LastReviewTime = &t
	}
	return out
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
