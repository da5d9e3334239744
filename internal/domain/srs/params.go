package srs

import (
	"errors"
	"math"
	"time"
)

// DefaultIntervalHours is the review interval table, indexed by level.
// 20 minutes, 1 hour, 9 hours, 1 day, 2 days, 6 days, 31 days.
var DefaultIntervalHours = []float64{0.33, 1, 9, 24, 48, 144, 744}

// ErrInvalidParams is returned when an interval table cannot be used.
var ErrInvalidParams = errors.New("invalid srs params")

// Params defines the parameters of the level-based SRS algorithm
type Params struct {
	// IntervalHours is indexed by level. Its length defines the number of
	// levels, so the maximum level is len(IntervalHours)-1.
	IntervalHours []float64
}

// NewDefaultParams creates a new Params instance with the default interval table
func NewDefaultParams() *Params {
	intervals := make([]float64, len(DefaultIntervalHours))
	copy(intervals, DefaultIntervalHours)
	return &Params{IntervalHours: intervals}
}

// NewParams creates a Params instance with a custom interval table.
// The table must be non-empty and every interval positive.
func NewParams(intervalHours []float64) (*Params, error) {
	if len(intervalHours) == 0 {
		return nil, ErrInvalidParams
	}
	intervals := make([]float64, len(intervalHours))
	for i, h := range intervalHours {
		if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, ErrInvalidParams
		}
		intervals[i] = h
	}
	return &Params{IntervalHours: intervals}, nil
}

// MaxLevel is the highest level a record can reach.
func (p *Params) MaxLevel() int {
	return len(p.IntervalHours) - 1
}

// Interval converts the interval for level into a duration, rounded to the
// millisecond so next review times stay representable as epoch milliseconds.
func (p *Params) Interval(level int) time.Duration {
	ms := math.Round(p.IntervalHours[level] * 3600 * 1000)
	return time.Duration(ms) * time.Millisecond
}
