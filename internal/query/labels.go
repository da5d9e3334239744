package query

import (
	"fmt"
	"strconv"
	"time"
)

// Locale selects the language of the human-readable labels.
type Locale string

// Supported locales
const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh"
)

// StatsField names one row of a stats summary.
type StatsField string

// Stats rows, in display order.
const (
	StatsTotal     StatsField = "total"
	StatsMastered  StatsField = "mastered"
	StatsLearning  StatsField = "learning"
	StatsNew       StatsField = "new"
	StatsDueToday  StatsField = "dueToday"
	StatsCorrect   StatsField = "correct"
	StatsIncorrect StatsField = "incorrect"
	StatsAccuracy  StatsField = "accuracy"
)

type labelSet struct {
	levels  [8]string
	stats   map[StatsField]string
	unknown string
	now     string
	minutes func(n int) string
	hours   func(n int) string
	days    func(n int) string
}

var labelSets = map[Locale]labelSet{
	LocaleEnglish: {
		levels: [8]string{
			"new",
			"first memory",
			"short-term",
			"memorizing",
			"familiarizing",
			"basically mastered",
			"proficient",
			"fully mastered",
		},
		stats: map[StatsField]string{
			StatsTotal:     "total",
			StatsMastered:  "mastered",
			StatsLearning:  "learning",
			StatsNew:       "new",
			StatsDueToday:  "due today",
			StatsCorrect:   "correct",
			StatsIncorrect: "incorrect",
			StatsAccuracy:  "accuracy",
		},
		unknown: "unknown",
		now:     "now",
		minutes: func(n int) string { return fmt.Sprintf("in %d %s", n, plural(n, "minute")) },
		hours:   func(n int) string { return fmt.Sprintf("in %d %s", n, plural(n, "hour")) },
		days:    func(n int) string { return fmt.Sprintf("in %d %s", n, plural(n, "day")) },
	},
	LocaleChinese: {
		levels: [8]string{
			"新词汇",
			"初次记忆",
			"短期记忆",
			"记忆中",
			"熟悉中",
			"基本掌握",
			"熟练掌握",
			"完全掌握",
		},
		stats: map[StatsField]string{
			StatsTotal:     "总词汇",
			StatsMastered:  "已掌握",
			StatsLearning:  "学习中",
			StatsNew:       "新词汇",
			StatsDueToday:  "今日待复习",
			StatsCorrect:   "答对",
			StatsIncorrect: "答错",
			StatsAccuracy:  "正确率",
		},
		unknown: "未知",
		now:     "现在",
		minutes: func(n int) string { return strconv.Itoa(n) + "分钟后" },
		hours:   func(n int) string { return strconv.Itoa(n) + "小时后" },
		days:    func(n int) string { return strconv.Itoa(n) + "天后" },
	},
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Describer renders labels in one locale.
type Describer struct {
	labels labelSet
}

// NewDescriber returns a Describer for locale, falling back to English for
// unknown locales.
func NewDescriber(locale Locale) Describer {
	labels, ok := labelSets[locale]
	if !ok {
		labels = labelSets[LocaleEnglish]
	}
	return Describer{labels: labels}
}

// LevelDescription returns the label for level. There are eight labels,
// indexed 0 through 7; anything else is "unknown".
func (d Describer) LevelDescription(level int) string {
	if level < 0 || level >= len(d.labels.levels) {
		return d.labels.unknown
	}
	return d.labels.levels[level]
}

// StatsLabel returns the row label for field, or the field name itself when
// the locale has none.
func (d Describer) StatsLabel(field StatsField) string {
	if label, ok := d.labels.stats[field]; ok {
		return label
	}
	return string(field)
}

// NextReviewDescription describes how far next lies after now using the
// coarsest unit that is still at least one: minutes below an hour, hours
// below a day, days otherwise. Values are rounded down.
func (d Describer) NextReviewDescription(next, now time.Time) string {
	diff := next.Sub(now)
	if diff <= 0 {
		return d.labels.now
	}

	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 60:
		return d.labels.minutes(minutes)
	case hours < 24:
		return d.labels.hours(hours)
	default:
		return d.labels.days(days)
	}
}

var english = NewDescriber(LocaleEnglish)

// LevelDescription returns the English label for level.
func LevelDescription(level int) string {
	return english.LevelDescription(level)
}

// NextReviewDescription returns the English relative-time label.
func NextReviewDescription(next, now time.Time) string {
	return english.NextReviewDescription(next, now)
}

// BadgeLabel renders a due count for a notification badge: empty when
// nothing is due, capped at "99+".
func BadgeLabel(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > 99:
		return "99+"
	default:
		return strconv.Itoa(count)
	}
}
