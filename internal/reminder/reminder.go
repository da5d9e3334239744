// Package reminder periodically tells a Notifier how many words are waiting
// for review. It stands in for the review badge: DueNow is the queue the user
// can work through immediately and DueToday is what the badge shows.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/query"
)

// ErrAlreadyRunning is returned by Start on a started Reminder.
var ErrAlreadyRunning = errors.New("reminder already running")

// DueSource supplies the due views. *vocabulary.Store satisfies it.
type DueSource interface {
	DueForReview(ctx context.Context) []domain.VocabularyRecord
	DueTodayCount(ctx context.Context) int
	Now() time.Time
}

// Reloader is implemented by sources backed by storage that other processes
// also write. Such a source is reloaded before every summary.
type Reloader interface {
	Reload(ctx context.Context) error
}

// DueSummary is one reminder tick.
type DueSummary struct {
	At       time.Time `json:"at"`
	DueNow   int       `json:"dueNow"`
	DueToday int       `json:"dueToday"`
	Badge    string    `json:"badge"`
}

// Notifier receives every summary, including ones with nothing due so a
// badge can be cleared.
type Notifier interface {
	Notify(ctx context.Context, summary DueSummary) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, summary DueSummary) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, summary DueSummary) error {
	return f(ctx, summary)
}

// Reminder runs the due check on a fixed interval.
type Reminder struct {
	source   DueSource
	notifier Notifier
	interval time.Duration
	loc      *time.Location
	logger   *slog.Logger

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// Option configures a Reminder.
type Option func(*Reminder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reminder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLocation sets the scheduler time zone.
func WithLocation(loc *time.Location) Option {
	return func(r *Reminder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New builds a Reminder. It panics on nil collaborators or a non-positive
// interval.
func New(source DueSource, notifier Notifier, interval time.Duration, opts ...Option) *Reminder {
	if source == nil {
		panic("source cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if interval <= 0 {
		panic("interval must be positive")
	}

	r := &Reminder{
		source:   source,
		notifier: notifier,
		interval: interval,
		loc:      time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "reminder"))
	return r
}

// Start schedules the check every interval, running the first one
// immediately. ctx is handed to every run; cancelling it does not stop the
// scheduler, Stop does.
func (r *Reminder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler != nil {
		return ErrAlreadyRunning
	}

	s := gocron.NewScheduler(r.loc)
	s.SingletonModeAll()

	if _, err := s.Every(r.interval).Do(func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}
	s.StartAsync()
	r.scheduler = s

	r.logger.Info("reminder started", slog.Duration("interval", r.interval))
	return nil
}

// Stop halts the scheduler. It is safe to call on a stopped Reminder.
func (r *Reminder) Stop() {
	r.mu.Lock()
	s := r.scheduler
	r.scheduler = nil
	r.mu.Unlock()

	if s == nil {
		return
	}
	s.Stop()
	r.logger.Info("reminder stopped")
}

// Running reports whether the scheduler is active.
func (r *Reminder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduler != nil && r.scheduler.IsRunning()
}

// RunNow computes a summary and hands it to the notifier outside the
// schedule. The notifier error is returned to the caller.
func (r *Reminder) RunNow(ctx context.Context) (DueSummary, error) {
	summary := r.Summary(ctx)
	if err := r.notifier.Notify(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to notify: %w", err)
	}
	return summary, nil
}

// Summary computes the current due counts without notifying. A source that
// implements Reloader is reloaded first; if that fails the counts come from
// what it already holds.
func (r *Reminder) Summary(ctx context.Context) DueSummary {
	if rl, ok := r.source.(Reloader); ok {
		if err := rl.Reload(ctx); err != nil {
			logger.FromContextOrDefault(ctx, r.logger).Warn("reminder using cached vocabulary",
				slog.String("error", err.Error()))
		}
	}

	dueToday := r.source.DueTodayCount(ctx)
	return DueSummary{
		At:       r.source.Now(),
		DueNow:   len(r.source.DueForReview(ctx)),
		DueToday: dueToday,
		Badge:    query.BadgeLabel(dueToday),
	}
}

func (r *Reminder) tick(ctx context.Context) {
	log := logger.FromContextOrDefault(ctx, r.logger)
	summary, err := r.RunNow(ctx)
	if err != nil {
		log.Error("reminder notification failed",
			slog.String("error", err.Error()),
			slog.Int("due_now", summary.DueNow),
			slog.Int("due_today", summary.DueToday))
		return
	}
	log.Debug("reminder tick",
		slog.Int("due_now", summary.DueNow),
		slog.Int("due_today", summary.DueToday))
}

// LogNotifier writes each summary to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, summary DueSummary) error {
	l := n.Logger
	if l == nil {
		l = logger.FromContext(ctx)
	}
	l.Info("vocabulary due",
		slog.Int("due_now", summary.DueNow),
		slog.Int("due_today", summary.DueToday),
		slog.String("badge", summary.Badge),
		slog.Time("at", summary.At))
	return nil
}
