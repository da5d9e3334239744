package vocabulary

import (
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-srs/internal/domain/srs"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLocation sets the time zone whose calendar day bounds the due-today count.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithScheduler replaces the default interval table.
func WithScheduler(svc srs.Service) Option {
	return func(s *Store) {
		if svc != nil {
			s.srs = svc
		}
	}
}
