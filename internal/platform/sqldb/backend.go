package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/redact"
	"github.com/phrazzld/vocab-srs/internal/store"
)

// Dialect names a supported database/sql driver.
type Dialect string

// Supported dialects
const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "pgx"
)

func (d Dialect) gooseDialect() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

func (d Dialect) migrationsDir() string {
	if d == DialectPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// Validate reports whether d is supported.
func (d Dialect) Validate() error {
	switch d {
	case DialectSQLite, DialectPostgres:
		return nil
	default:
		return fmt.Errorf("unsupported sql dialect %q", string(d))
	}
}

// Config describes how to reach the database.
type Config struct {
	Dialect Dialect
	// DSN is a file path for SQLite or a connection URL for PostgreSQL.
	DSN string
	// Timeout bounds each Load or Save. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

const (
	selectRecordsSQL = `SELECT id, word, chinese, phonetic, part_of_speech, example, translation,
	difficulty, tips, level, correct_count, incorrect_count, next_review_time, last_review_time,
	created_at, source
FROM vocabulary
ORDER BY position`

	deleteRecordsSQL = `DELETE FROM vocabulary`

	insertRecordSQL = `INSERT INTO vocabulary (id, position, word, word_key, chinese, phonetic,
	part_of_speech, example, translation, difficulty, tips, level, correct_count, incorrect_count,
	next_review_time, last_review_time, created_at, source)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Backend is a store.Backend over a SQL table.
type Backend struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

// Open connects to the database described by cfg, applies migrations and
// returns a ready backend. The caller owns the returned backend and must
// Close it.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Dialect.Validate(); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.New("database dsn cannot be empty")
	}

	dsn := cfg.DSN
	if cfg.Dialect == DialectSQLite {
		dsn = sqliteDSN(cfg.DSN)
	}

	db, err := sqlx.Open(string(cfg.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Dialect == DialectSQLite {
		// One writer at a time; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	b := NewBackend(db, cfg.Timeout, cfg.Logger)

	pingCtx, cancel := b.withTimeout(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db, cfg.Dialect, b.logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	b.logger.Info("database ready",
		slog.String("dialect", string(cfg.Dialect)),
		slog.String("dsn", redact.DSN(cfg.DSN)))
	return b, nil
}

// NewBackend wraps an open connection without running migrations.
func NewBackend(db *sqlx.DB, timeout time.Duration, log *slog.Logger) *Backend {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		db:      db,
		timeout: timeout,
		logger:  log.With(slog.String("component", "sqldb_backend")),
	}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *sqlx.DB {
	return b.db
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// Load reads every row ordered by position.
func (b *Backend) Load(ctx context.Context) ([]domain.VocabularyRecord, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	return selectRecords(ctx, b.db)
}

// Save replaces the table contents with records in one transaction.
func (b *Backend) Save(ctx context.Context, records []domain.VocabularyRecord) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, b.logger))

	return store.RunInTransaction(ctx, b.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteRecordsSQL); err != nil {
			return fmt.Errorf("failed to clear vocabulary: %w", MapError(err))
		}
		return insertRecords(ctx, tx, records)
	})
}

func selectRecords(ctx context.Context, q store.DBTX) ([]domain.VocabularyRecord, error) {
	var rows []recordRow
	if err := q.SelectContext(ctx, &rows, selectRecordsSQL); err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", MapError(err))
	}

	records := make([]domain.VocabularyRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toDomain()
	}
	return records, nil
}

func insertRecords(ctx context.Context, q store.DBTX, records []domain.VocabularyRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, q.Rebind(insertRecordSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", MapError(err))
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		r := rowFromDomain(rec, i)
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Position, r.Word, r.WordKey, r.Chinese, r.Phonetic,
			r.PartOfSpeech, r.Example, r.Translation, r.Difficulty, r.Tips,
			r.Level, r.CorrectCount, r.IncorrectCount,
			r.NextReviewTime, r.LastReviewTime, r.CreatedAt, r.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %q: %w", rec.Word, MapError(err))
		}
	}
	return nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
}

// recordRow mirrors one vocabulary row. Timestamps are epoch milliseconds.
type recordRow struct {
	ID             string        `db:"id"`
	Position       int           `db:"position"`
	Word           string        `db:"word"`
	WordKey        string        `db:"word_key"`
	Chinese        string        `db:"chinese"`
	Phonetic       string        `db:"phonetic"`
	PartOfSpeech   string        `db:"part_of_speech"`
	Example        string        `db:"example"`
	Translation    string        `db:"translation"`
	Difficulty     string        `db:"difficulty"`
	Tips           string        `db:"tips"`
	Level          int           `db:"level"`
	CorrectCount   int           `db:"correct_count"`
	IncorrectCount int           `db:"incorrect_count"`
	NextReviewTime int64         `db:"next_review_time"`
	LastReviewTime sql.NullInt64 `db:"last_review_time"`
	CreatedAt      int64         `db:"created_at"`
	Source         string        `db:"source"`
}

func rowFromDomain(r domain.VocabularyRecord, position int) recordRow {
	row := recordRow{
		ID:             r.ID,
		Position:       position,
		Word:           r.Word,
		WordKey:        r.Key(),
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
		row.LastReviewTime = sql.NullInt64{Int64: r.LastReviewTime.UnixMilli(), Valid: true}
	}
	return row
}

func (r recordRow) toDomain() domain.VocabularyRecord {
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
		NextReviewTime: time.UnixMilli(r.NextReviewTime).UTC(),
		CreatedAt:      time.UnixMilli(r.CreatedAt).UTC(),
		Source:         domain.Source(r.Source),
	}
	if r.LastReviewTime.Valid {
		t := time.UnixMilli(r.LastReviewTime.Int64).UTC()
		out.LastReviewTime = &t
	}
	return out
}
