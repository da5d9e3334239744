package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/vocab-srs/internal/config"
	"github.com/phrazzld/vocab-srs/internal/platform/jsonfile"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/phrazzld/vocab-srs/internal/platform/memory"
	"github.com/phrazzld/vocab-srs/internal/platform/sqldb"
	"github.com/phrazzld/vocab-srs/internal/query"
	"github.com/phrazzld/vocab-srs/internal/redact"
	"github.com/phrazzld/vocab-srs/internal/store"
	"github.com/phrazzld/vocab-srs/internal/vocabulary"
	"github.com/spf13/pflag"
)

const usage = `usage: vocab [--config FILE] [--env-file FILE] [--locale en|zh] <command> [args]

commands:
  add <word>                 add a word (--chinese, --phonetic, --pos, --example,
                             --translation, --difficulty, --tips)
  list                       list every word
  due                        list words due for review now
  review <id>                record a review (--correct or --incorrect)
  delete <id>                delete a word
  stats                      show learning statistics (--json)
  import <file>              import an .xlsx or .csv word list (--sheet)
  watch                      log due-review reminders until interrupted
`

// errUsage marks command-line mistakes.
var errUsage = errors.New("usage error")

// application holds the wired components for one invocation.
type application struct {
	cfg       *config.Config
	store     *vocabulary.Store
	describer query.Describer
	logger    *slog.Logger
	out       io.Writer
	close     func() error
}

type globalFlags struct {
	configFile string
	envFile    string
	locale     string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("vocab", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }

	var g globalFlags
	fs.StringVar(&g.configFile, "config", "", "configuration file (yaml, json or toml)")
	fs.StringVar(&g.envFile, "env-file", ".env", "dotenv file to load")
	fs.StringVar(&g.locale, "locale", string(query.LocaleEnglish), "label language: en or zh")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return 1
	}

	cfg, err := config.LoadWithOptions(config.Options{EnvFile: g.envFile, ConfigFile: g.configFile})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.SetupWithWriter(cfg.Log, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to set up logger: %v\n", err)
		return 1
	}
	ctx = logger.WithLogger(ctx, log)

	app, err := newApplication(ctx, cfg, log, query.Locale(g.locale), stdout)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", redact.Error(err)))
		_, _ = fmt.Fprintf(stderr, "error: %s\n", redact.Error(err))
		return 1
	}
	defer func() {
		if err := app.close(); err != nil {
			log.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	if err := cmd(ctx, app, fs.Args()[1:]); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %s\n", redact.Error(err))
		return 1
	}
	return 0
}

// newApplication wires the configured backend into a Store.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	locale query.Locale,
	out io.Writer,
) (*application, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	backend, closeFn, err := openBackend(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	s, err := vocabulary.New(ctx, backend,
		vocabulary.WithLogger(log),
		vocabulary.WithLocation(loc),
	)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &application{
		cfg:       cfg,
		store:     s,
		describer: query.NewDescriber(locale),
		logger:    log,
		out:       out,
		close:     closeFn,
	}, nil
}

// openBackend returns the store.Backend selected by cfg.Driver and a
// function releasing its resources.
func openBackend(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (store.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewBackend(), noop, nil
	case config.DriverJSON:
		return jsonfile.New(cfg.Path, jsonfile.WithLogger(log)), noop, nil
	case config.DriverSQLite, config.DriverPostgres:
		dbCfg := sqldb.Config{
			Dialect: sqldb.DialectSQLite,
			DSN:     cfg.Path,
			Timeout: cfg.Timeout,
			Logger:  log,
		}
		if cfg.Driver == config.DriverPostgres {
			dbCfg.Dialect = sqldb.DialectPostgres
			dbCfg.DSN = cfg.URL
		}
		b, err := sqldb.Open(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Driver, err)
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
