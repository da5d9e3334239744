package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/importer"
	"github.com/phrazzld/vocab-srs/internal/query"
	"github.com/phrazzld/vocab-srs/internal/reminder"
	"github.com/spf13/pflag"
)

type command func(ctx context.Context, app *application, args []string) error

var commands = map[string]command{
	"add":    cmdAdd,
	"list":   cmdList,
	"due":    cmdDue,
	"review": cmdReview,
	"delete": cmdDelete,
	"stats":  cmdStats,
	"import": cmdImport,
	"watch":  cmdWatch,
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func cmdAdd(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet("add")
	var c domain.WordCandidate
	var difficulty string
	fs.StringVar(&c.Chinese, "chinese", "", "Chinese meaning")
	fs.StringVar(&c.Phonetic, "phonetic", "", "phonetic transcription")
	fs.StringVar(&c.PartOfSpeech, "pos", "", "part of speech")
	fs.StringVar(&c.Example, "example", "", "example sentence")
	fs.StringVar(&c.Translation, "translation", "", "translation of the example")
	fs.StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	fs.StringVar(&c.Tips, "tips", "", "memory tips")
	if err := parse(fs, args); err != nil {
		return err
	}

	c.Word = strings.Join(fs.Args(), " ")
	c.Difficulty = domain.Difficulty(strings.ToLower(difficulty))

	n, err := app.store.AddSingle(ctx, c)
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = fmt.Fprintf(app.out, "%q is already in the vocabulary\n", strings.TrimSpace(c.Word))
		return err
	}
	_, err = fmt.Fprintf(app.out, "added %q\n", strings.TrimSpace(c.Word))
	return err
}

func cmdList(ctx context.Context, app *application, args []string) error {
	if err := parse(newFlagSet("list"), args); err != nil {
		return err
	}
	return app.printRecords(app.store.GetAll(ctx))
}

func cmdDue(ctx context.Context, app *application, args []string) error {
	if err := parse(newFlagSet("due"), args); err != nil {
		return err
	}
	due := app.store.DueForReview(ctx)
	if len(due) == 0 {
		_, err := fmt.Fprintln(app.out, "nothing to review")
		return err
	}
	return app.printRecords(due)
}

func cmdReview(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet("review")
	correct := fs.Bool("correct", false, "the word was recalled")
	incorrect := fs.Bool("incorrect", false, "the word was forgotten")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: review takes exactly one id", errUsage)
	}
	if *correct == *incorrect {
		return fmt.Errorf("%w: pass exactly one of --correct or --incorrect", errUsage)
	}

	rec, err := app.store.Review(ctx, fs.Arg(0), *correct)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "%s: %s, next review %s\n",
		rec.Word,
		app.describer.LevelDescription(rec.Level),
		app.describer.NextReviewDescription(rec.NextReviewTime, app.store.Now()))
	return err
}

func cmdDelete(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet("delete")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: delete takes exactly one id", errUsage)
	}
	return app.store.Delete(ctx, fs.Arg(0))
}

func cmdStats(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet("stats")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}

	s := app.store.Stats(ctx)
	if *asJSON {
		enc := json.NewEncoder(app.out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	rows := []struct {
		field query.StatsField
		value int
	}{
		{query.StatsTotal, s.Total},
		{query.StatsMastered, s.Mastered},
		{query.StatsLearning, s.Learning},
		{query.StatsNew, s.New},
		{query.StatsDueToday, s.DueToday},
		{query.StatsCorrect, s.TotalCorrect},
		{query.StatsIncorrect, s.TotalIncorrect},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", app.describer.StatsLabel(r.field), r.value)
	}
	_, _ = fmt.Fprintf(w, "%s\t%d%%\n", app.describer.StatsLabel(query.StatsAccuracy), s.Accuracy)
	return w.Flush()
}

func cmdImport(ctx context.Context, app *application, args []string) error {
	fs := newFlagSet("import")
	sheet := fs.String("sheet", "", "worksheet name (xlsx only)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import takes exactly one file", errUsage)
	}

	res, err := importer.ImportFile(ctx, fs.Arg(0), importer.Options{Sheet: *sheet})
	if err != nil {
		return err
	}

	n, err := app.store.AddWords(ctx, res.Candidates)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(app.out, "imported %d of %d rows (%d already known, %d skipped)\n",
		n, res.Rows, len(res.Candidates)-n, len(res.Skipped))
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		if _, err := fmt.Fprintf(app.out, "  row %d: %s\n", s.Row, s.Reason); err != nil {
			return err
		}
	}
	return nil
}

func cmdWatch(ctx context.Context, app *application, args []string) error {
	if err := parse(newFlagSet("watch"), args); err != nil {
		return err
	}
	if !app.cfg.Reminder.Enabled {
		return errors.New("reminder is disabled (reminder.enabled=false)")
	}

	loc, err := app.cfg.Schedule.Location()
	if err != nil {
		return err
	}

	r := reminder.New(app.store,
		reminder.LogNotifier{Logger: app.logger},
		app.cfg.Reminder.Interval,
		reminder.WithLogger(app.logger),
		reminder.WithLocation(loc))
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer r.Stop()

	app.logger.Info("watching for due words", slog.Duration("interval", app.cfg.Reminder.Interval))
	<-ctx.Done()
	return nil
}

func (app *application) printRecords(records []domain.VocabularyRecord) error {
	now := app.store.Now()
	w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWORD\tCHINESE\tLEVEL\tNEXT REVIEW")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Word,
			r.Chinese,
			app.describer.LevelDescription(r.Level),
			app.describer.NextReviewDescription(r.NextReviewTime, now))
	}
	return w.Flush()
}
