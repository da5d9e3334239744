// Package importer turns spreadsheet word lists into insertion candidates.
//
// The first row of a sheet or CSV file is a header naming the columns;
// recognized names are matched case-insensitively and unknown columns are
// ignored. Only the word column is required.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/vocab-srs/internal/domain"
	"github.com/phrazzld/vocab-srs/internal/platform/logger"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrMissingWordColumn is returned when the header has no word column.
	ErrMissingWordColumn = errors.New("header has no word column")

	// ErrEmptyFile is returned when there is no header row.
	ErrEmptyFile = errors.New("import file is empty")
)

type field int

const (
	fieldWord field = iota
	fieldChinese
	fieldPhonetic
	fieldPartOfSpeech
	fieldExample
	fieldTranslation
	fieldDifficulty
	fieldTips
)

var headerAliases = map[string]field{
	"word":           fieldWord,
	"chinese":        fieldChinese,
	"phonetic":       fieldPhonetic,
	"partofspeech":   fieldPartOfSpeech,
	"part_of_speech": fieldPartOfSpeech,
	"part of speech": fieldPartOfSpeech,
	"example":        fieldExample,
	"translation":    fieldTranslation,
	"difficulty":     fieldDifficulty,
	"tips":           fieldTips,
}

// SkippedRow is a data row that produced no candidate.
type SkippedRow struct {
	// Row is the 1-based row number in the file, header included.
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of reading one file.
type Result struct {
	Candidates []domain.WordCandidate `json:"candidates"`
	Skipped    []SkippedRow           `json:"skipped"`
	// Rows counts data rows, excluding the header.
	Rows int `json:"rows"`
}

// Options controls ImportFile.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string
}

// ImportFile reads a .xlsx or .csv word list.
func ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(ctx, f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(ctx, f, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads a comma-separated word list.
func ReadCSV(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRows(ctx, rows)
}

// ReadXLSX reads a worksheet from an Excel workbook.
func ReadXLSX(ctx context.Context, r io.Reader, sheet string) (*Result, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRows(ctx, rows)
}

func fromRows(ctx context.Context, rows [][]string) (*Result, error) {
	log := logger.FromContext(ctx).With(slog.String("component", "importer"))

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	res := &Result{
		Candidates: make([]domain.WordCandidate, 0, len(rows)-1),
		Skipped:    []SkippedRow{},
	}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		res.Rows++

		c := candidateFromRow(row, columns)
		if err := c.Validate(); err != nil {
			reason := err.Error()
			if errors.Is(err, domain.ErrEmptyWord) {
				reason = "missing word"
			}
			log.Debug("skipping import row", slog.Int("row", rowNum), slog.String("reason", reason))
			res.Skipped = append(res.Skipped, SkippedRow{Row: rowNum, Reason: reason})
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}

	log.Info("import file read",
		slog.Int("rows", res.Rows),
		slog.Int("candidates", len(res.Candidates)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// mapHeader returns the column index of each recognized field.
func mapHeader(header []string) (map[field]int, error) {
	columns := make(map[field]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		f, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, seen := columns[f]; !seen {
			columns[f] = i
		}
	}
	if _, ok := columns[fieldWord]; !ok {
		return nil, ErrMissingWordColumn
	}
	return columns, nil
}

func candidateFromRow(row []string, columns map[field]int) domain.WordCandidate {
	cell := func(f field) string {
		i, ok := columns[f]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return domain.WordCandidate{
		Word:         cell(fieldWord),
		Chinese:      cell(fieldChinese),
		Phonetic:     cell(fieldPhonetic),
		PartOfSpeech: cell(fieldPartOfSpeech),
		Example:      cell(fieldExample),
		Translation:  cell(fieldTranslation),
		Difficulty:   domain.Difficulty(strings.ToLower(cell(fieldDifficulty))),
		Tips:         cell(fieldTips),
		Source:       domain.SourceManual,
	}
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
