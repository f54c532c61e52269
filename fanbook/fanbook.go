// Package fanbook imports the half-yearly racer statistics files published
// as fanYYMM.csv, or converted to fanYYMM.parquet.
package fanbook

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"

	"github.com/padraicbc/boatrace/db"
	"github.com/padraicbc/boatrace/logger"
)

// ErrFilename is returned for names not shaped like fanYYMM.csv.
var ErrFilename = errors.New("fanbook file name must look like fanYYMM.csv or fanYYMM.parquet")

// File formats, from the name's extension.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Encodings accepted for CSV input.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

var reFilename = regexp.MustCompile(`^fan(\d{2})(\d{2})\.(csv|parquet)$`)

// File describes a fanbook file from its name.
type File struct {
	Path   string
	Format string
	Year   int
	Term   int
}

// ParseFilename derives the statistics term from the YYMM in the file name.
// Months 4-9 are term 1 of 20YY, 10-12 term 2 of 20YY, and 1-3 term 2 of
// the previous year.
func ParseFilename(path string) (File, error) {
	m := reFilename.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return File{}, errors.Wrapf(ErrFilename, "%q", filepath.Base(path))
	}
	yy, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	year := 2000 + yy

	f := File{Path: path, Format: m[3]}
	switch {
	case mm >= 4 && mm <= 9:
		f.Year, f.Term = year, 1
	case mm >= 10 && mm <= 12:
		f.Year, f.Term = year, 2
	case mm >= 1 && mm <= 3:
		f.Year, f.Term = year-1, 2
	default:
		return File{}, errors.Wrapf(ErrFilename, "month %02d in %q", mm, filepath.Base(path))
	}
	return f, nil
}

// Stats counts imported and skipped rows.
type Stats struct {
	Imported int
	Skipped  int
}

// Import reads a fanbook file and upserts players, season summaries and
// lane summaries in a single transaction. Rows without a valid
// registration number are skipped; any storage error rolls back the file.
func Import(ctx context.Context, bdb *bun.DB, path, encoding string, log *zap.Logger) (Stats, error) {
	log = logger.OrNop(log)
	f, err := ParseFilename(path)
	if err != nil {
		return Stats{}, err
	}
	var rows []row
	if f.Format == FormatParquet {
		rows, err = readParquet(path)
	} else {
		rows, err = readCSV(path, encoding)
	}
	if err != nil {
		return Stats{}, err
	}
	log.Info("fanbook loaded",
		zap.String("path", path), zap.String("format", f.Format), zap.Int("year", f.Year), zap.Int("term", f.Term), zap.Int("rows", len(rows)))

	var stats Stats
	err = db.WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		stats = Stats{}
		for i, r := range rows {
			ok, err := importRow(ctx, tx, f, r)
			if err != nil {
				return errors.Wrapf(err, "line %d", i+2)
			}
			if !ok {
				log.Warn("invalid registration number, skipping row", zap.Int("line", i+2), zap.String("value", r.get(colPlayerID)))
				stats.Skipped++
				continue
			}
			stats.Imported++
			if stats.Imported%100 == 0 {
				log.Debug("fanbook progress", zap.Int("imported", stats.Imported))
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	log.Info("fanbook imported", zap.Int("imported", stats.Imported), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// row is one fanbook record addressed by column name.
type row struct {
	index  map[string]int
	fields []string
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) str(col string) *string {
	if s := r.get(col); s != "" {
		return &s
	}
	return nil
}

func (r row) num(col string) *int {
	s := width.Narrow.String(r.get(col))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func readCSV(path, encoding string) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening fanbook")
	}
	defer file.Close()

	var src io.Reader = bufio.NewReader(file)
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
	case EncodingShiftJIS:
		src = transform.NewReader(src, japanese.ShiftJIS.NewDecoder())
	default:
		return nil, errors.Newf("unknown fanbook encoding %q", encoding)
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading fanbook csv")
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := map[string]int{}
	for i, name := range records[0] {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.TrimSpace(name)] = i
	}
	rows := make([]row, 0, len(records)-1)
	for _, fields := range records[1:] {
		rows = append(rows, row{index: index, fields: fields})
	}
	return rows, nil
}
