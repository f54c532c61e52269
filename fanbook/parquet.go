package fanbook

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

const parquetBatch = 128

// readParquet loads a flat parquet file into rows keyed by column name, so
// it imports exactly like the CSV. Nulls and NaNs read as empty fields.
func readParquet(path string) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening fanbook")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "opening fanbook")
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, errors.Wrap(err, "reading fanbook parquet")
	}

	columns := pf.Schema().Columns()
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[strings.TrimSpace(col[len(col)-1])] = i
	}

	var rows []row
	for _, rg := range pf.RowGroups() {
		read, err := readRowGroup(rg, index, len(columns))
		if err != nil {
			return nil, err
		}
		rows = append(rows, read...)
	}
	return rows, nil
}

func readRowGroup(rg parquet.RowGroup, index map[string]int, ncol int) ([]row, error) {
	reader := rg.Rows()
	defer reader.Close()

	rows := make([]row, 0, rg.NumRows())
	buf := make([]parquet.Row, parquetBatch)
	for {
		n, err := reader.ReadRows(buf)
		for _, values := range buf[:n] {
			fields := make([]string, ncol)
			for _, v := range values {
				if c := v.Column(); c >= 0 && c < ncol {
					fields[c] = parquetString(v)
				}
			}
			rows = append(rows, row{index: index, fields: fields})
		}
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading fanbook parquet")
		}
	}
}

// parquetString renders a value the way the CSV spells it. Whole doubles
// drop their fraction, as counts stored by pandas come back as floats.
func parquetString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Double:
		return floatString(v.Double())
	case parquet.Float:
		return floatString(float64(v.Float()))
	default:
		return v.String()
	}
}

func floatString(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
