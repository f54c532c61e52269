package fanbook

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/padraicbc/boatrace/db/dbtest"
	"github.com/padraicbc/boatrace/models"
)

func TestParseFilename(t *testing.T) {
	testCases := []struct {
		path       string
		year, term int
		format     string
	}{
		{"data/fan2410.csv", 2024, 2, "csv"},
		{"fan2403.csv", 2023, 2, "csv"},
		{"fan2404.parquet", 2024, 1, "parquet"},
		{"/tmp/fan2409.csv", 2024, 1, "csv"},
		{"fan2412.csv", 2024, 2, "csv"},
		{"fan2501.csv", 2024, 2, "csv"},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			f, err := ParseFilename(tc.path)
			require.NoError(t, err)
			require.Equal(t, tc.year, f.Year)
			require.Equal(t, tc.term, f.Term)
			require.Equal(t, tc.format, f.Format)
		})
	}

	for _, bad := range []string{"fan2413.csv", "fan2400.csv", "fan24.csv", "fan2410.xlsx", "xfan2410.csv"} {
		_, err := ParseFilename(bad)
		require.True(t, errors.Is(err, ErrFilename), bad)
	}
}

const header = "登番,名前漢字,支部,出身地,年号,生年月日,級,勝率,複勝率,出走回数,1着回数,2着回数,平均スタートタイミング," +
	"1コース進入回数,1コース1着回数,1コース2着回数,1コース複勝率,1コース平均スタートタイミング,1コース平均スタート順位," +
	"2コース進入回数,2コース1着回数,コースなしL0回数,コースなしK1回数"

func writeFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	bdb := dbtest.New(t)

	content := "\ufeff" + header + "\n" +
		"4320,峰　竜太,佐賀,佐賀,S,600304,A1,810,6250,120,45,30,12,40,30,5,8750,11,150,20,10,,\n" +
		"abc,不明,,,,,,,,,,,,,,,,,,,,,\n" +
		"4444,桐生　順平,埼玉,福島,H,020305,A1,755,5500,110,33,25,14,,,,,,,,,1,2\n"
	path := writeFile(t, "fan2410.csv", content)

	stats, err := Import(ctx, bdb, path, EncodingUTF8, nil)
	require.NoError(t, err)
	require.Equal(t, Stats{Imported: 2, Skipped: 1}, stats)

	p := &models.Player{PlayerID: 4320}
	require.NoError(t, bdb.NewSelect().Model(p).WherePK().Scan(ctx))
	require.Equal(t, "峰竜太", *p.Name)
	require.Equal(t, "佐賀", *p.Hometown)
	require.Equal(t, time.Date(1985, 3, 4, 0, 0, 0, 0, time.UTC), p.BirthDate.UTC())

	s := &models.PlayerSeasonSummary{PlayerID: 4320, Year: 2024, Term: 2}
	require.NoError(t, bdb.NewSelect().Model(s).WherePK().Scan(ctx))
	require.Equal(t, "2024-10-01", s.CalcStart.Format(time.DateOnly))
	require.Equal(t, "2025-03-31", s.CalcEnd.Format(time.DateOnly))
	require.True(t, decimal.RequireFromString("8.10").Equal(*s.WinRate))
	require.True(t, decimal.RequireFromString("0.12").Equal(*s.AvgST))
	require.Nil(t, s.QuinellaRate)
	require.Equal(t, 120, *s.Starts)

	var lanes []models.PlayerLaneSummary
	require.NoError(t, bdb.NewSelect().Model(&lanes).Where("player_id = ?", 4320).Order("lane").Scan(ctx))
	require.Len(t, lanes, 2)
	require.Equal(t, 1, lanes[0].Lane)
	require.Equal(t, 40, *lanes[0].Starts)
	require.True(t, decimal.RequireFromString("87.50").Equal(*lanes[0].QuinellaRate))
	require.True(t, decimal.RequireFromString("1.50").Equal(*lanes[0].AvgStartRank))
	require.Equal(t, 2, lanes[1].Lane)

	lanes = nil
	require.NoError(t, bdb.NewSelect().Model(&lanes).Where("player_id = ?", 4444).Order("lane").Scan(ctx))
	require.Len(t, lanes, 1)
	require.Equal(t, 0, lanes[0].Lane)
	require.Equal(t, 1, *lanes[0].L0Count)
	require.Equal(t, 2, *lanes[0].K1Count)
	require.Nil(t, lanes[0].Starts)

	// Importing again updates in place.
	stats, err = Import(ctx, bdb, path, EncodingUTF8, nil)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Imported)
	n, err := bdb.NewSelect().Model((*models.PlayerSeasonSummary)(nil)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestImportShiftJIS(t *testing.T) {
	ctx := context.Background()
	bdb := dbtest.New(t)

	utf8 := header + "\n4320,峰　竜太,佐賀,佐賀,S,600304,A1,810,6250,120,45,30,12,,,,,,,,,,\n"
	sjis, err := japanese.ShiftJIS.NewEncoder().String(utf8)
	require.NoError(t, err)
	path := writeFile(t, "fan2503.csv", sjis)

	stats, err := Import(ctx, bdb, path, EncodingShiftJIS, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Imported)

	s := &models.PlayerSeasonSummary{PlayerID: 4320, Year: 2024, Term: 2}
	require.NoError(t, bdb.NewSelect().Model(s).WherePK().Scan(ctx))
	require.Equal(t, "A1", *s.Grade)
}

// writeParquet writes records, keyed by column name, in schema column order.
// Missing keys are written as nulls.
func writeParquet(t testing.TB, name string, schema *parquet.Schema, records []map[string]any) string {
	t.Helper()
	cols := schema.Columns()
	rows := make([]parquet.Row, 0, len(records))
	for _, rec := range records {
		r := make(parquet.Row, 0, len(cols))
		for i, col := range cols {
			leaf, ok := schema.Lookup(col...)
			require.True(t, ok)
			v, ok := rec[col[0]]
			if !ok {
				r = append(r, parquet.NullValue().Level(0, 0, i))
				continue
			}
			r = append(r, parquet.ValueOf(v).Level(0, leaf.MaxDefinitionLevel, i))
		}
		rows = append(rows, r)
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewWriter(f, schema)
	_, err = w.WriteRows(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestImportParquet(t *testing.T) {
	ctx := context.Background()
	bdb := dbtest.New(t)

	schema := parquet.NewSchema("fanbook", parquet.Group{
		"登番":        parquet.Optional(parquet.Leaf(parquet.DoubleType)),
		"名前漢字":      parquet.String(),
		"支部":        parquet.Optional(parquet.String()),
		"年号":        parquet.Optional(parquet.String()),
		"生年月日":      parquet.Optional(parquet.String()),
		"級":         parquet.Optional(parquet.String()),
		"勝率":        parquet.Int(64),
		"出走回数":      parquet.Optional(parquet.Leaf(parquet.DoubleType)),
		"1コース進入回数":  parquet.Optional(parquet.Int(64)),
		"1コース複勝率":   parquet.Optional(parquet.Leaf(parquet.DoubleType)),
		"コースなしK1回数": parquet.Optional(parquet.Leaf(parquet.DoubleType)),
	})
	path := writeParquet(t, "fan2410.parquet", schema, []map[string]any{
		{
			"登番": 4320.0, "名前漢字": "峰　竜太", "支部": "佐賀", "年号": "S", "生年月日": "600304", "級": "A1",
			"勝率": int64(810), "出走回数": 120.0, "1コース進入回数": int64(40), "1コース複勝率": 8750.0,
			"コースなしK1回数": math.NaN(),
		},
		{"名前漢字": "不明", "勝率": int64(0)},
	})

	stats, err := Import(ctx, bdb, path, EncodingUTF8, nil)
	require.NoError(t, err)
	require.Equal(t, Stats{Imported: 1, Skipped: 1}, stats)

	p := &models.Player{PlayerID: 4320}
	require.NoError(t, bdb.NewSelect().Model(p).WherePK().Scan(ctx))
	require.Equal(t, "峰竜太", *p.Name)
	require.Equal(t, "佐賀", *p.Branch)
	require.Nil(t, p.Hometown)
	require.Equal(t, time.Date(1985, 3, 4, 0, 0, 0, 0, time.UTC), p.BirthDate.UTC())

	s := &models.PlayerSeasonSummary{PlayerID: 4320, Year: 2024, Term: 2}
	require.NoError(t, bdb.NewSelect().Model(s).WherePK().Scan(ctx))
	require.True(t, decimal.RequireFromString("8.10").Equal(*s.WinRate))
	require.Equal(t, 120, *s.Starts)
	require.Nil(t, s.Wins)

	var lanes []models.PlayerLaneSummary
	require.NoError(t, bdb.NewSelect().Model(&lanes).Where("player_id = ?", 4320).Order("lane").Scan(ctx))
	require.Len(t, lanes, 1)
	require.Equal(t, 1, lanes[0].Lane)
	require.Equal(t, 40, *lanes[0].Starts)
	require.True(t, decimal.RequireFromString("87.50").Equal(*lanes[0].QuinellaRate))
}

func TestParquetString(t *testing.T) {
	testCases := []struct {
		v    parquet.Value
		want string
	}{
		{parquet.ValueOf(4320.0), "4320"},
		{parquet.ValueOf(6.52), "6.52"},
		{parquet.ValueOf(math.NaN()), ""},
		{parquet.ValueOf(int64(810)), "810"},
		{parquet.ValueOf("A1"), "A1"},
		{parquet.NullValue(), ""},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, parquetString(tc.v))
	}
}

func TestImportRejects(t *testing.T) {
	ctx := context.Background()
	bdb := dbtest.New(t)

	_, err := Import(ctx, bdb, writeFile(t, "fan2410.parquet", "PAR1"), EncodingUTF8, nil)
	require.Error(t, err)

	_, err = Import(ctx, bdb, writeFile(t, "stats.csv", header), EncodingUTF8, nil)
	require.True(t, errors.Is(err, ErrFilename))

	_, err = Import(ctx, bdb, writeFile(t, "fan2410.csv", header), "latin-1", nil)
	require.Error(t, err)

	_, err = Import(ctx, bdb, filepath.Join(t.TempDir(), "fan2410.csv"), EncodingUTF8, nil)
	require.Error(t, err)
}

func TestLaneSummaryNoCourse(t *testing.T) {
	r := row{
		index:  map[string]int{"コースなしL0回数": 0, "コースなし進入回数": 1},
		fields: []string{"", "5"},
	}
	// No-course starts are not a published column and never read.
	require.Nil(t, laneSummary(r, 0))

	r.fields[0] = "1"
	ls := laneSummary(r, 0)
	require.NotNil(t, ls)
	require.Nil(t, ls.Starts)
	require.Equal(t, 1, *ls.L0Count)
}

func TestRacerName(t *testing.T) {
	require.Equal(t, "峰竜太", *racerName(strPtr("峰　竜太 ")))
	require.Nil(t, racerName(strPtr("　")))
	require.Nil(t, racerName(nil))
	require.True(t, strings.HasPrefix(coursePrefix(3), "3"))
}

func strPtr(s string) *string { return &s }
