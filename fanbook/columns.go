package fanbook

import (
	"context"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/record"
	"github.com/padraicbc/boatrace/store"
)

// Column headers of the fanbook CSV.
const (
	colPlayerID  = "登番"
	colName      = "名前漢字"
	colBranch    = "支部"
	colHometown  = "出身地"
	colEra       = "年号"
	colBirthDate = "生年月日"
	colGrade     = "級"
	colWinRate   = "勝率"
	colStarts    = "出走回数"
	colWins      = "1着回数"
	colSeconds   = "2着回数"
	colAvgST     = "平均スタートタイミング"

	noCoursePrefix = "コースなし"
)

func coursePrefix(lane int) string {
	if lane == 0 {
		return noCoursePrefix
	}
	return strconv.Itoa(lane) + "コース"
}

// importRow stores one racer. It reports false when the row has no usable
// registration number.
func importRow(ctx context.Context, idb bun.IDB, f File, r row) (bool, error) {
	id := r.num(colPlayerID)
	if id == nil || *id <= 0 {
		return false, nil
	}

	player := &models.Player{
		PlayerID:  *id,
		Name:      racerName(r.str(colName)),
		Branch:    r.str(colBranch),
		Hometown:  r.str(colHometown),
		BirthDate: record.EraDate(r.get(colEra), r.get(colBirthDate)),
	}
	if err := store.UpsertPlayer(ctx, idb, player, nil); err != nil {
		return false, err
	}

	start, end := record.TermDates(f.Year, f.Term)
	season := &models.PlayerSeasonSummary{
		PlayerID:  *id,
		Year:      f.Year,
		Term:      f.Term,
		CalcStart: start,
		CalcEnd:   end,
		Grade:     r.str(colGrade),
		WinRate:   record.FixedPoint(r.get(colWinRate)),
		Starts:    r.num(colStarts),
		Wins:      r.num(colWins),
		Seconds:   r.num(colSeconds),
		AvgST:     record.FixedPoint(r.get(colAvgST)),
	}
	if err := store.UpsertSeasonSummary(ctx, idb, season); err != nil {
		return false, err
	}

	for lane := 0; lane <= 6; lane++ {
		ls := laneSummary(r, lane)
		if ls == nil {
			continue
		}
		ls.PlayerID, ls.Year, ls.Term = *id, f.Year, f.Term
		if err := store.UpsertLaneSummary(ctx, idb, ls); err != nil {
			return false, err
		}
	}
	return true, nil
}

// laneSummary maps the columns of one course, or returns nil when the row
// has nothing for it. The no-course bucket only carries lateness and
// non-start counts.
func laneSummary(r row, lane int) *models.PlayerLaneSummary {
	prefix := coursePrefix(lane)
	col := func(suffix string) string { return prefix + suffix }

	ls := &models.PlayerLaneSummary{
		Lane:    lane,
		L0Count: r.num(col("L0回数")),
		L1Count: r.num(col("L1回数")),
		K0Count: r.num(col("K0回数")),
		K1Count: r.num(col("K1回数")),
	}
	if lane > 0 {
		ls.Starts = r.num(col("進入回数"))
		ls.Wins = r.num(col("1着回数"))
		ls.Seconds = r.num(col("2着回数"))
		ls.Thirds = r.num(col("3着回数"))
		ls.Fourths = r.num(col("4着回数"))
		ls.Fifths = r.num(col("5着回数"))
		ls.Sixths = r.num(col("6着回数"))
		ls.FCount = r.num(col("F回数"))
		ls.S0Count = r.num(col("S0回数"))
		ls.S1Count = r.num(col("S1回数"))
		ls.S2Count = r.num(col("S2回数"))
		ls.QuinellaRate = record.FixedPoint(r.get(col("複勝率")))
		ls.AvgST = record.FixedPoint(r.get(col("平均スタートタイミング")))
		ls.AvgStartRank = record.FixedPoint(r.get(col("平均スタート順位")))
	}

	if ls.Starts == nil && ls.Wins == nil && ls.Seconds == nil && ls.Thirds == nil &&
		ls.Fourths == nil && ls.Fifths == nil && ls.Sixths == nil && ls.FCount == nil &&
		ls.L0Count == nil && ls.L1Count == nil && ls.K0Count == nil && ls.K1Count == nil &&
		ls.S0Count == nil && ls.S1Count == nil && ls.S2Count == nil &&
		ls.QuinellaRate == nil && ls.AvgST == nil && ls.AvgStartRank == nil {
		return nil
	}
	return ls
}

// racerName drops the padding spaces the file uses between family and
// given names, matching names scraped from race pages.
func racerName(s *string) *string {
	if s == nil {
		return nil
	}
	name := strings.NewReplacer("　", "", " ", "").Replace(*s)
	if name == "" {
		return nil
	}
	return &name
}
