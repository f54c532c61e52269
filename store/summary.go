package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/models"
)

// UpsertSeasonSummary creates or partially updates a player's term summary.
func UpsertSeasonSummary(ctx context.Context, idb bun.IDB, in *models.PlayerSeasonSummary) error {
	cur := &models.PlayerSeasonSummary{PlayerID: in.PlayerID, Year: in.Year, Term: in.Term}
	err := idb.NewSelect().Model(cur).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := idb.NewInsert().Model(in).Exec(ctx)
		return errors.Wrapf(err, "inserting season summary %d/%d/%d", in.PlayerID, in.Year, in.Term)
	}
	if err != nil {
		return errors.Wrap(err, "selecting season summary")
	}

	p := patch{cols: []string{"calc_start", "calc_end"}}
	cur.CalcStart, cur.CalcEnd = in.CalcStart, in.CalcEnd
	set(&p, "grade", &cur.Grade, in.Grade)
	set(&p, "win_rate", &cur.WinRate, in.WinRate)
	set(&p, "quinella_rate", &cur.QuinellaRate, in.QuinellaRate)
	set(&p, "starts", &cur.Starts, in.Starts)
	set(&p, "wins", &cur.Wins, in.Wins)
	set(&p, "seconds", &cur.Seconds, in.Seconds)
	set(&p, "avg_st", &cur.AvgST, in.AvgST)
	set(&p, "ability_idx", &cur.AbilityIdx, in.AbilityIdx)
	set(&p, "prev_ability_idx", &cur.PrevAbilityIdx, in.PrevAbilityIdx)
	return errors.Wrapf(p.apply(ctx, idb, cur), "updating season summary %d/%d/%d", in.PlayerID, in.Year, in.Term)
}

// UpsertLaneSummary creates or partially updates one course of a player's
// term summary.
func UpsertLaneSummary(ctx context.Context, idb bun.IDB, in *models.PlayerLaneSummary) error {
	cur := &models.PlayerLaneSummary{PlayerID: in.PlayerID, Year: in.Year, Term: in.Term, Lane: in.Lane}
	err := idb.NewSelect().Model(cur).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := idb.NewInsert().Model(in).Exec(ctx)
		return errors.Wrapf(err, "inserting lane summary %d/%d/%d/%d", in.PlayerID, in.Year, in.Term, in.Lane)
	}
	if err != nil {
		return errors.Wrap(err, "selecting lane summary")
	}

	var p patch
	set(&p, "starts", &cur.Starts, in.Starts)
	set(&p, "wins", &cur.Wins, in.Wins)
	set(&p, "seconds", &cur.Seconds, in.Seconds)
	set(&p, "thirds", &cur.Thirds, in.Thirds)
	set(&p, "fourths", &cur.Fourths, in.Fourths)
	set(&p, "fifths", &cur.Fifths, in.Fifths)
	set(&p, "sixths", &cur.Sixths, in.Sixths)
	set(&p, "f_count", &cur.FCount, in.FCount)
	set(&p, "l0_count", &cur.L0Count, in.L0Count)
	set(&p, "l1_count", &cur.L1Count, in.L1Count)
	set(&p, "k0_count", &cur.K0Count, in.K0Count)
	set(&p, "k1_count", &cur.K1Count, in.K1Count)
	set(&p, "s0_count", &cur.S0Count, in.S0Count)
	set(&p, "s1_count", &cur.S1Count, in.S1Count)
	set(&p, "s2_count", &cur.S2Count, in.S2Count)
	set(&p, "quinella_rate", &cur.QuinellaRate, in.QuinellaRate)
	set(&p, "avg_st", &cur.AvgST, in.AvgST)
	set(&p, "avg_start_rank", &cur.AvgStartRank, in.AvgStartRank)
	return errors.Wrapf(p.apply(ctx, idb, cur), "updating lane summary %d/%d/%d/%d", in.PlayerID, in.Year, in.Term, in.Lane)
}
