// Package pipeline runs a day's scrape: for each venue and race it fetches
// the entry sheet, live conditions and result, merges them and stores the
// race.
package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/logger"
	"github.com/padraicbc/boatrace/record"
	"github.com/padraicbc/boatrace/scrape"
	"github.com/padraicbc/boatrace/store"
)

// RacesPerDay is the number of races a venue holds per day.
const RacesPerDay = 12

// Pipeline fetches and stores races one at a time.
type Pipeline struct {
	client   *scrape.Client
	db       *bun.DB
	log      *zap.Logger
	interval time.Duration
	maxVenue int
}

// New creates a Pipeline. interval is the pause between page fetches.
func New(client *scrape.Client, bdb *bun.DB, interval time.Duration, maxVenue int, log *zap.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		db:       bdb,
		log:      logger.OrNop(log),
		interval: interval,
		maxVenue: maxVenue,
	}
}

// Stats counts the outcome of a run.
type Stats struct {
	Races   int
	Failed  int
	Entries int
	Skipped int
	Payouts int
}

// Run scrapes hd. Empty venues means every venue active that day; empty
// races means 1 through 12. A race that fails is logged and the run moves
// on. Only cancellation or venue discovery failure stops it early.
func (p *Pipeline) Run(ctx context.Context, hd time.Time, venues []string, races []int) (Stats, error) {
	var stats Stats
	// first is cleared by the first fetch; every later fetch waits interval.
	first := true
	if len(venues) == 0 {
		active, err := p.client.ActiveVenues(ctx, hd, p.maxVenue)
		if err != nil {
			return stats, errors.Wrap(err, "discovering venues")
		}
		venues = active
		first = false
	}
	if len(races) == 0 {
		for rno := 1; rno <= RacesPerDay; rno++ {
			races = append(races, rno)
		}
	}
	p.log.Info("scrape starting",
		zap.String("hd", hd.Format("20060102")), zap.Strings("venues", venues), zap.Ints("races", races))

	for _, jcd := range venues {
		for _, rno := range races {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			key := record.Key{Hd: hd, Jcd: jcd, Rno: rno}
			saved, err := p.race(ctx, key, &first)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			if err != nil {
				p.log.Error("race failed",
					zap.String("jcd", jcd), zap.Int("rno", rno), zap.Error(err))
				stats.Failed++
				continue
			}
			stats.Races++
			stats.Entries += saved.Entries
			stats.Skipped += saved.Skipped
			stats.Payouts += saved.Payouts
		}
	}

	p.log.Info("scrape finished",
		zap.Int("races", stats.Races), zap.Int("failed", stats.Failed),
		zap.Int("entries", stats.Entries), zap.Int("payouts", stats.Payouts))
	return stats, nil
}

// race fetches the three pages of one race and saves whatever they yield.
func (p *Pipeline) race(ctx context.Context, key record.Key, first *bool) (store.Saved, error) {
	log := p.log.With(zap.String("jcd", key.Jcd), zap.Int("rno", key.Rno))

	fetch := func(u string) (string, bool, error) {
		if !*first {
			if err := sleep(ctx, p.interval); err != nil {
				return "", false, err
			}
		}
		*first = false
		body, err := p.client.Fetch(ctx, u)
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if err != nil {
			log.Warn("fetch failed", zap.String("url", u), zap.Error(err))
			return "", false, nil
		}
		return body, true, nil
	}

	var (
		entry  *scrape.EntrySheet
		live   *scrape.LiveInfo
		result *scrape.Result
	)

	body, ok, err := fetch(p.client.EntrySheetURL(key.Hd, key.Jcd, key.Rno))
	if err != nil {
		return store.Saved{}, err
	}
	if ok {
		if entry, err = scrape.ExtractEntrySheet(body, key.Rno, log); err != nil {
			log.Warn("entry sheet unreadable", zap.Error(err))
		}
	}

	body, ok, err = fetch(p.client.LiveURL(key.Hd, key.Jcd, key.Rno))
	if err != nil {
		return store.Saved{}, err
	}
	if ok {
		if live, err = scrape.ExtractLiveInfo(body, log); err != nil {
			log.Warn("live page unreadable", zap.Error(err))
		}
	}

	body, ok, err = fetch(p.client.ResultURL(key.Hd, key.Jcd, key.Rno))
	if err != nil {
		return store.Saved{}, err
	}
	if ok {
		if result, err = scrape.ExtractResult(body, log); err != nil {
			log.Warn("result page unreadable", zap.Error(err))
		}
	}

	if entry == nil && live == nil && result == nil {
		return store.Saved{}, errors.New("no page could be read")
	}

	race := record.Merge(key, entry, live, result)
	saved, err := store.SaveRace(ctx, p.db, &race, log)
	if err != nil {
		return store.Saved{}, err
	}
	log.Info("race saved",
		zap.Int("race_id", saved.RaceID), zap.Int("entries", saved.Entries), zap.Int("payouts", saved.Payouts))
	return saved, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
