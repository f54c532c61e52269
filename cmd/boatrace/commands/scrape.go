package commands

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/pipeline"
	"github.com/padraicbc/boatrace/scrape"
)

var (
	scrapeDate   *string
	scrapeVenues *[]string
	scrapeRaces  *[]int
)

func init() {
	scrapeDate = scrapeCmd.Flags().String("date", "", "The race day as YYYYMMDD (default today, JST).")
	scrapeVenues = scrapeCmd.Flags().StringSlice("venue", nil, "Venue codes to scrape, e.g. 01 (default every active venue).")
	scrapeRaces = scrapeCmd.Flags().IntSlice("race", nil, "Race numbers to scrape (default 1-12).")
	rootCmd.AddCommand(scrapeCmd)
}

var jst = time.FixedZone("JST", 9*60*60)

// parseDay reads YYYYMMDD as a calendar date; empty means today in Japan.
func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, d := now.In(jst).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	hd, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, errors.Newf("--date must be YYYYMMDD, got %q", s)
	}
	return hd, nil
}

func checkVenues(venues []string, maxVenue int) error {
	for _, jcd := range venues {
		n, err := strconv.Atoi(jcd)
		if err != nil || len(jcd) != 2 || n < 1 || n > maxVenue {
			return errors.Newf("--venue %q is not a venue code between 01 and %02d", jcd, maxVenue)
		}
	}
	return nil
}

func checkRaces(races []int) error {
	for _, rno := range races {
		if rno < 1 || rno > pipeline.RacesPerDay {
			return errors.Newf("--race %d is out of range 1-%d", rno, pipeline.RacesPerDay)
		}
	}
	return nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--date YYYYMMDD] [--venue 01 ...] [--race 1 ...]",
	Short: "Scrapes entry sheets, live conditions and results and stores them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hd, err := parseDay(*scrapeDate, time.Now())
		if err != nil {
			return err
		}
		if err := checkVenues(*scrapeVenues, cfg.MaxVenue); err != nil {
			return err
		}
		if err := checkRaces(*scrapeRaces); err != nil {
			return err
		}

		ctx := cmd.Context()
		bdb, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer bdb.Close()

		client := scrape.NewClient(cfg.BaseURL, cfg.UserAgent, cfg.Timeout, log)
		p := pipeline.New(client, bdb, cfg.Interval, cfg.MaxVenue, log)

		t1 := time.Now()
		stats, err := p.Run(ctx, hd, *scrapeVenues, *scrapeRaces)
		if err != nil {
			return err
		}
		log.Info("scraping time",
			zap.Float64("seconds", time.Since(t1).Seconds()), zap.Int("races", stats.Races), zap.Int("failed", stats.Failed))
		return nil
	},
}
