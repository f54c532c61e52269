package scrape

import (
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/logger"
)

var (
	reAmount = regexp.MustCompile(`([,\d]+)`)
	reST     = regexp.MustCompile(`^(F)?\s*(\d*\.\d+)`)
)

// Finish is one row of the finish order. RankRaw is kept as printed since
// it may be a code such as F or 欠 instead of a position.
type Finish struct {
	RankRaw  string
	Lane     int
	PlayerID *int
	Name     *string
	RaceTime *string
}

// PayoutLine is one winning combination of a bet type.
type PayoutLine struct {
	Boats      []int
	Amount     int
	Popularity *int
}

// StartTiming is the official start of one boat. Course is the position the
// boat took at the start, Lane its boat number.
type StartTiming struct {
	Course int
	Lane   int
	ST     *float64
	Flying bool
}

// Result is everything recovered from the post-race page.
type Result struct {
	Finishes  []Finish
	BetTypes  []string // labels in page order
	Payouts   map[string][]PayoutLine
	Technique *string
	Starts    []StartTiming
}

// ExtractResult parses the post-race page.
func ExtractResult(page string, log *zap.Logger) (*Result, error) {
	log = logger.OrNop(log)
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Finishes:  extractFinishes(doc, log),
		Technique: Text(doc.Find("div.table1 > table.is-w243.is-h108__3rdadd > tbody > tr > td")),
		Starts:    extractStartTimings(doc, log),
	}
	res.BetTypes, res.Payouts = extractPayouts(doc, log)
	return res, nil
}

func extractFinishes(doc *goquery.Document, log *zap.Logger) []Finish {
	tbodies := doc.Find("div.table1 > table.is-w495 > tbody")
	if tbodies.Length() == 0 {
		log.Warn("finish table not found")
		return nil
	}

	var finishes []Finish
	tbodies.Each(func(_ int, tbody *goquery.Selection) {
		// Payout tables share the markup; only finish rows carry a player id.
		if tbody.Find("tr > td:nth-child(3) > span.is-fs12").Length() == 0 {
			return
		}
		row := tbody.Find("tr").First()

		laneCell := row.Find("td:nth-child(2)")
		lane := Number(Text(laneCell), reDigits, Int)
		if lane == nil {
			lane = ClassIndex(laneCell, "is-boatColor", 1, LanesPerRace)
		}
		rank := Text(row.Find("td:nth-child(1)"))
		if lane == nil || rank == nil {
			log.Warn("finish row incomplete, skipping", zap.Bool("lane", lane != nil), zap.Bool("rank", rank != nil))
			return
		}
		if !validLane(*lane) {
			log.Warn("finish lane out of range, skipping", zap.Int("lane", *lane))
			return
		}

		player := row.Find("td:nth-child(3)")
		finishes = append(finishes, Finish{
			RankRaw:  *rank,
			Lane:     *lane,
			PlayerID: Number(Text(player.Find("span.is-fs12")), reDigits, Int),
			Name:     StripSpaces(Text(player.Find("span.is-fs18.is-fBold"))),
			RaceTime: Text(row.Find("td:nth-child(4)")),
		})
	})

	if len(finishes) != LanesPerRace {
		log.Warn("unexpected finish count", zap.Int("want", LanesPerRace), zap.Int("got", len(finishes)))
	}

	sort.SliceStable(finishes, func(i, j int) bool { return finishes[i].Lane < finishes[j].Lane })
	return finishes
}

// betGroup is what the carry-forward rule needs to know about one tbody of
// the payout table.
type betGroup struct {
	Label      *string
	RowSpan    bool
	HasNumbers bool
}

// nextBetType returns the bet-type label in force for g. A label cell that
// spans rows, or a non-empty first cell holding no boat numbers, starts a
// new bet type; anything else continues prev.
func nextBetType(prev string, g betGroup) string {
	if g.Label == nil {
		return prev
	}
	if g.RowSpan || !g.HasNumbers {
		return *g.Label
	}
	return prev
}

func newBetGroup(tbody *goquery.Selection) betGroup {
	first := tbody.Find("tr:nth-child(1) > td:nth-child(1)")
	_, rowspan := first.Attr("rowspan")
	return betGroup{
		Label:      Text(first),
		RowSpan:    rowspan,
		HasNumbers: first.Find(".numberSet1_number").Length() > 0,
	}
}

func extractPayouts(doc *goquery.Document, log *zap.Logger) ([]string, map[string][]PayoutLine) {
	table := doc.Find("div.grid.is-type2.h-clear:not(.h-mt10) table.is-w495").First()
	if table.Length() == 0 {
		log.Warn("payout table not found")
		return nil, nil
	}

	var (
		order   []string
		payouts = map[string][]PayoutLine{}
		betType string
	)
	table.Find("tbody").Each(func(_ int, tbody *goquery.Selection) {
		betType = nextBetType(betType, newBetGroup(tbody))
		if betType == "" || tbody.Find("td span.numberSet1_number").Length() == 0 {
			return
		}
		if _, seen := payouts[betType]; !seen {
			order = append(order, betType)
			payouts[betType] = nil
		}

		tbody.Find("tr").Each(func(_ int, row *goquery.Selection) {
			line, ok := extractPayoutLine(row)
			if !ok {
				return
			}
			if line.Amount < 0 {
				log.Warn("payout amount missing, skipping", zap.String("bet_type", betType), zap.Ints("boats", line.Boats))
				return
			}
			payouts[betType] = append(payouts[betType], line)
		})
	})

	return order, payouts
}

// extractPayoutLine reads one combination row. Rows without boat numbers
// are not payout rows; a negative amount marks a row whose amount could not
// be read.
func extractPayoutLine(row *goquery.Selection) (PayoutLine, bool) {
	combo := row.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return td.Find("div.numberSet1_row").Length() > 0
	}).First()
	if combo.Length() == 0 {
		return PayoutLine{}, false
	}

	var line PayoutLine
	combo.Find("div.numberSet1_row > span.numberSet1_number").Each(func(_ int, s *goquery.Selection) {
		if n := Number(Text(s), reDigits, Int); n != nil {
			line.Boats = append(line.Boats, *n)
		} else if n := ClassIndex(s, "is-type", 1, LanesPerRace); n != nil {
			line.Boats = append(line.Boats, *n)
		}
	})
	if len(line.Boats) == 0 {
		return PayoutLine{}, false
	}

	payCell := combo.Next()
	amount := Number(Text(payCell.Find("span.is-payout1")), reAmount, Comma)
	if amount == nil {
		line.Amount = -1
		return line, true
	}
	line.Amount = *amount
	line.Popularity = Number(Text(payCell.Next()), reDigits, Int)
	return line, true
}

func extractStartTimings(doc *goquery.Document, log *zap.Logger) []StartTiming {
	boats := doc.Find("table.is-h292__3rdadd div.table1_boatImage1")
	if boats.Length() == 0 {
		log.Warn("start timing table not found")
		return nil
	}

	var starts []StartTiming
	boats.Each(func(i int, boat *goquery.Selection) {
		lane := ClassIndex(boat.Find("span.table1_boatImage1Number"), "is-type", 1, LanesPerRace)
		if lane == nil {
			return
		}
		st := StartTiming{Course: i + 1, Lane: *lane}
		if text := Text(boat.Find("span.table1_boatImage1TimeInner")); text != nil {
			if m := reST.FindStringSubmatch(*text); m != nil {
				st.Flying = m[1] != ""
				st.ST = Number(&m[2], reDecimal, Float)
			}
		}
		starts = append(starts, st)
	})
	return starts
}
