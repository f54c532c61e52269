package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/logger"
)

// LanesPerRace is the number of boats in a full field.
const LanesPerRace = 6

func validLane(n int) bool { return n >= 1 && n <= LanesPerRace }

var (
	reDistance = regexp.MustCompile(`(\d+)m`)
	rePlayerID = regexp.MustCompile(`^(\d+)`)
	reAge      = regexp.MustCompile(`(\d+)歳`)
	reKg       = regexp.MustCompile(`([\d.]+)kg`)
	reF        = regexp.MustCompile(`F(\d+)`)
	reL        = regexp.MustCompile(`L(\d+)`)
	reDecimal  = regexp.MustCompile(`([\d.]+)`)
	reDigits   = regexp.MustCompile(`(\d+)`)
)

// RaceInfo is the race heading of an entry sheet.
type RaceInfo struct {
	Name              *string
	Distance          *int
	IsStablePlateUsed bool
	Deadline          *string
}

// EntryLane is one lane of the entry sheet.
type EntryLane struct {
	Lane     int
	PlayerID int

	Name     *string
	Class    *string
	Branch   *string
	Hometown *string
	Age      *int
	Weight   *float64

	FCount *int
	LCount *int
	AvgST  *float64

	NationwideWinRate      *float64
	NationwideTwoWinRate   *float64
	NationwideThreeWinRate *float64
	LocalWinRate           *float64
	LocalTwoWinRate        *float64
	LocalThreeWinRate      *float64

	MotorNo           *int
	MotorTwoWinRate   *float64
	MotorThreeWinRate *float64
	BoatNo            *int
	BoatTwoWinRate    *float64
	BoatThreeWinRate  *float64
}

// EntrySheet is everything recovered from the pre-race roster page.
type EntrySheet struct {
	Race  RaceInfo
	Lanes []EntryLane
}

func parseDocument(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, "parsing html")
	}
	return doc, nil
}

// ExtractEntrySheet parses the roster page for race rno. Lanes without a
// lane number or player id are skipped with a warning; all other fields are
// optional.
func ExtractEntrySheet(page string, rno int, log *zap.Logger) (*EntrySheet, error) {
	log = logger.OrNop(log)
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	sheet := &EntrySheet{Race: extractRaceInfo(doc, rno)}

	tbodies := doc.Find("div.table1.is-tableFixed__3rdadd > table > tbody")
	if tbodies.Length() == 0 {
		log.Warn("entry table not found")
		return sheet, nil
	}

	tbodies.Each(func(_ int, tbody *goquery.Selection) {
		if lane, ok := extractEntryLane(tbody, log); ok {
			sheet.Lanes = append(sheet.Lanes, lane)
		}
	})

	if len(sheet.Lanes) != LanesPerRace {
		log.Warn("unexpected entry count", zap.Int("want", LanesPerRace), zap.Int("got", len(sheet.Lanes)))
	}
	return sheet, nil
}

func extractRaceInfo(doc *goquery.Document, rno int) RaceInfo {
	var info RaceInfo

	if title := Text(doc.Find("h3.title16_titleDetail__add2020")); title != nil {
		if parts := strings.Fields(*title); len(parts) > 0 {
			info.Name = &parts[0]
		}
		info.Distance = Number(title, reDistance, Int)
	}

	info.IsStablePlateUsed = doc.Find("div.title16_titleLabels__add2020 > span.label2.is-type1").Length() > 0

	// The navigation table lists each race's close time in column rno+1.
	info.Deadline = Text(doc.Find("table tbody tr td:nth-child(" + strconv.Itoa(rno+1) + ")"))

	return info
}

func extractEntryLane(tbody *goquery.Selection, log *zap.Logger) (EntryLane, bool) {
	var e EntryLane

	lane := ClassIndex(tbody.Find("tr:nth-child(1) > td[class*='is-boatColor']"), "is-boatColor", 1, LanesPerRace)
	if lane == nil {
		log.Warn("lane number missing, skipping entry")
		return e, false
	}
	e.Lane = *lane

	player := tbody.Find("tr:nth-child(1) > td:nth-child(3)")
	id := Number(Text(player.Find("div.is-fs11")), rePlayerID, Int)
	if id == nil {
		log.Warn("player id missing, skipping entry", zap.Int("lane", e.Lane))
		return e, false
	}
	e.PlayerID = *id

	e.Class = Text(player.Find("div.is-fs11").First().Find("span").Last())
	e.Name = StripSpaces(Text(player.Find("div.is-fs18 > a")))

	// The last small block reads "branch/hometown" then "age/weight".
	if details := player.Find("div.is-fs11"); details.Length() > 1 {
		lines := Lines(details.Last())
		if len(lines) >= 2 {
			loc := strings.Split(lines[0], "/")
			e.Branch = Line(loc, 0)
			e.Hometown = Line(loc, 1)
			e.Age = Number(&lines[1], reAge, Int)
			e.Weight = Number(&lines[1], reKg, Float)
		}
	}

	cell := func(n int) []string {
		return Lines(tbody.Find("tr:nth-child(1) > td:nth-child(" + strconv.Itoa(n) + ")"))
	}

	if flst := cell(4); len(flst) > 0 {
		e.FCount = countOrZero(flst, 0, reF)
		e.LCount = countOrZero(flst, 1, reL)
		e.AvgST = Number(Line(flst, 2), reDecimal, Float)
	}

	nw := cell(5)
	e.NationwideWinRate = Number(Line(nw, 0), reDecimal, Float)
	e.NationwideTwoWinRate = Number(Line(nw, 1), reDecimal, Float)
	e.NationwideThreeWinRate = Number(Line(nw, 2), reDecimal, Float)

	local := cell(6)
	e.LocalWinRate = Number(Line(local, 0), reDecimal, Float)
	e.LocalTwoWinRate = Number(Line(local, 1), reDecimal, Float)
	e.LocalThreeWinRate = Number(Line(local, 2), reDecimal, Float)

	motor := cell(7)
	e.MotorNo = Number(Line(motor, 0), reDigits, Int)
	e.MotorTwoWinRate = Number(Line(motor, 1), reDecimal, Float)
	e.MotorThreeWinRate = Number(Line(motor, 2), reDecimal, Float)

	boat := cell(8)
	e.BoatNo = Number(Line(boat, 0), reDigits, Int)
	e.BoatTwoWinRate = Number(Line(boat, 1), reDecimal, Float)
	e.BoatThreeWinRate = Number(Line(boat, 2), reDecimal, Float)

	return e, true
}

// countOrZero reads an F or L count. A present line without a count is 0.
func countOrZero(lines []string, i int, re *regexp.Regexp) *int {
	if i >= len(lines) {
		return nil
	}
	v := NumberOr(&lines[i], re, Int, 0)
	return &v
}
