package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// eraOffsets maps an era to the Gregorian year of its year zero.
var eraOffsets = map[string]int{
	"S":  1925,
	"昭和": 1925,
	"H":  1988,
	"平成": 1988,
	"R":  2018,
	"令和": 2018,
}

// EraDate converts an era name and a YYMMDD date within that era to a
// calendar date. It returns nil for an unknown era or a malformed or
// impossible date.
func EraDate(era, yymmdd string) *time.Time {
	offset, ok := eraOffsets[strings.TrimSpace(era)]
	if !ok {
		return nil
	}
	s := width.Narrow.String(strings.TrimSpace(yymmdd))
	if len(s) != 6 {
		return nil
	}
	y, err1 := strconv.Atoi(s[:2])
	m, err2 := strconv.Atoi(s[2:4])
	d, err3 := strconv.Atoi(s[4:])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	t := time.Date(offset+y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out of range values; reject instead.
	if t.Month() != time.Month(m) || t.Day() != d {
		return nil
	}
	return &t
}

var hundred = decimal.NewFromInt(100)

// FixedPoint reads a rate published as an integer in hundredths, e.g.
// "652" for 6.52, and rounds it to two places. Blank or non-numeric input
// gives nil.
func FixedPoint(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	v := d.Div(hundred).Round(2)
	return &v
}

// SeasonOf returns the statistics term a date falls in. April to
// September is term 1 of that year; October to March is term 2 of the year
// in which it began.
func SeasonOf(d time.Time) (year, term int) {
	switch m := d.Month(); {
	case m >= time.April && m <= time.September:
		return d.Year(), 1
	case m >= time.October:
		return d.Year(), 2
	default:
		return d.Year() - 1, 2
	}
}

// TermDates returns the first and last day of a term.
func TermDates(year, term int) (start, end time.Time) {
	if term == 1 {
		return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// NonFinishRank is stored as the rank for flying starts, disqualifications
// and other non-finishes.
const NonFinishRank = 6

// RankOf converts a printed finishing position to a number. Full-width
// digits are accepted; anything else counts as a non-finish.
func RankOf(raw *string) *int {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(width.Narrow.String(*raw))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > NonFinishRank {
		n = NonFinishRank
	}
	return &n
}

// PartsJSON serializes a list of replaced parts, or nil when none were.
func PartsJSON(parts []string) *string {
	if len(parts) == 0 {
		return nil
	}
	b, err := sonic.Marshal(parts)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// ParseParts reverses PartsJSON.
func ParseParts(s *string) []string {
	if s == nil {
		return nil
	}
	var parts []string
	if err := sonic.UnmarshalString(*s, &parts); err != nil {
		return nil
	}
	return parts
}

var betTypeCodes = map[string]string{
	"単勝":  "win",
	"複勝":  "place",
	"2連単": "exacta",
	"2連複": "quinella",
	"拡連複": "quinella_place",
	"3連単": "trifecta",
	"3連複": "trio",
}

// BetTypeCode maps a bet-type label to its stored code. Labels are compared
// after width folding so ３連単 and 3連単 agree; unknown labels are kept
// as printed.
func BetTypeCode(label string) string {
	label = strings.TrimSpace(label)
	if code, ok := betTypeCodes[width.Narrow.String(label)]; ok {
		return code
	}
	return label
}

// Combination formats boat numbers as stored, e.g. "1-2-3".
func Combination(boats []int) string {
	parts := make([]string, len(boats))
	for i, b := range boats {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, "-")
}
