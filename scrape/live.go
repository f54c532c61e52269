package scrape

import (
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/logger"
)

var (
	reCelsius    = regexp.MustCompile(`([\d.]+)℃`)
	reMeters     = regexp.MustCompile(`(\d+)m`)
	reCentimeter = regexp.MustCompile(`(\d+)cm`)
	reTilt       = regexp.MustCompile(`([\d.\-]+)`)
	reWindImage  = regexp.MustCompile(`img_corner1_(\d+)\.png`)
)

// Compass points used for wind direction.
const windDirections = 16

// Weather is the water and weather panel of the pre-start page.
type Weather struct {
	Updated     *string
	Weather     *string
	Temperature *float64
	WindSpeed   *int
	WindDir     *int
	WaterTemp   *float64
	WaveHeight  *int
}

// LiveLane is one lane of the pre-start table.
type LiveLane struct {
	Lane           int
	Weight         *float64
	TuningWeight   *float64
	ExhibitionTime *float64
	Tilt           *float64
	Propeller      *string
	Parts          []string
}

// StartExhibition is one boat's timing in the start exhibition. Course is
// the boat number shown on the marker.
type StartExhibition struct {
	Course int
	ST     *float64
	Flying bool
}

// LiveInfo is everything recovered from the pre-start page.
type LiveInfo struct {
	Weather *Weather
	Lanes   []LiveLane
	Starts  []StartExhibition
}

// ExtractLiveInfo parses the pre-start page. A missing section yields an
// empty sub-result and a warning.
func ExtractLiveInfo(page string, log *zap.Logger) (*LiveInfo, error) {
	log = logger.OrNop(log)
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	return &LiveInfo{
		Weather: extractWeather(doc, log),
		Lanes:   extractLiveLanes(doc, log),
		Starts:  extractStartExhibition(doc, log),
	}, nil
}

func extractWeather(doc *goquery.Document, log *zap.Logger) *Weather {
	section := doc.Find("div.weather1").First()
	if section.Length() == 0 {
		log.Warn("weather section not found")
		return nil
	}

	unit := func(sel string) *string { return Text(section.Find(sel)) }

	w := &Weather{
		Updated:     unit("p.weather1_title"),
		Temperature: Number(unit("div.is-direction span.weather1_bodyUnitLabelData"), reCelsius, Float),
		Weather:     unit("div.is-weather span.weather1_bodyUnitLabelTitle"),
		WindSpeed:   Number(unit("div.is-wind span.weather1_bodyUnitLabelData"), reMeters, Int),
		WaterTemp:   Number(unit("div.is-waterTemperature span.weather1_bodyUnitLabelData"), reCelsius, Float),
		WaveHeight:  Number(unit("div.is-wave span.weather1_bodyUnitLabelData"), reCentimeter, Int),
	}
	w.WindDir = windDirection(section.Find("div.is-windDirection > p.weather1_bodyUnitImage"), log)

	return w
}

// windDirection resolves the compass index from an is-windN class, falling
// back to the index embedded in the image file name.
func windDirection(sel *goquery.Selection, log *zap.Logger) *int {
	if sel.Length() == 0 {
		log.Warn("wind direction element not found")
		return nil
	}
	if dir := ClassIndex(sel, "is-wind", 1, windDirections); dir != nil {
		return dir
	}
	src, ok := sel.Find("img").Attr("src")
	if !ok {
		log.Warn("wind direction has no class or image", zap.String("class", sel.AttrOr("class", "")))
		return nil
	}
	dir := Number(&src, reWindImage, Int)
	if dir == nil {
		log.Warn("wind direction not resolved", zap.String("src", src))
	}
	return dir
}

func extractLiveLanes(doc *goquery.Document, log *zap.Logger) []LiveLane {
	tbodies := doc.Find("div.table1 > table.is-w748 > tbody")
	if tbodies.Length() == 0 {
		log.Warn("live entry table not found")
		return nil
	}

	var lanes []LiveLane
	tbodies.Each(func(_ int, tbody *goquery.Selection) {
		lane := Number(Text(tbody.Find("tr:nth-child(1) > td:nth-child(1)")), reDigits, Int)
		if lane == nil {
			log.Warn("live entry lane missing, skipping")
			return
		}
		if !validLane(*lane) {
			log.Warn("live entry lane out of range, skipping", zap.Int("lane", *lane))
			return
		}

		l := LiveLane{Lane: *lane}
		l.Weight = Number(Line(Lines(tbody.Find("tr:nth-child(1) > td:nth-child(2)")), 2), reKg, Float)
		l.TuningWeight = Number(Text(tbody.Find("tr:nth-child(3) > td:nth-child(1)")), reDecimal, Float)
		l.ExhibitionTime = Number(Text(tbody.Find("tr:nth-child(1) > td:nth-child(5)")), reDecimal, Float)
		l.Tilt = Number(Text(tbody.Find("tr:nth-child(1) > td:nth-child(6)")), reTilt, Float)
		l.Propeller = Text(tbody.Find("tr:nth-child(1) > td:nth-child(7)"))

		tbody.Find("tr:nth-child(1) > td:nth-child(8) > ul.labelGroup1 > li > span").Each(func(_ int, s *goquery.Selection) {
			if part := Text(s); part != nil {
				l.Parts = append(l.Parts, *part)
			}
		})

		lanes = append(lanes, l)
	})

	if len(lanes) != LanesPerRace {
		log.Warn("unexpected live entry count", zap.Int("want", LanesPerRace), zap.Int("got", len(lanes)))
	}
	return lanes
}

func extractStartExhibition(doc *goquery.Document, log *zap.Logger) []StartExhibition {
	boats := doc.Find("div.table1 > table.is-w238 > tbody > tr div.table1_boatImage1")
	if boats.Length() == 0 {
		log.Warn("start exhibition not found")
		return nil
	}

	var starts []StartExhibition
	boats.Each(func(_ int, boat *goquery.Selection) {
		course := ClassIndex(boat.Find("span.table1_boatImage1Number"), "is-type", 1, LanesPerRace)
		if course == nil {
			log.Warn("start exhibition course missing, skipping")
			return
		}
		st := boat.Find("span.table1_boatImage1Time")
		starts = append(starts, StartExhibition{
			Course: *course,
			ST:     Number(Text(st), reDecimal, Float),
			Flying: st.HasClass("is-fColor1"),
		})
	})

	if len(starts) != LanesPerRace {
		log.Warn("unexpected start exhibition count", zap.Int("want", LanesPerRace), zap.Int("got", len(starts)))
	}

	sort.SliceStable(starts, func(i, j int) bool { return starts[i].Course < starts[j].Course })
	return starts
}
