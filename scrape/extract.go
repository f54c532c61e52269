package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// noData is what the site prints in place of an empty value.
const noData = "---"

// Text returns the trimmed text of the first node in sel, or nil when the
// selection is empty, blank, or the no-data marker.
func Text(sel *goquery.Selection) *string {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	return clean(sel.First().Text())
}

// TextOr is Text with a default.
func TextOr(sel *goquery.Selection, def string) string {
	if s := Text(sel); s != nil {
		return *s
	}
	return def
}

func clean(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == noData {
		return nil
	}
	return &s
}

// Converter turns a matched capture group into a value.
type Converter[T any] func(string) (T, error)

// Int parses a base 10 integer.
func Int(s string) (int, error) { return strconv.Atoi(s) }

// Float parses a float; a leading dot such as ".12" is accepted.
func Float(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// Comma parses an integer written with thousands separators.
func Comma(s string) (int, error) { return strconv.Atoi(strings.ReplaceAll(s, ",", "")) }

// Number applies re to text and converts capture group 1. It returns nil
// when text is nil, the pattern does not match, or conversion fails.
func Number[T any](text *string, re *regexp.Regexp, conv Converter[T]) *T {
	return NumberGroup(text, re, 1, conv)
}

// NumberGroup is Number for an explicit capture group.
func NumberGroup[T any](text *string, re *regexp.Regexp, group int, conv Converter[T]) *T {
	if text == nil || re == nil {
		return nil
	}
	m := re.FindStringSubmatch(*text)
	if m == nil || group < 0 || group >= len(m) {
		return nil
	}
	v, err := conv(m[group])
	if err != nil {
		return nil
	}
	return &v
}

// NumberOr is Number with a default for every failure mode.
func NumberOr[T any](text *string, re *regexp.Regexp, conv Converter[T], def T) T {
	if v := Number(text, re, conv); v != nil {
		return *v
	}
	return def
}

// Lines splits the content of the first node in sel at <br> elements and
// returns the trimmed, non-empty lines.
func Lines(sel *goquery.Selection) []string {
	if sel == nil || sel.Length() == 0 {
		return nil
	}

	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for n := sel.Get(0).FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			flush()
			continue
		}
		cur.WriteString(nodeText(n))
	}
	flush()
	return out
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// Line returns a pointer to lines[i], or nil when out of range.
func Line(lines []string, i int) *string {
	if i < 0 || i >= len(lines) {
		return nil
	}
	return clean(lines[i])
}

// ClassIndex finds a class named prefix+N with lo <= N <= hi on the first
// node of sel and returns N.
func ClassIndex(sel *goquery.Selection, prefix string, lo, hi int) *int {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	classes := strings.Fields(sel.First().AttrOr("class", ""))
	for i := lo; i <= hi; i++ {
		want := prefix + strconv.Itoa(i)
		for _, c := range classes {
			if c == want {
				n := i
				return &n
			}
		}
	}
	return nil
}

// StripSpaces removes ideographic (full width) spaces from a name.
func StripSpaces(s *string) *string {
	if s == nil {
		return nil
	}
	return clean(strings.ReplaceAll(*s, "　", ""))
}
