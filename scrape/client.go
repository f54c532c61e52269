package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/logger"
)

// ErrStatus is returned by Fetch for any non-2xx response.
var ErrStatus = errors.New("unexpected http status")

var reVenueCode = regexp.MustCompile(`jcd=(\d{2})`)

// Client fetches race pages. It makes a single attempt per request.
type Client struct {
	base string
	http *resty.Client
	log  *zap.Logger
}

// NewClient returns a client rooted at base, e.g.
// https://www.boatrace.jp/owpc/pc/race.
func NewClient(base, userAgent string, timeout time.Duration, log *zap.Logger) *Client {
	c := resty.New()
	c.SetHeader("user-agent", userAgent)
	c.SetTimeout(timeout)
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: c,
		log:  logger.OrNop(log),
	}
}

// Fetch returns the body of the page at u.
func (c *Client) Fetch(ctx context.Context, u string) (string, error) {
	c.log.Debug("fetching", zap.String("url", u))
	res, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %s", u)
	}
	if !res.IsSuccess() {
		return "", errors.Wrapf(ErrStatus, "fetching %s: %s", u, res.Status())
	}
	return string(res.Body()), nil
}

func (c *Client) pageURL(page string, hd time.Time, jcd string, rno int) string {
	q := url.Values{}
	q.Set("rno", fmt.Sprint(rno))
	q.Set("jcd", jcd)
	q.Set("hd", hd.Format("20060102"))
	return c.base + "/" + page + "?" + q.Encode()
}

// EntrySheetURL is the pre-race roster page.
func (c *Client) EntrySheetURL(hd time.Time, jcd string, rno int) string {
	return c.pageURL("racelist", hd, jcd, rno)
}

// LiveURL is the pre-start condition page.
func (c *Client) LiveURL(hd time.Time, jcd string, rno int) string {
	return c.pageURL("beforeinfo", hd, jcd, rno)
}

// ResultURL is the post-race result page.
func (c *Client) ResultURL(hd time.Time, jcd string, rno int) string {
	return c.pageURL("raceresult", hd, jcd, rno)
}

// IndexURL is the day's venue index.
func (c *Client) IndexURL(hd time.Time) string {
	return c.base + "/index?hd=" + hd.Format("20060102")
}

// ActiveVenues returns the sorted codes of venues holding races on hd,
// limited to codes up to maxVenue.
func (c *Client) ActiveVenues(ctx context.Context, hd time.Time, maxVenue int) ([]string, error) {
	body, err := c.Fetch(ctx, c.IndexURL(hd))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(body))
	if err != nil {
		return nil, errors.Wrap(err, "parsing venue index")
	}

	seen := map[string]bool{}
	doc.Find("a[href*='/owpc/pc/race/racelist']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := reVenueCode.FindStringSubmatch(href)
		if m == nil {
			return
		}
		n := NumberOr(&m[1], reDigits, Int, 0)
		if n >= 1 && n <= maxVenue {
			seen[m[1]] = true
		}
	})

	venues := make([]string, 0, len(seen))
	for jcd := range seen {
		venues = append(venues, jcd)
	}
	sort.Strings(venues)

	if len(venues) == 0 {
		c.log.Warn("no active venues", zap.String("hd", hd.Format("20060102")))
	}
	return venues, nil
}
