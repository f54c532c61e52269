package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padraicbc/boatrace/db/dbtest"
	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/scrape"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "scrape", "testdata", name))
	require.NoError(t, err)
	return b
}

// site records when each request arrived.
type site struct {
	hits atomic.Int32
	mu   sync.Mutex
	at   []time.Time
}

func (s *site) times() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.at...)
}

// newSite serves the fixture pages for venue 01 race 1 only; every other
// race page is a 404.
func newSite(t *testing.T) (*httptest.Server, *site) {
	t.Helper()
	pages := map[string][]byte{
		"/race/racelist":   fixture(t, "racelist.html"),
		"/race/beforeinfo": fixture(t, "beforeinfo.html"),
		"/race/raceresult": fixture(t, "raceresult.html"),
		"/race/index":      fixture(t, "index.html"),
	}
	st := new(site)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st.hits.Add(1)
		st.mu.Lock()
		st.at = append(st.at, time.Now())
		st.mu.Unlock()
		body, ok := pages[r.URL.Path]
		q := r.URL.Query()
		if !ok || (r.URL.Path != "/race/index" && (q.Get("jcd") != "01" || q.Get("rno") != "1")) {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	bdb := dbtest.New(t)
	srv, visits := newSite(t)
	hd := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	p := New(scrape.NewClient(srv.URL+"/race", "test", 5*time.Second, nil), bdb, 0, 24, nil)
	stats, err := p.Run(ctx, hd, []string{"01"}, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, Stats{Races: 1, Failed: 1, Entries: 6, Payouts: 1}, stats)
	require.EqualValues(t, 6, visits.hits.Load())

	var races []models.Race
	require.NoError(t, bdb.NewSelect().Model(&races).Scan(ctx))
	require.Len(t, races, 1)
	require.Equal(t, "01", races[0].Jcd)
	require.Equal(t, 1, races[0].Rno)

	var payouts []models.Payout
	require.NoError(t, bdb.NewSelect().Model(&payouts).Scan(ctx))
	require.Len(t, payouts, 1)
	require.Equal(t, "trifecta", payouts[0].BetType)
	require.Equal(t, "1-2-3", payouts[0].Combination)
	require.Equal(t, 5300, payouts[0].Amount)

	// A second run over the same race changes nothing.
	stats, err = p.Run(ctx, hd, []string{"01"}, []int{1})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Races)
	n, err := bdb.NewSelect().Model((*models.RaceEntry)(nil)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, n)
}

func TestRunDiscoversVenues(t *testing.T) {
	bdb := dbtest.New(t)
	srv, _ := newSite(t)
	hd := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	p := New(scrape.NewClient(srv.URL+"/race", "test", 5*time.Second, nil), bdb, 0, 24, nil)
	stats, err := p.Run(context.Background(), hd, nil, []int{1})
	require.NoError(t, err)
	// 01, 12 and 24 are listed; only 01 has pages.
	require.Equal(t, 1, stats.Races)
	require.Equal(t, 2, stats.Failed)
}

func TestRunSpacesEveryFetch(t *testing.T) {
	bdb := dbtest.New(t)
	srv, visits := newSite(t)
	hd := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	const interval = 40 * time.Millisecond

	p := New(scrape.NewClient(srv.URL+"/race", "test", 5*time.Second, nil), bdb, interval, 1, nil)
	stats, err := p.Run(context.Background(), hd, nil, []int{1})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Races)

	// The index page plus three race pages for venue 01.
	at := visits.times()
	require.Len(t, at, 4)
	for i := 1; i < len(at); i++ {
		require.GreaterOrEqual(t, at[i].Sub(at[i-1]), interval, "request %d", i)
	}
}

func TestRunCancelled(t *testing.T) {
	bdb := dbtest.New(t)
	srv, visits := newSite(t)
	hd := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(scrape.NewClient(srv.URL+"/race", "test", 5*time.Second, nil), bdb, time.Hour, 24, nil)
	_, err := p.Run(ctx, hd, []string{"01"}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, visits.hits.Load())
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), 0))
	require.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
