package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/db/dbtest"
	mw "github.com/padraicbc/boatrace/middleware"
	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/store"
)

var testKey = []byte("test-secret")

type testAPI struct {
	e   *echo.Echo
	db  *bun.DB
	ids struct{ race int }
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	bdb := dbtest.New(t)

	for _, u := range []string{"admin", "viewer"} {
		hash, err := HashPasswordForUser(u, "pw-"+u)
		require.NoError(t, err)
		require.NoError(t, store.SaveUser(ctx, bdb, u, hash))
	}

	name := "峰竜太"
	player := &models.Player{PlayerID: 4320, Name: &name}
	_, err := bdb.NewInsert().Model(player).Exec(ctx)
	require.NoError(t, err)

	race := &models.Race{Hd: time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), Jcd: "01", Rno: 1, SeasonYear: 2024, SeasonTerm: 1}
	_, err = bdb.NewInsert().Model(race).Exec(ctx)
	require.NoError(t, err)
	other := &models.Race{Hd: race.Hd, Jcd: "12", Rno: 3, SeasonYear: 2024, SeasonTerm: 1}
	_, err = bdb.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)

	entries := []models.RaceEntry{
		{RaceID: race.RaceID, Lane: 2, PlayerID: 4320},
		{RaceID: race.RaceID, Lane: 1, PlayerID: 4320},
	}
	_, err = bdb.NewInsert().Model(&entries).Exec(ctx)
	require.NoError(t, err)
	payout := &models.Payout{RaceID: race.RaceID, BetType: "trifecta", Combination: "1-2-3", Amount: 5300}
	_, err = bdb.NewInsert().Model(payout).Exec(ctx)
	require.NoError(t, err)

	seasons := []models.PlayerSeasonSummary{
		{PlayerID: 4320, Year: 2023, Term: 2, CalcStart: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), CalcEnd: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{PlayerID: 4320, Year: 2024, Term: 1, CalcStart: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), CalcEnd: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
	}
	_, err = bdb.NewInsert().Model(&seasons).Exec(ctx)
	require.NoError(t, err)
	lane := &models.PlayerLaneSummary{PlayerID: 4320, Year: 2024, Term: 1, Lane: 1}
	_, err = bdb.NewInsert().Model(lane).Exec(ctx)
	require.NoError(t, err)

	e := echo.New()
	Register(e, New(bdb, mw.NewAuth(testKey, time.Hour, func(u string) bool { return u == "admin" })))
	api := &testAPI{e: e, db: bdb}
	api.ids.race = race.RaceID
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) signin(t *testing.T, username string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/signin", "", credentials{Username: username, Password: "pw-" + username})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res["token"])
	return res["token"]
}

func TestSignin(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/signin", "", credentials{Username: "admin", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/signin", "", credentials{Username: "nobody", Password: "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	token := a.signin(t, "admin")
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/venues", token, nil).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/venues", "Bearer "+token, nil).Code)
}

func TestProtectedRoutes(t *testing.T) {
	a := newTestAPI(t)

	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/venues", "", nil).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/venues", "garbage", nil).Code)

	forged := New(a.db, mw.NewAuth([]byte("other-key"), time.Hour, nil))
	e := echo.New()
	Register(e, forged)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/signin", bytes.NewBufferString(`{"username":"admin","password":"pw-admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	require.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/venues", res["token"], nil).Code)
}

func TestVenues(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/api/venues", a.signin(t, "viewer"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var venues []models.Venue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &venues))
	require.Len(t, venues, 24)
	require.Equal(t, "01", venues[0].Jcd)
	require.Equal(t, "大村", venues[23].Name)
}

func TestRaces(t *testing.T) {
	a := newTestAPI(t)
	token := a.signin(t, "viewer")

	testCases := []struct {
		query  string
		status int
		jcds   []string
	}{
		{"?date=2024-04-15", http.StatusOK, []string{"01", "12"}},
		{"?date=2024-04-15&jcd=12", http.StatusOK, []string{"12"}},
		{"?date=2024-04-16", http.StatusOK, nil},
		{"", http.StatusBadRequest, nil},
		{"?date=20240415", http.StatusBadRequest, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, "/api/races"+tc.query, token, nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.status != http.StatusOK {
				return
			}
			var races []models.Race
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &races))
			var jcds []string
			for _, r := range races {
				jcds = append(jcds, r.Jcd)
				require.NotNil(t, r.Venue)
			}
			require.Equal(t, tc.jcds, jcds)
		})
	}
}

func TestRace(t *testing.T) {
	a := newTestAPI(t)
	token := a.signin(t, "viewer")

	rec := a.do(t, http.MethodGet, "/api/races/"+strconv.Itoa(a.ids.race), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var race models.Race
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &race))
	require.Len(t, race.Entries, 2)
	require.Equal(t, 1, race.Entries[0].Lane)
	require.Equal(t, "峰竜太", *race.Entries[0].Player.Name)
	require.Len(t, race.Payouts, 1)
	require.Equal(t, 5300, race.Payouts[0].Amount)

	require.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/races/9999", token, nil).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/races/x", token, nil).Code)
}

func TestPlayer(t *testing.T) {
	a := newTestAPI(t)
	token := a.signin(t, "viewer")

	rec := a.do(t, http.MethodGet, "/api/players/4320", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		PlayerID int                          `json:"playerID"`
		Name     string                       `json:"name"`
		Seasons  []models.PlayerSeasonSummary `json:"seasons"`
		Lanes    []models.PlayerLaneSummary   `json:"lanes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 4320, res.PlayerID)
	require.Equal(t, "峰竜太", res.Name)
	require.Len(t, res.Seasons, 2)
	require.Equal(t, 2024, res.Seasons[0].Year)
	require.Len(t, res.Lanes, 1)

	require.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/players/1", token, nil).Code)
}

func TestPasswordHash(t *testing.T) {
	a := newTestAPI(t)
	body := credentials{Username: "newbie", Password: "secret"}

	rec := a.do(t, http.MethodPost, "/api/password-hash", a.signin(t, "viewer"), body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/password-hash", a.signin(t, "admin"), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "newbie", res["username"])
	require.NotEmpty(t, res["password_hash"])

	admin := a.signin(t, "admin")
	rec = a.do(t, http.MethodPost, "/api/password-hash", admin, credentials{Username: "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// A token outliving its user is refused.
	_, err := a.db.NewDelete().Model((*models.User)(nil)).Where("username = ?", "admin").Exec(context.Background())
	require.NoError(t, err)
	rec = a.do(t, http.MethodPost, "/api/password-hash", admin, body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHashPasswordForUser(t *testing.T) {
	_, err := HashPasswordForUser(" ", "pw")
	require.Error(t, err)
	_, err = HashPasswordForUser("u", "")
	require.Error(t, err)
}
