package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/models"
)

// Races lists the races held on ?date=YYYY-MM-DD, optionally narrowed to
// one venue with ?jcd=NN.
func (h *Handler) Races(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date param not set")
	}
	hd, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	var races []models.Race
	q := h.db.NewSelect().Model(&races).
		Relation("Venue").
		Where("rc.hd = ?", hd)
	if jcd := c.QueryParam("jcd"); jcd != "" {
		q = q.Where("rc.jcd = ?", jcd)
	}
	if err := q.Order("rc.jcd", "rc.rno").Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, races)
}

// Race returns one race with its entries, in lane order, and payouts.
func (h *Handler) Race(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid race id")
	}

	race := &models.Race{RaceID: id}
	err = h.db.NewSelect().Model(race).
		Relation("Venue").
		Relation("Entries", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("re.lane")
		}).
		Relation("Entries.Player").
		Relation("Payouts", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("po.bet_type", "po.combination")
		}).
		WherePK().
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, race)
}
