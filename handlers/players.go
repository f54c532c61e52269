package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/padraicbc/boatrace/models"
)

type playerStats struct {
	*models.Player
	Seasons []models.PlayerSeasonSummary `json:"seasons"`
	Lanes   []models.PlayerLaneSummary   `json:"lanes"`
}

// Player returns a racer with every imported term summary, newest first.
func (h *Handler) Player(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid player id")
	}
	ctx := c.Request().Context()

	res := playerStats{
		Player:  &models.Player{PlayerID: id},
		Seasons: []models.PlayerSeasonSummary{},
		Lanes:   []models.PlayerLaneSummary{},
	}
	if err := h.db.NewSelect().Model(res.Player).WherePK().Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "player not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	err = h.db.NewSelect().Model(&res.Seasons).
		Where("player_id = ?", id).
		Order("year DESC", "term DESC").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	err = h.db.NewSelect().Model(&res.Lanes).
		Where("player_id = ?", id).
		Order("year DESC", "term DESC", "lane").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
