package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/boatrace/models"
)

// Venues lists every stadium by code.
func (h *Handler) Venues(c echo.Context) error {
	var venues []models.Venue
	err := h.db.NewSelect().Model(&venues).
		Order("jcd").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, venues)
}
