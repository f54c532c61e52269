package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	mw "github.com/padraicbc/boatrace/middleware"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db   *bun.DB
	auth *mw.Auth
}

// New creates a Handler reading from db and signing tokens with auth.
func New(db *bun.DB, auth *mw.Auth) *Handler {
	return &Handler{db: db, auth: auth}
}

// Register mounts the API under /api. Everything except sign-in requires a
// valid token, and password hashing an admin.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/api/signin", h.Signin)

	api := e.Group("/api", h.auth.JWT())
	api.POST("/password-hash", h.PasswordHash, h.auth.Admin())
	api.GET("/venues", h.Venues)
	api.GET("/races", h.Races)
	api.GET("/races/:id", h.Race)
	api.GET("/players/:id", h.Player)
}
