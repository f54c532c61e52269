// Package middleware authenticates callers of the boatrace API.
package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// UsernameKey is the echo context key holding the signed-in username.
const UsernameKey = "username"

// Claims extends jwt.RegisteredClaims with the signed-in user.
type Claims struct {
	Username string `json:"username"`
	UserHash string `json:"user_hash"`
	jwt.RegisteredClaims
}

// UserHashFromUsername returns a deterministic HMAC hash for the given username and key.
func UserHashFromUsername(username string, key []byte) string {
	normalized := strings.ToLower(strings.TrimSpace(username))
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// Auth issues and checks HS256 sign-in tokens and gates admin routes.
type Auth struct {
	key     []byte
	ttl     time.Duration
	isAdmin func(username string) bool
}

// NewAuth returns an Auth signing with key. Tokens last ttl; isAdmin decides
// who passes Admin.
func NewAuth(key []byte, ttl time.Duration, isAdmin func(username string) bool) *Auth {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Auth{key: key, ttl: ttl, isAdmin: isAdmin}
}

// Issue signs a token for username valid from now for the configured ttl.
func (a *Auth) Issue(username string, now time.Time) (string, error) {
	username = strings.TrimSpace(username)
	claims := &Claims{
		Username: username,
		UserHash: UserHashFromUsername(username, a.key),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	return s, errors.Wrap(err, "signing token")
}

// JWT validates the Authorization header token. A "Bearer " prefix is
// optional. A bad signature, an expired token or a user hash that does not
// match is 401; anything unparseable is 400.
func (a *Auth) JWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
			if token == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return a.key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			if !tkn.Valid || claims.UserHash != UserHashFromUsername(claims.Username, a.key) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(UsernameKey, claims.Username)
			return next(c)
		}
	}
}

// Admin lets through only signed-in users that isAdmin accepts. It must run
// after JWT.
func (a *Auth) Admin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username := Username(c)
			if username == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !a.isAdmin(username) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// Username returns the signed-in username, or "" before JWT has run.
func Username(c echo.Context) string {
	u, _ := c.Get(UsernameKey).(string)
	return strings.TrimSpace(u)
}
