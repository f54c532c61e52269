package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/models"
)

// SaveUser creates an API user or replaces the password of an existing one.
func SaveUser(ctx context.Context, idb bun.IDB, username, passwordHash string) error {
	user := &models.User{Username: username, Password: passwordHash}
	_, err := idb.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE").
		Set("password = EXCLUDED.password").
		Exec(ctx)
	return errors.Wrapf(err, "saving user %q", username)
}
