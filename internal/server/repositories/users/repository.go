package users

import (
	"context"

	"github.com/armoryhq/armory/internal/server/models"
)

// Repository is the user store the authentication pipeline depends on.
// Lookups return common.ErrorNotFound when no user matches; Create returns
// common.ErrorConflict when email or username is already taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateFields applies a partial update and returns the stored record
	// with the password hash stripped.
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (map[string]any, error)

	// Delete removes the user and reports whether a record was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
