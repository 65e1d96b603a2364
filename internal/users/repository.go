package users

import (
	"context"

	"github.com/petermazzocco/recipe-api/models"
)

// Repository is the data access contract for users.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts u and fills in its ID. Returns ErrEmailTaken when the
	// email is already registered.
	Create(ctx context.Context, u *models.User) error

	// Get returns ErrNotFound if no user has this id.
	Get(ctx context.Context, id uint) (*models.User, error)

	// GetByEmail matches the stored (normalized) email exactly.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update persists every mutable column of u. Returns ErrEmailTaken when
	// the new email collides with another user.
	Update(ctx context.Context, u *models.User) error
}
