package service

import (
	"context"
	"time"

	"github.com/smarttracker/backend/internal/model"
)

// UserRepository is the persistence surface the workflows need.
// Find* match exactly against the stored (lowercased) value; Exists*CI
// compare case-insensitively. Save inserts and returns the stored row,
// reporting db.ErrDuplicateUsername / db.ErrDuplicateEmail when the
// storage-level unique constraints reject it.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsernameCI(ctx context.Context, username string) (bool, error)
	ExistsByEmailCI(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *model.User) (*model.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}
