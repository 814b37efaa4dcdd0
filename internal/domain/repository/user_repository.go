package repository

import (
	"context"
	"errors"

	"videotube/internal/domain/entity"
)

// ErrDuplicate is returned when a storage-level unique constraint on
// username or email rejects a write. The pre-check in the registration
// workflow is race-prone; this error is the source of truth.
var ErrDuplicate = errors.New("username or email already taken")

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("user not found")

// UserRepository is the persistence boundary for users. Uniqueness of
// username and email is enforced by the store itself, not by callers.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetSanitizedByID re-reads a user with the password and refresh token
	// columns excluded from the projection.
	GetSanitizedByID(ctx context.Context, id string) (*entity.SanitizedUser, error)
	// GetByUsernameOrEmail matches either field; both arguments are
	// compared against their lowercase-normalized columns.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCoverImage(ctx context.Context, id, url string) error
	// UpdatePassword and Create are the only operations that write the
	// password hash; everything else leaves the column untouched.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateRefreshToken stores the latest refresh token; empty clears it.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	AddWatchEntry(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]entity.WatchEntry, error)
}
