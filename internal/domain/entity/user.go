package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash, never plaintext. RefreshToken is the most
// recently issued refresh token, empty when logged out. The sanitized
// projection (no Password, no RefreshToken) is the only form clients see.
type User struct {
	ID            string
	Username      string // unique, stored lowercase
	Email         string // unique, stored lowercase
	FullName      string
	AvatarURL     string
	CoverImageURL string // optional, empty when never set
	Password      string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SanitizedUser is the client-facing projection of User.
type SanitizedUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"cover_image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Sanitized strips the secret fields.
func (u *User) Sanitized() *SanitizedUser {
	return &SanitizedUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// WatchEntry is one element of a user's ordered watch history.
type WatchEntry struct {
	VideoID   string    `json:"video_id"`
	WatchedAt time.Time `json:"watched_at"`
}
