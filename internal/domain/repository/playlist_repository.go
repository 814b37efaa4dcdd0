package repository

import (
	"context"

	"videotube/internal/domain/entity"
)

// PlaylistRepository is the persistence boundary for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, p *entity.Playlist) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Playlist, error)
}
