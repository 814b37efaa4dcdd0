package application

import (
	"context"
	"strings"

	"videotube/internal/domain/entity"
	repo "videotube/internal/domain/repository"
	"videotube/pkg/apperr"
)

// PlaylistService covers the minimal playlist surface: create and list.
type PlaylistService struct {
	Repo repo.PlaylistRepository
}

func NewPlaylistService(r repo.PlaylistRepository) *PlaylistService {
	return &PlaylistService{Repo: r}
}

func (s *PlaylistService) Create(ctx context.Context, ownerID, name, description, videoID string) (*entity.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("playlist name is required")
	}
	p := &entity.Playlist{
		Name:        name,
		Description: strings.TrimSpace(description),
		VideoID:     strings.TrimSpace(videoID),
		OwnerID:     ownerID,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlaylistService) ListByOwner(ctx context.Context, ownerID string) ([]entity.Playlist, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}
