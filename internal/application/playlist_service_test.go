package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/domain/entity"
	"videotube/pkg/apperr"
)

type memPlaylistRepo struct {
	items []entity.Playlist
}

func (m *memPlaylistRepo) Create(_ context.Context, p *entity.Playlist) error {
	p.ID = strconv.Itoa(len(m.items) + 1)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.items = append(m.items, *p)
	return nil
}

func (m *memPlaylistRepo) ListByOwner(_ context.Context, ownerID string) ([]entity.Playlist, error) {
	var out []entity.Playlist
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestPlaylistCreateAndList(t *testing.T) {
	svc := NewPlaylistService(&memPlaylistRepo{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner-1", "  Favorites  ", "best of", "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "Favorites", p.Name)
	assert.NotEmpty(t, p.ID)

	_, err = svc.Create(ctx, "owner-2", "Other", "", "")
	require.NoError(t, err)

	mine, err := svc.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Favorites", mine[0].Name)
}

func TestPlaylistCreateRequiresName(t *testing.T) {
	svc := NewPlaylistService(&memPlaylistRepo{})

	_, err := svc.Create(context.Background(), "owner-1", "   ", "", "")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}
