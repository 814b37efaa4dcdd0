package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"videotube/internal/domain/entity"
	"videotube/internal/domain/repository"
)

type PlaylistRepository struct {
	pool *pgxpool.Pool
}

func NewPlaylistRepository(pool *pgxpool.Pool) *PlaylistRepository {
	return &PlaylistRepository{pool: pool}
}

func (r *PlaylistRepository) Create(ctx context.Context, p *entity.Playlist) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO playlists (name, description, video_id, owner_id)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Description, p.VideoID, p.OwnerID)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Playlist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, COALESCE(video_id, ''), owner_id, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Playlist
	for rows.Next() {
		var p entity.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.VideoID,
			&p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.PlaylistRepository = (*PlaylistRepository)(nil)
