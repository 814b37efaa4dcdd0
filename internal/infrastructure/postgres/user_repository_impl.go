package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"videotube/internal/domain/entity"
	"videotube/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.Password)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapUnique(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, full_name, avatar_url, cover_image_url,
		       password_hash, COALESCE(refresh_token, ''), created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
}

// GetSanitizedByID selects only the non-secret columns; the password hash
// and refresh token never leave the database on this path.
func (r *UserRepository) GetSanitizedByID(ctx context.Context, id string) (*entity.SanitizedUser, error) {
	u := &entity.SanitizedUser{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, full_name, avatar_url, cover_image_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.AvatarURL, &u.CoverImageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, full_name, avatar_url, cover_image_url,
		       password_hash, COALESCE(refresh_token, ''), created_at, updated_at
		FROM users
		WHERE username = lower($1) OR email = lower($2)
	`, username, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.AvatarURL, &u.CoverImageURL, &u.Password, &u.RefreshToken,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET full_name = $1, email = lower($2), updated_at = now()
		WHERE id = $3
	`, fullName, email, id)
	if err != nil {
		return mapUnique(err)
	}
	return checkAffected(res)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET cover_image_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token = NULLIF($1, ''), updated_at = now() WHERE id = $2
	`, token, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *UserRepository) AddWatchEntry(ctx context.Context, userID, videoID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)
	`, userID, videoID)
	return err
}

func (r *UserRepository) WatchHistory(ctx context.Context, userID string) ([]entity.WatchEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT video_id, watched_at
		FROM watch_history
		WHERE user_id = $1
		ORDER BY watched_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.WatchEntry
	for rows.Next() {
		var e entity.WatchEntry
		if err := rows.Scan(&e.VideoID, &e.WatchedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

func checkAffected(res pgconn.CommandTag) error {
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
