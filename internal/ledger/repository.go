// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/core"
)

type Repository interface {
	AddFavorite(ctx context.Context, userID, artworkID int64) (bool, error)
	RemoveFavorite(ctx context.Context, userID, artworkID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]artwork.Artwork, error)
	RecordDownload(ctx context.Context, userID, artworkID int64, quality string) error
	ListDownloads(ctx context.Context, userID int64) ([]DownloadEntry, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// AddFavorite reports whether a row was inserted. An existing pair is left
// alone, so the table never holds two rows for one user and artwork.
func (r *repository) AddFavorite(
	ctx context.Context,
	userID, artworkID int64,
) (bool, error) {
	query := `
		INSERT INTO user_favorites (user_id, artwork_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT user_favorites_user_artwork_key DO NOTHING`

	return r.execAffected(ctx, "add favorite", query, userID, artworkID)
}

func (r *repository) RemoveFavorite(
	ctx context.Context,
	userID, artworkID int64,
) (bool, error) {
	query := `DELETE FROM user_favorites WHERE user_id = $1 AND artwork_id = $2`

	return r.execAffected(ctx, "remove favorite", query, userID, artworkID)
}

func (r *repository) execAffected(
	ctx context.Context,
	op, query string,
	args ...any,
) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return rows > 0, nil
}

func (r *repository) ListFavorites(
	ctx context.Context,
	userID int64,
) ([]artwork.Artwork, error) {
	query := `
		SELECT a.id, a.title, a.description, a.image_url, a.high_res_url,
		       a.style, a.category, a.featured, a.created_at,
		       TRUE AS is_favorite
		FROM user_favorites f
		JOIN artwork a ON a.id = f.artwork_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC`

	items := []artwork.Artwork{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return items, nil
}

func (r *repository) RecordDownload(
	ctx context.Context,
	userID, artworkID int64,
	quality string,
) error {
	query := `
		INSERT INTO downloads (user_id, artwork_id, quality)
		VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, userID, artworkID, quality); err != nil {
		return fmt.Errorf("record download: %w", err)
	}

	return nil
}

func (r *repository) ListDownloads(
	ctx context.Context,
	userID int64,
) ([]DownloadEntry, error) {
	query := `
		SELECT d.id, d.artwork_id, d.quality, d.download_date,
		       a.title, a.image_url, a.style, a.category
		FROM downloads d
		JOIN artwork a ON a.id = d.artwork_id
		WHERE d.user_id = $1
		ORDER BY d.download_date DESC, d.id DESC`

	entries := []DownloadEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}

	return entries, nil
}
