// AngelaMos | 2026
// repository.go

package artwork

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/artistry/internal/core"
)

const artworkColumns = `a.id, a.title, a.description, a.image_url, a.high_res_url,
		       a.style, a.category, a.featured, a.created_at`

type Repository interface {
	List(ctx context.Context, params ListParams, userID int64) ([]Artwork, int, error)
	Featured(ctx context.Context, limit int, userID int64) ([]Artwork, error)
	Facets(ctx context.Context) (*Facets, error)
	GetByID(ctx context.Context, id, userID int64) (*Artwork, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// favoriteColumn renders the is_favorite projection. Anonymous callers get a
// constant so no placeholder is consumed.
func favoriteColumn(userID int64, argIdx int) (string, []any) {
	if userID <= 0 {
		return "FALSE AS is_favorite", nil
	}
	return fmt.Sprintf(`EXISTS (
			SELECT 1 FROM user_favorites f
			WHERE f.artwork_id = a.id AND f.user_id = $%d
		) AS is_favorite`, argIdx), []any{userID}
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
	userID int64,
) ([]Artwork, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", argIdx))
		args = append(args, params.Category)
		argIdx++
	}

	if params.Style != "" {
		conditions = append(conditions, fmt.Sprintf("a.style = $%d", argIdx))
		args = append(args, params.Style)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM artwork a WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count artwork: %w", err)
	}

	favCol, favArgs := favoriteColumn(userID, argIdx)
	args = append(args, favArgs...)
	argIdx += len(favArgs)

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM artwork a
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		artworkColumns, favCol, whereClause, params.orderBy(), argIdx, argIdx+1)

	args = append(args, params.PerPage, params.Offset())

	items := []Artwork{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list artwork: %w", err)
	}

	return items, total, nil
}

func (r *repository) Featured(
	ctx context.Context,
	limit int,
	userID int64,
) ([]Artwork, error) {
	favCol, args := favoriteColumn(userID, 1)

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM artwork a
		WHERE a.featured
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d`,
		artworkColumns, favCol, len(args)+1)

	args = append(args, limit)

	items := []Artwork{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list featured artwork: %w", err)
	}

	return items, nil
}

func (r *repository) Facets(ctx context.Context) (*Facets, error) {
	facets := &Facets{Categories: []string{}, Styles: []string{}}

	if err := r.db.SelectContext(ctx, &facets.Categories,
		`SELECT DISTINCT category FROM artwork ORDER BY category`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if err := r.db.SelectContext(ctx, &facets.Styles,
		`SELECT DISTINCT style FROM artwork ORDER BY style`); err != nil {
		return nil, fmt.Errorf("list styles: %w", err)
	}

	return facets, nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id, userID int64,
) (*Artwork, error) {
	favCol, favArgs := favoriteColumn(userID, 2)

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM artwork a
		WHERE a.id = $1`,
		artworkColumns, favCol)

	args := append([]any{id}, favArgs...)

	var art Artwork
	err := r.db.GetContext(ctx, &art, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get artwork: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get artwork: %w", err)
	}

	return &art, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM artwork WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check artwork exists: %w", err)
	}
	return exists, nil
}
