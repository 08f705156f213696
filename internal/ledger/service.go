// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

type ArtworkChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo     Repository
	artworks ArtworkChecker
	metrics  *core.Metrics
}

func NewService(
	repo Repository,
	artworks ArtworkChecker,
	metrics *core.Metrics,
) *Service {
	return &Service{repo: repo, artworks: artworks, metrics: metrics}
}

func (s *Service) checkTarget(
	ctx context.Context,
	caller entitlement.Caller,
	artworkID int64,
) error {
	if caller.IsAnonymous() {
		return fmt.Errorf("favorites: %w", core.ErrUnauthorized)
	}

	if artworkID <= 0 {
		return fmt.Errorf("favorites: artwork id: %w", core.ErrInvalidInput)
	}

	exists, err := s.artworks.Exists(ctx, artworkID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("favorites: artwork %d: %w", artworkID, core.ErrNotFound)
	}

	return nil
}

// ToggleFavorite flips the favorite state and returns the new one. Removing
// first means two calls in a row always land back where they started.
func (s *Service) ToggleFavorite(
	ctx context.Context,
	caller entitlement.Caller,
	artworkID int64,
) (bool, error) {
	ctx, span := core.StartSpan(ctx, "ledger.toggle_favorite",
		core.AttrUserID.Int64(caller.UserID),
		core.AttrArtworkID.Int64(artworkID),
	)
	defer span.End()

	if err := s.checkTarget(ctx, caller, artworkID); err != nil {
		return false, err
	}

	removed, err := s.repo.RemoveFavorite(ctx, caller.UserID, artworkID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return false, err
	}
	if removed {
		s.metrics.FavoriteChanged(false)
		return false, nil
	}

	if _, err := s.repo.AddFavorite(ctx, caller.UserID, artworkID); err != nil {
		core.SetSpanError(ctx, err)
		return false, err
	}

	s.metrics.FavoriteChanged(true)
	return true, nil
}

// SetFavorite drives the state to want regardless of where it started.
func (s *Service) SetFavorite(
	ctx context.Context,
	caller entitlement.Caller,
	artworkID int64,
	want bool,
) error {
	if err := s.checkTarget(ctx, caller, artworkID); err != nil {
		return err
	}

	if want {
		added, err := s.repo.AddFavorite(ctx, caller.UserID, artworkID)
		if err != nil {
			return err
		}
		if added {
			s.metrics.FavoriteChanged(true)
		}
		return nil
	}

	removed, err := s.repo.RemoveFavorite(ctx, caller.UserID, artworkID)
	if err != nil {
		return err
	}
	if removed {
		s.metrics.FavoriteChanged(false)
	}
	return nil
}

func (s *Service) Favorites(
	ctx context.Context,
	caller entitlement.Caller,
) ([]artwork.Artwork, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("list favorites: %w", core.ErrUnauthorized)
	}
	return s.repo.ListFavorites(ctx, caller.UserID)
}

// RecordDownload appends a ledger row. It never fails the caller; errors are
// logged and the file is served anyway.
func (s *Service) RecordDownload(
	ctx context.Context,
	caller entitlement.Caller,
	artworkID int64,
	quality entitlement.Quality,
) {
	if caller.IsAnonymous() {
		return
	}

	if err := s.repo.RecordDownload(
		ctx,
		caller.UserID,
		artworkID,
		string(quality),
	); err != nil {
		slog.ErrorContext(ctx, "record download",
			"user_id", caller.UserID,
			"artwork_id", artworkID,
			"quality", quality,
			"error", err,
		)
	}
}

func (s *Service) Downloads(
	ctx context.Context,
	caller entitlement.Caller,
) ([]DownloadEntry, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("list downloads: %w", core.ErrUnauthorized)
	}
	return s.repo.ListDownloads(ctx, caller.UserID)
}
