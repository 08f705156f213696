// AngelaMos | 2026
// service.go

package artwork

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

type Service struct {
	repo Repository
	cfg  config.CatalogConfig
}

func NewService(repo Repository, cfg config.CatalogConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// List returns one page of the catalog. The total is counted over the full
// filtered set, so pages past the end come back empty with correct totals.
func (s *Service) List(
	ctx context.Context,
	caller entitlement.Caller,
	params ListParams,
) (*Page, error) {
	params.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	ctx, span := core.StartSpan(ctx, "artwork.list",
		attribute.String("artwork.category", params.Category),
		attribute.String("artwork.style", params.Style),
		attribute.String("artwork.sort", params.Sort),
		attribute.Int("artwork.page", params.Page),
	)
	defer span.End()

	items, total, err := s.repo.List(ctx, params, caller.UserID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return &Page{
		Items:       items,
		Total:       total,
		TotalPages:  core.TotalPages(total, params.PerPage),
		CurrentPage: params.Page,
		PerPage:     params.PerPage,
	}, nil
}

func (s *Service) Featured(
	ctx context.Context,
	caller entitlement.Caller,
) ([]Artwork, error) {
	return s.repo.Featured(ctx, s.cfg.FeaturedLimit, caller.UserID)
}

func (s *Service) Filters(ctx context.Context) (*Facets, error) {
	return s.repo.Facets(ctx)
}

func (s *Service) Get(
	ctx context.Context,
	caller entitlement.Caller,
	id int64,
) (*Artwork, error) {
	return s.repo.GetByID(ctx, id, caller.UserID)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
