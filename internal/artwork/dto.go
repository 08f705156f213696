// AngelaMos | 2026
// dto.go

package artwork

import (
	"math"
	"strings"
	"time"
)

const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
)

var sortClauses = map[string]string{
	SortNewest:   "a.created_at DESC, a.id DESC",
	SortOldest:   "a.created_at ASC, a.id ASC",
	SortNameAsc:  "a.title ASC, a.id ASC",
	SortNameDesc: "a.title DESC, a.id DESC",
}

// MaxPage bounds the page number so the offset cannot overflow.
const MaxPage = math.MaxInt32

type ListParams struct {
	Page     int
	PerPage  int
	Category string
	Style    string
	Sort     string
}

// Normalize clamps paging into range and drops unknown sort keys.
func (p *ListParams) Normalize(defaultPerPage, maxPerPage int) {
	p.Page = min(max(p.Page, 1), MaxPage)
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}

	p.Category = strings.TrimSpace(p.Category)
	p.Style = strings.TrimSpace(p.Style)

	if _, ok := sortClauses[p.Sort]; !ok {
		p.Sort = SortNewest
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p *ListParams) orderBy() string {
	if clause, ok := sortClauses[p.Sort]; ok {
		return clause
	}
	return sortClauses[SortNewest]
}

type Page struct {
	Items       []Artwork
	Total       int
	TotalPages  int
	CurrentPage int
	PerPage     int
}

type ArtworkResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	HasHighRes  bool      `json:"has_high_res"`
	Style       string    `json:"style"`
	Category    string    `json:"category"`
	Featured    bool      `json:"featured"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListResponse struct {
	Success     bool              `json:"success"`
	Artwork     []ArtworkResponse `json:"artwork"`
	Total       int               `json:"total"`
	TotalPages  int               `json:"total_pages"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
}

type FeaturedResponse struct {
	Success bool              `json:"success"`
	Artwork []ArtworkResponse `json:"artwork"`
}

type DetailResponse struct {
	Success bool            `json:"success"`
	Artwork ArtworkResponse `json:"artwork"`
}

type Facets struct {
	Categories []string `json:"categories"`
	Styles     []string `json:"styles"`
}

type FiltersResponse struct {
	Success bool `json:"success"`
	Facets
}

func ToResponse(a *Artwork) ArtworkResponse {
	return ArtworkResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		HasHighRes:  a.HasHighRes(),
		Style:       a.Style,
		Category:    a.Category,
		Featured:    a.Featured,
		IsFavorite:  a.IsFavorite,
		CreatedAt:   a.CreatedAt,
	}
}

func ToResponseList(items []Artwork) []ArtworkResponse {
	out := make([]ArtworkResponse, len(items))
	for i := range items {
		out[i] = ToResponse(&items[i])
	}
	return out
}
