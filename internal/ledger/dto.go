// AngelaMos | 2026
// dto.go

package ledger

import (
	"time"

	"github.com/carterperez-dev/artistry/internal/artwork"
)

type ToggleFavoriteRequest struct {
	ArtworkID int64 `json:"artwork_id" validate:"required,gt=0"`
}

type FavoriteResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	IsFavorite bool   `json:"is_favorite"`
}

type FavoritesResponse struct {
	Success   bool                      `json:"success"`
	Favorites []artwork.ArtworkResponse `json:"favorites"`
}

type DownloadResponse struct {
	ID           int64     `json:"id"`
	ArtworkID    int64     `json:"artwork_id"`
	Quality      string    `json:"quality"`
	DownloadDate time.Time `json:"download_date"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	Style        string    `json:"style"`
	Category     string    `json:"category"`
}

type DownloadsResponse struct {
	Success   bool               `json:"success"`
	Downloads []DownloadResponse `json:"downloads"`
}

func favoriteMessage(isFavorite bool) string {
	if isFavorite {
		return "Artwork added to favorites"
	}
	return "Artwork removed from favorites"
}

func ToDownloadResponseList(entries []DownloadEntry) []DownloadResponse {
	out := make([]DownloadResponse, len(entries))
	for i, e := range entries {
		out[i] = DownloadResponse(e)
	}
	return out
}
