// AngelaMos | 2026
// entity.go

package artwork

import (
	"time"
)

type Artwork struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	ImageURL    string    `db:"image_url"`
	HighResURL  *string   `db:"high_res_url"`
	Style       string    `db:"style"`
	Category    string    `db:"category"`
	Featured    bool      `db:"featured"`
	CreatedAt   time.Time `db:"created_at"`
	IsFavorite  bool      `db:"is_favorite"`
}

func (a *Artwork) HasHighRes() bool {
	return a.HighResURL != nil && *a.HighResURL != ""
}

// Path returns the stored media path for the requested resolution.
func (a *Artwork) Path(high bool) (string, bool) {
	if high {
		if !a.HasHighRes() {
			return "", false
		}
		return *a.HighResURL, true
	}
	return a.ImageURL, a.ImageURL != ""
}
