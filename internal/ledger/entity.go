// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"
)

// DownloadEntry is a download row joined with the artwork's current display
// metadata.
type DownloadEntry struct {
	ID           int64     `db:"id"`
	ArtworkID    int64     `db:"artwork_id"`
	Quality      string    `db:"quality"`
	DownloadDate time.Time `db:"download_date"`
	Title        string    `db:"title"`
	ImageURL     string    `db:"image_url"`
	Style        string    `db:"style"`
	Category     string    `db:"category"`
}
