// AngelaMos | 2026
// handler.go

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

type EntitlementResolver interface {
	Resolve(ctx context.Context, caller entitlement.Caller) (entitlement.Grant, error)
}

type ArtworkSource interface {
	Get(ctx context.Context, caller entitlement.Caller, id int64) (*artwork.Artwork, error)
}

type Recorder interface {
	RecordDownload(
		ctx context.Context,
		caller entitlement.Caller,
		artworkID int64,
		quality entitlement.Quality,
	)
}

// Handler serves artwork files out of a single media root. Stored paths are
// resolved through os.Root, so nothing outside the root can be opened.
type Handler struct {
	entitlements EntitlementResolver
	artworks     ArtworkSource
	ledger       Recorder
	root         *os.Root
	cfg          config.MediaConfig
	metrics      *core.Metrics
}

func NewHandler(
	entitlements EntitlementResolver,
	artworks ArtworkSource,
	ledger Recorder,
	cfg config.MediaConfig,
	metrics *core.Metrics,
) (*Handler, error) {
	root, err := os.OpenRoot(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("open media root: %w", err)
	}

	return &Handler{
		entitlements: entitlements,
		artworks:     artworks,
		ledger:       ledger,
		root:         root,
		cfg:          cfg,
		metrics:      metrics,
	}, nil
}

func (h *Handler) Close() error {
	return h.root.Close()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	artworkID, ok := core.PathID(r, "artworkID")
	if !ok {
		core.BadRequest(w, "Valid artwork ID is required")
		return
	}

	caller := entitlement.CallerFromContext(ctx)
	if caller.IsAnonymous() {
		h.deny(w, r, "anonymous", h.cfg.LoginURL)
		return
	}

	quality := entitlement.ParseQuality(r.URL.Query().Get("quality"))

	ctx, span := core.StartSpan(ctx, "download.serve",
		core.AttrUserID.Int64(caller.UserID),
		core.AttrArtworkID.Int64(artworkID),
		core.AttrQuality.String(string(quality)),
	)
	defer span.End()

	grant, err := h.entitlements.Resolve(ctx, caller)
	if err != nil {
		core.SetSpanError(ctx, err)
		core.InternalServerError(w, err)
		return
	}
	span.SetAttributes(core.AttrTier.String(grant.Tier))

	if !grant.Authenticated {
		h.deny(w, r, "anonymous", h.cfg.LoginURL)
		return
	}

	if !grant.CanDownload(quality) {
		h.deny(w, r, "upgrade_required", h.cfg.UpgradeURL)
		return
	}

	art, err := h.artworks.Get(ctx, caller, artworkID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "Artwork")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	stored, ok := art.Path(quality == entitlement.QualityHigh)
	if !ok {
		core.NotFound(w, "Image file")
		return
	}

	f, err := h.root.Open(rootRelative(stored))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "open artwork file",
				"artwork_id", artworkID,
				"path", stored,
				"error", err,
			)
		}
		core.NotFound(w, "Image file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		core.NotFound(w, "Image file")
		return
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		core.InternalServerError(w, err)
		return
	}

	// Downloads always carry the file, so a 304 is never produced.
	for _, hdr := range conditionalHeaders {
		r.Header.Del(hdr)
	}
	if startsAtZero(r.Header.Get("Range")) {
		h.ledger.RecordDownload(ctx, caller, artworkID, quality)
		h.metrics.Download(string(quality))
	}

	filename := AttachmentName(art.Title, stored, mtype.Extension())

	w.Header().Set("Content-Type", mtype.String())
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filename),
	)
	w.Header().Set("Cache-Control", "private, no-store")

	http.ServeContent(w, r, filename, info.ModTime(), f)
}

var conditionalHeaders = []string{
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
	"If-Range",
}

// startsAtZero reports whether a request will receive the file from its
// first byte to its end. Resumed and partial ranges are not new downloads.
func startsAtZero(rangeHeader string) bool {
	if rangeHeader == "" {
		return true
	}
	spec, ok := strings.CutPrefix(strings.TrimSpace(rangeHeader), "bytes=")
	return ok && strings.TrimSpace(spec) == "0-"
}

func (h *Handler) deny(
	w http.ResponseWriter,
	r *http.Request,
	reason, target string,
) {
	h.metrics.DownloadDenied(reason)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// rootRelative turns a stored media path into a clean path relative to the
// media root.
func rootRelative(stored string) string {
	cleaned := path.Clean("/" + filepath.ToSlash(stored))
	return strings.TrimPrefix(cleaned, "/")
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9\-_.]`)

// AttachmentName builds the download filename from the artwork title and
// the extension of the stored file, falling back to the sniffed one.
func AttachmentName(title, stored, sniffedExt string) string {
	base := unsafeFilenameChars.ReplaceAllString(strings.ToLower(title), "_")
	if base == "" {
		base = "artwork"
	}

	ext := strings.ToLower(filepath.Ext(stored))
	if ext == "" {
		ext = sniffedExt
	}

	return base + ext
}
