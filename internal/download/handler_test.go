// AngelaMos | 2026
// handler_test.go

package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
	"github.com/carterperez-dev/artistry/internal/middleware"
)

type tierTable map[int64]string

func (t tierTable) GetTier(_ context.Context, userID int64) (string, error) {
	if tier, ok := t[userID]; ok {
		return tier, nil
	}
	return "", core.ErrNotFound
}

type catalog map[int64]*artwork.Artwork

func (c catalog) Get(_ context.Context, _ entitlement.Caller, id int64) (*artwork.Artwork, error) {
	if a, ok := c[id]; ok {
		return a, nil
	}
	return nil, core.ErrNotFound
}

type recorded struct {
	userID    int64
	artworkID int64
	quality   entitlement.Quality
}

type recorder struct {
	rows []recorded
}

func (r *recorder) RecordDownload(
	_ context.Context,
	caller entitlement.Caller,
	artworkID int64,
	quality entitlement.Quality,
) {
	r.rows = append(r.rows, recorded{caller.UserID, artworkID, quality})
}

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)

const (
	freeUser    = 1
	premiumUser = 2
)

type fixture struct {
	router *chi.Mux
	ledger *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "artwork", "high_res"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "artwork", "dream.jpg"), jpegBytes, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "artwork", "high_res", "dream.jpg"), jpegBytes, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.txt"), []byte("nope"), 0o600))

	hi := "artwork/high_res/dream.jpg"
	escape := "../secret.txt"
	arts := catalog{
		1: {ID: 1, Title: "Abstract Dream!", ImageURL: "artwork/dream.jpg", HighResURL: &hi},
		2: {ID: 2, Title: "No High Res", ImageURL: "artwork/dream.jpg"},
		3: {ID: 3, Title: "Escapee", ImageURL: escape, HighResURL: &escape},
	}

	ledger := &recorder{}
	ents := entitlement.NewService(tierTable{freeUser: "free", premiumUser: "premium"})

	h, err := NewHandler(ents, arts, ledger, config.MediaConfig{
		Root:       dir,
		LoginURL:   "/login",
		UpgradeURL: "/subscription",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/artwork/{artworkID}/download", h)

	return &fixture{router: r, ledger: ledger}
}

func (f *fixture) get(t *testing.T, target string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != 0 {
		req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download?quality=high", 0)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, f.ledger.rows)
}

func TestFreeHighIsSentToUpgrade(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download?quality=high", freeUser)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/subscription", rec.Header().Get("Location"))
	assert.Empty(t, f.ledger.rows)
}

func TestFreeLowIsServedAndRecorded(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download?quality=low", freeUser)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="abstract_dream_.jpg"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, jpegBytes, rec.Body.Bytes())
	assert.Equal(t, []recorded{{freeUser, 1, entitlement.QualityLow}}, f.ledger.rows)
}

func TestUnknownQualityIsLow(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download?quality=ultra", freeUser)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.ledger.rows, 1)
	assert.Equal(t, entitlement.QualityLow, f.ledger.rows[0].quality)
}

func TestPremiumHigh(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download?quality=high", premiumUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []recorded{{premiumUser, 1, entitlement.QualityHigh}}, f.ledger.rows)

	rec = f.get(t, "/artwork/2/download?quality=high", premiumUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, f.ledger.rows, 1)
}

func TestMissingArtworkAndEscapes(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/404/download", freeUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Artwork not found")

	rec = f.get(t, "/artwork/3/download", premiumUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "nope")

	rec = f.get(t, "/artwork/zero/download", freeUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, f.ledger.rows)
}

func TestConditionalRequestStillServesAndRecordsOnce(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/artwork/1/download?quality=low", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{UserID: freeUser}))
	req.Header.Set("If-Modified-Since", time.Now().Add(24*time.Hour).UTC().Format(http.TimeFormat))
	req.Header.Set("If-None-Match", "*")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jpegBytes, rec.Body.Bytes())
	assert.Len(t, f.ledger.rows, 1)
}

func TestPartialRangeIsNotRecorded(t *testing.T) {
	f := newFixture(t)

	for _, rng := range []string{"bytes=10-20", "bytes=0-3", "bytes=-5"} {
		req := httptest.NewRequest(http.MethodGet, "/artwork/1/download", nil)
		req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{UserID: freeUser}))
		req.Header.Set("Range", rng)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPartialContent, rec.Code, rng)
	}
	assert.Empty(t, f.ledger.rows)
}

func TestStartsAtZero(t *testing.T) {
	assert.True(t, startsAtZero(""))
	assert.True(t, startsAtZero("bytes=0-"))
	assert.False(t, startsAtZero("bytes=0-99"))
	assert.False(t, startsAtZero("bytes=100-"))
	assert.False(t, startsAtZero("bytes=0-1,5-9"))
	assert.False(t, startsAtZero("items=0-"))
}

func TestUnknownUserIsTreatedAsAnonymous(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/artwork/1/download", 999)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "cosmic_journey.jpg", AttachmentName("Cosmic Journey", "artwork/cosmic.JPG", ".png"))
	assert.Equal(t, "a-b_c.d.png", AttachmentName("A-B_C.D", "artwork/noext", ".png"))
	assert.Equal(t, "artwork.jpg", AttachmentName("", "x.jpg", ""))
}
