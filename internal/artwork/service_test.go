// AngelaMos | 2026
// service_test.go

package artwork

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

var artworkRowColumns = []string{
	"id", "title", "description", "image_url", "high_res_url",
	"style", "category", "featured", "created_at", "is_favorite",
}

var testCatalogConfig = config.CatalogConfig{
	DefaultPageSize: 12,
	MaxPageSize:     50,
	FeaturedLimit:   6,
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(NewRepository(sqlx.NewDb(db, "pgx")), testCatalogConfig), mock
}

func addArtworkRow(rows *sqlmock.Rows, id int64, title string, fav bool) *sqlmock.Rows {
	return rows.AddRow(id, title, "desc", "artwork/x.jpg", "artwork/high_res/x.jpg",
		"Abstract", "Digital", false, time.Now(), fav)
}

func TestListAppliesFiltersAndPaging(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM artwork a WHERE TRUE AND a.category = $1 AND a.style = $2")).
		WithArgs("Digital", "Abstract").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	rows := sqlmock.NewRows(artworkRowColumns)
	addArtworkRow(rows, 13, "Zeta", true)

	mock.ExpectQuery(`ORDER BY a\.title DESC, a\.id DESC\s+LIMIT \$4 OFFSET \$5`).
		WithArgs("Digital", "Abstract", int64(5), 12, 12).
		WillReturnRows(rows)

	page, err := svc.List(context.Background(), entitlement.Caller{UserID: 5}, ListParams{
		Page:     2,
		Category: "Digital",
		Style:    "Abstract",
		Sort:     SortNameDesc,
	})
	require.NoError(t, err)

	assert.Equal(t, 13, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 12, page.PerPage)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsFavorite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnonymousBeyondLastPage(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM artwork a WHERE TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	mock.ExpectQuery(`(?s)FALSE AS is_favorite.*ORDER BY a\.created_at DESC, a\.id DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(12, 108).
		WillReturnRows(sqlmock.NewRows(artworkRowColumns))

	page, err := svc.List(context.Background(), entitlement.Anonymous(), ListParams{Page: 10})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHugePageIsEmptyWithTotals(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM artwork a WHERE TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(12, (MaxPage-1)*12).
		WillReturnRows(sqlmock.NewRows(artworkRowColumns))

	page, err := svc.List(context.Background(), entitlement.Anonymous(),
		ListParams{Page: math.MaxInt})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, MaxPage, page.CurrentPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEmptyCatalog(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(artworkRowColumns))

	page, err := svc.List(context.Background(), entitlement.Anonymous(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
}

func TestHandlerListAndDetail(t *testing.T) {
	svc, mock := newMockService(t)

	r := chi.NewRouter()
	passthrough := func(next http.Handler) http.Handler { return next }
	NewHandler(svc).RegisterRoutes(r, passthrough, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows(artworkRowColumns)
	addArtworkRow(rows, 1, "Abstract Dream", false)
	mock.ExpectQuery("SELECT").WithArgs(12, 0).WillReturnRows(rows)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artwork?per_page=abc&page=0", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list.Success)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.CurrentPage)
	assert.Equal(t, 12, list.PerPage)
	require.Len(t, list.Artwork, 1)
	assert.True(t, list.Artwork[0].HasHighRes)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows(artworkRowColumns))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artwork/77", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Artwork not found","code":"NOT_FOUND"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artwork/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlerFilters(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT category")).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Cityscape").AddRow("Digital"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT style")).
		WillReturnRows(sqlmock.NewRows([]string{"style"}).AddRow("Abstract"))

	rec := httptest.NewRecorder()
	NewHandler(svc).Filters(rec, httptest.NewRequest(http.MethodGet, "/artwork/filters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"success":true,"categories":["Cityscape","Digital"],"styles":["Abstract"]}`,
		rec.Body.String())
}
