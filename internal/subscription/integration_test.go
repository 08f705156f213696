//go:build integration

// AngelaMos | 2026
// integration_test.go

package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
	"github.com/carterperez-dev/artistry/internal/ledger"
	"github.com/carterperez-dev/artistry/internal/user"
	"github.com/carterperez-dev/artistry/migrations"
)

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("artistry"),
		postgres.WithUsername("artistry"),
		postgres.WithPassword("artistry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %s", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := core.NewMigrator(dsn, migrations.FS)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

func createUser(t *testing.T, db *sqlx.DB, email string) entitlement.Caller {
	t.Helper()

	info, err := user.NewService(user.NewRepository(db)).
		Create(context.Background(), email, "hash", "Member")
	require.NoError(t, err)
	return entitlement.Caller{UserID: info.ID}
}

var billing = config.BillingConfig{PremiumPrice: 9.99, PeriodDays: 30}

func TestSubscriptionLifecycle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	svc := NewService(db, billing, nil)
	entitlements := entitlement.NewService(entitlement.NewRepository(db))
	caller := createUser(t, db, "member@example.com")

	grant, err := entitlements.Resolve(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, entitlement.TierFree, grant.Tier)
	assert.False(t, grant.CanDownloadHigh)

	sub, err := svc.Subscribe(ctx, caller, SubscribeRequest{
		PaymentMethod: PaymentCreditCard,
		Plan:          PlanPremium,
	})
	require.NoError(t, err)
	assert.InDelta(t, 9.99, sub.Amount, 0.001)

	grant, err = entitlements.Resolve(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, entitlement.TierPremium, grant.Tier)
	assert.True(t, grant.CanDownloadHigh)

	_, err = svc.Subscribe(ctx, caller, SubscribeRequest{
		PaymentMethod: PaymentPayPal,
		Plan:          PlanPremium,
	})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	require.NoError(t, svc.Cancel(ctx, caller, sub.ID))

	grant, err = entitlements.Resolve(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, entitlement.TierFree, grant.Tier)

	assert.ErrorIs(t, svc.Cancel(ctx, caller, sub.ID), ErrNotActive)

	history, err := svc.History(ctx, caller)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatusCancelled, history[0].Status)
}

func TestConcurrentSubscribeCreatesOneActive(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	svc := NewService(db, billing, nil)
	caller := createUser(t, db, "racer@example.com")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Subscribe(ctx, caller, SubscribeRequest{
				PaymentMethod: PaymentCreditCard,
				Plan:          PlanPremium,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrAlreadySubscribed)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)

	active, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestRenewDueAdvancesBillingDate(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	svc := NewService(db, billing, nil)
	caller := createUser(t, db, "renew@example.com")

	sub, err := svc.Subscribe(ctx, caller, SubscribeRequest{
		PaymentMethod: PaymentPayPal,
		Plan:          PlanPremium,
	})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`UPDATE subscriptions SET next_billing_date = CURRENT_DATE - 1 WHERE id = $1`,
		sub.ID,
	)
	require.NoError(t, err)

	renewed, err := svc.RenewDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)

	renewed, err = svc.RenewDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, renewed, "a renewed subscription is not due again")

	active, err := svc.Active(ctx, caller)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.NextBillingDate.After(time.Now()))
}

func TestFavoritesAreUniquePerArtwork(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	artworks := artwork.NewService(artwork.NewRepository(db), config.CatalogConfig{
		DefaultPageSize: 12,
		MaxPageSize:     50,
		FeaturedLimit:   6,
	})
	favorites := ledger.NewService(ledger.NewRepository(db), artworks, nil)
	caller := createUser(t, db, "collector@example.com")

	require.NoError(t, favorites.SetFavorite(ctx, caller, 1, true))
	require.NoError(t, favorites.SetFavorite(ctx, caller, 1, true))

	list, err := favorites.Favorites(ctx, caller)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	added, err := favorites.ToggleFavorite(ctx, caller, 1)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = favorites.ToggleFavorite(ctx, caller, 1)
	require.NoError(t, err)
	assert.True(t, added)

	art, err := artworks.Get(ctx, caller, 1)
	require.NoError(t, err)
	assert.True(t, art.IsFavorite)
}
