//go:build integration

// Run with: go test -tags integration ./repository/postgres/... -v
package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fastygo/buyerleads/domain"
	pgInfra "github.com/fastygo/buyerleads/internal/infrastructure/postgres"
	"github.com/fastygo/buyerleads/repository"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("buyerleads_test"),
		tcPostgres.WithUsername("buyerleads"),
		tcPostgres.WithPassword("buyerleads"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, pgInfra.Migrate(dsn, nil))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newBuyer(name string, city domain.City, ownerID string, at time.Time) (*domain.Buyer, *domain.HistoryEntry) {
	ts := domain.NewTimestamp(at)
	b := &domain.Buyer{
		ID: uuid.NewString(),
		BuyerFields: domain.BuyerFields{
			FullName:     name,
			Phone:        "9876543210",
			City:         city,
			PropertyType: domain.PropertyPlot,
			Purpose:      domain.PurposeBuy,
			Timeline:     domain.Timeline3To6,
			Source:       domain.SourceCall,
			Status:       domain.StatusNew,
			Tags:         []string{"hot"},
		},
		OwnerID:   ownerID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	entry := &domain.HistoryEntry{
		ID:        uuid.NewString(),
		BuyerID:   b.ID,
		ChangedBy: ownerID,
		ChangedAt: ts,
		Diff:      domain.HistoryDiff{Action: domain.ActionCreated, Data: b.Clone()},
	}
	return b, entry
}

func TestBuyerRepository_ConcurrentUpdatesWithSameToken(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	buyers := NewBuyerRepository(pool)

	b, entry := newBuyer("Asha Verma", domain.CityMohali, "owner-1", time.Now())
	require.NoError(t, buyers.Create(ctx, b, entry))
	token := b.UpdatedAt

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		stale     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := buyers.Update(ctx, b.ID, func(current *domain.Buyer) (*domain.Buyer, *domain.HistoryEntry, error) {
				if !current.UpdatedAt.Equal(token) {
					return nil, nil, domain.ErrStaleBuyer
				}
				current.Status = domain.StatusContacted
				current.UpdatedAt = current.UpdatedAt.Next(time.Now())
				return current, nil, nil
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrStaleBuyer):
				stale++
			default:
				t.Errorf("worker %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, stale)

	stored, err := buyers.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusContacted, stored.Status)
	assert.True(t, stored.UpdatedAt.Time.After(token.Time))
}

func TestBuyerRepository_DeleteCascadesHistory(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	buyers := NewBuyerRepository(pool)
	history := NewHistoryRepository(pool)

	b, entry := newBuyer("Ravi Kumar", domain.CityChandigarh, "owner-1", time.Now())
	require.NoError(t, buyers.Create(ctx, b, entry))

	entries, err := history.ListByBuyer(ctx, b.ID, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionCreated, entries[0].Diff.Action)

	err = buyers.Delete(ctx, b.ID, func(current *domain.Buyer) error {
		if current.OwnerID != "owner-2" {
			return domain.ErrDeleteForbidden
		}
		return nil
	})
	require.ErrorIs(t, err, domain.ErrDeleteForbidden)

	require.NoError(t, buyers.Delete(ctx, b.ID, nil))
	_, err = buyers.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBuyerNotFound)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM buyer_history WHERE buyer_id = $1`, b.ID).Scan(&remaining))
	assert.Zero(t, remaining)
}

func TestBuyerRepository_CreateManyIsAtomic(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	buyers := NewBuyerRepository(pool)

	now := time.Now()
	first, firstEntry := newBuyer("First Lead", domain.CityZirakpur, "owner-1", now)
	second, secondEntry := newBuyer("Second Lead", domain.CityZirakpur, "owner-1", now)
	second.ID = first.ID
	secondEntry.BuyerID = first.ID

	err := buyers.CreateMany(ctx,
		[]*domain.Buyer{first, second},
		[]*domain.HistoryEntry{firstEntry, secondEntry})
	require.Error(t, err)

	_, total, err := buyers.List(ctx, repository.BuyerFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBuyerRepository_ListFilters(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	buyers := NewBuyerRepository(pool)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []struct {
		name  string
		city  domain.City
		owner string
	}{
		{"Asha Verma", domain.CityMohali, "owner-1"},
		{"Bina 100%_Sure", domain.CityMohali, "owner-2"},
		{"Chetan Rao", domain.CityPanchkula, "owner-1"},
	}
	for i, s := range seed {
		b, entry := newBuyer(s.name, s.city, s.owner, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, buyers.Create(ctx, b, entry))
	}

	list, total, err := buyers.List(ctx, repository.BuyerFilter{City: domain.CityMohali, Limit: 10, SortBy: repository.SortUpdatedAt, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Bina 100%_Sure", list[0].FullName)
	assert.Equal(t, []string{"hot"}, list[0].Tags)

	_, total, err = buyers.List(ctx, repository.BuyerFilter{Search: "100%_", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = buyers.List(ctx, repository.BuyerFilter{Search: "%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "wildcards are matched literally")

	list, total, err = buyers.List(ctx, repository.BuyerFilter{OwnerID: "owner-1", SortBy: repository.SortFullName, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Chetan Rao", list[0].FullName)
}
