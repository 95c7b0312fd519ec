//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupStore(t *testing.T, ttl time.Duration) *PostgresSessionStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bank"),
		tcpostgres.WithUsername("bank"),
		tcpostgres.WithPassword("bank"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, dsn, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestPostgresSessionStore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, time.Hour)

	_, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	state := models.SessionState{
		CurrentAccount: "12345678",
		Ledger: models.LedgerSnapshot{Accounts: []models.AccountSnapshot{{
			AccountNumber:  "12345678",
			OwnerName:      "Jan Kowalski",
			InitialBalance: decimal.NewFromInt(5000),
			Balance:        decimal.RequireFromString("4999.99"),
			Transactions: []models.Transaction{{
				ID:           "tx-1",
				Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				Amount:       decimal.RequireFromString("-0.01"),
				Description:  "Withdrawal",
				BalanceAfter: decimal.RequireFromString("4999.99"),
			}},
		}}},
	}
	require.NoError(t, store.Save(ctx, "s1", state))

	got, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "12345678", got.CurrentAccount)
	require.Len(t, got.Ledger.Accounts, 1)
	assert.True(t, state.Ledger.Accounts[0].Balance.Equal(got.Ledger.Accounts[0].Balance))

	// upsert replaces the row
	state.CurrentAccount = ""
	require.NoError(t, store.Save(ctx, "s1", state))
	got, _, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.CurrentAccount)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, found, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, time.Second)

	require.NoError(t, store.Save(ctx, "stale", models.SessionState{CurrentAccount: "A"}))
	_, found, err := store.Load(ctx, "stale")
	require.NoError(t, err)
	require.True(t, found)

	time.Sleep(1500 * time.Millisecond)
	require.NoError(t, store.Save(ctx, "fresh", models.SessionState{}))

	_, found, err = store.Load(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found, "an expired row reads as missing")

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, found, err = store.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
}
