//go:build integration

package repository

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"phone_auth/internal/config"
	"phone_auth/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres starts a throwaway PostgreSQL and applies the schema.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("phone_auth_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool, err := config.ConnectDB(ctx, &config.DBConfig{DSN: connStr, ConnectRetries: 3, RetryInterval: time.Second}, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, config.AutoMigrate(ctx, pool, logger))
	return pool
}

func TestUserRepository_Postgres(t *testing.T) {
	pool := startPostgres(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	user := &model.User{Name: "Ann", Phone: "9876543210", PasswordHash: "$2a$hash", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)

	found, err := repo.FindByPhone(ctx, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Ann", found.Name)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "9876543210", byID.Phone)

	missing, err := repo.FindByPhone(ctx, "0000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &model.User{Name: "Bob", Phone: "9876543210", PasswordHash: "$2a$other", CreatedAt: time.Now()}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicatePhone)
}

func TestUserRepository_Postgres_ConcurrentCreate(t *testing.T) {
	pool := startPostgres(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, &model.User{Name: "Racer", Phone: "5550001111", PasswordHash: "h", CreatedAt: time.Now()})
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrDuplicatePhone):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
}
