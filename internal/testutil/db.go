package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ms-concerts/internal/models"
	"ms-concerts/internal/tickets/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB returns a store backed by a private in-memory SQLite database
// with the schema created.
func NewSQLiteDB(t *testing.T) *db.DB {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	bunDB, err := db.Open(ctx, db.DriverSQLite, dsn, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunDB.Close() })

	require.NoError(t, db.CreateSchema(ctx, bunDB))
	return &db.DB{Bun: bunDB}
}

// SeedConcert inserts a concert with the given capacity, all of it available.
func SeedConcert(t *testing.T, store *db.DB, totalTickets int) *models.Concert {
	t.Helper()

	concert := &models.Concert{
		ID:               uuid.NewString(),
		Name:             "Test Concert",
		Date:             time.Date(2025, 6, 21, 20, 0, 0, 0, time.UTC),
		Venue:            "Main Hall",
		TotalTickets:     totalTickets,
		AvailableTickets: totalTickets,
		Price:            49.5,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.CreateConcert(context.Background(), concert))
	return concert
}

// SeedUser inserts a user with a unique email.
func SeedUser(t *testing.T, store *db.DB) *models.User {
	t.Helper()

	id := uuid.NewString()
	user := &models.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}
