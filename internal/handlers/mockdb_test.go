package handlers

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/services"
)

// newMockDB swaps the global pool for a sqlmock connection for one test.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	prev := database.PostgresDB
	database.PostgresDB = db
	t.Cleanup(func() {
		database.PostgresDB = prev
		db.Close()
	})
	return mock
}

func initTestTokens() {
	services.InitTokens("test-access-secret", "test-refresh-secret")
}
