package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TestDatabaseStore runs against PostgreSQL when POSTGRES_TEST_DSN is set.
func TestDatabaseStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	store := NewDatabaseStore(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() {
		db.Exec("DELETE FROM chat_messages")
		db.Unscoped().Exec("DELETE FROM chat_sessions")
	})

	runChatStoreSuite(t, func(t *testing.T) ChatStore { return store })
}
