package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMigrationsPath = "../../migrations"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := db.RunMigrations(ctx, testMigrationsPath)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	for _, table := range []string{"users", "password_reset_tokens", "students", "student_activities", "stories"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	again, err := db.RunMigrations(ctx, testMigrationsPath)
	require.NoError(t, err)
	assert.Empty(t, again, "second run applies nothing")
}

func TestRunMigrationsMissingDir(t *testing.T) {
	db := openTestDB(t)
	_, err := db.RunMigrations(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.RunMigrations(ctx, testMigrationsPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	insert := "INSERT INTO users (email, name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"

	err = db.WithTx(ctx, func(tx *Tx) error {
		id, err := tx.ExecReturningID(ctx, insert, "kept@example.com", "Kept", "x", now, now)
		assert.Positive(t, id)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "rolled@example.com", "Rolled", "x", now, now); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.RunMigrations(ctx, testMigrationsPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		"INSERT INTO stories (student_id, title, content, context, generated_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		999, "t", "c", "", now, now)
	assert.Error(t, err, "story for a missing student must be rejected")
}
