package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)
	return db
}

func TestBringUpToDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.False(t, group.IsZero())

	// Running again is a no-op.
	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.True(t, group.IsZero())

	_, err = db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES ('u1', 'ada', 'ada@example.com', 'x')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO files (id, user_id, file_path, title) VALUES ('f1', 'u1', 'a.md', 'a')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO files (id, user_id, file_path, title) VALUES ('f2', 'u1', 'a.md', 'a')`)
	require.Error(t, err, "file paths are unique per user")

	_, err = db.Exec(`DELETE FROM users WHERE id = 'u1'`)
	require.NoError(t, err)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count))
	assert.Equal(t, 0, count, "records are removed with their owner")
}

func TestRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	migrator := migrate.NewMigrator(db, Migrations)
	_, err = migrator.Rollback(ctx)
	require.NoError(t, err)

	_, err = db.Exec(`SELECT 1 FROM files`)
	require.Error(t, err)
}
