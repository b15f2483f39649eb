package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	src, err := ParseURL("sqlite://:memory:", "", "")
	require.NoError(t, err)

	db, err := Open(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		driver     string
		wantDriver string
		wantDSN    string
		wantDial   Dialect
	}{
		{
			name:       "empty falls back to sqlite file",
			url:        "",
			wantDriver: "sqlite",
			wantDSN:    "file:/tmp/test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
			wantDial:   SQLite,
		},
		{
			name:       "postgres scheme is rewritten",
			url:        "postgres://todo:secret@db:5432/todo?sslmode=disable",
			wantDriver: "postgres",
			wantDSN:    "postgresql://todo:secret@db:5432/todo?sslmode=disable",
			wantDial:   Postgres,
		},
		{
			name:       "pgx driver override",
			url:        "postgresql://todo@db/todo",
			driver:     "pgx",
			wantDriver: "pgx",
			wantDSN:    "postgresql://todo@db/todo",
			wantDial:   Postgres,
		},
		{
			name:       "mysql url becomes driver dsn",
			url:        "mysql://todo:secret@db:3307/todo",
			wantDriver: "mysql",
			wantDSN:    "todo:secret@tcp(db:3307)/todo?parseTime=true",
			wantDial:   MySQL,
		},
		{
			name:       "mysql default port",
			url:        "mysql://todo@db/todo",
			wantDriver: "mysql",
			wantDSN:    "todo@tcp(db:3306)/todo?parseTime=true",
			wantDial:   MySQL,
		},
		{
			name:       "explicit sqlite path",
			url:        "sqlite:///var/lib/todo.db",
			wantDriver: "sqlite",
			wantDSN:    "file:/var/lib/todo.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
			wantDial:   SQLite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseURL(tt.url, "/tmp/test.db", tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, src.Driver)
			assert.Equal(t, tt.wantDSN, src.DSN)
			assert.Equal(t, tt.wantDial, src.Dialect)
		})
	}
}

func TestParseURL_Invalid(t *testing.T) {
	for _, raw := range []string{"localhost:5432", "oracle://db/x", "sqlite://"} {
		_, err := ParseURL(raw, "/tmp/test.db", "")
		assert.Error(t, err, raw)
	}
}

func TestDialect_Quote(t *testing.T) {
	assert.Equal(t, `"user"`, Postgres.Quote("user"))
	assert.Equal(t, `"user"`, SQLite.Quote("user"))
	assert.Equal(t, "`user`", MySQL.Quote("user"))
}

func TestDialect_Rebind(t *testing.T) {
	query := "SELECT id FROM todo WHERE user_id = ? AND label <> '?' AND done = ?"
	assert.Equal(t, "SELECT id FROM todo WHERE user_id = $1 AND label <> '?' AND done = $2", Postgres.Rebind(query))
	assert.Equal(t, query, MySQL.Rebind(query))
	assert.Equal(t, query, SQLite.Rebind(query))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom")))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	_, err := db.MigrateUp(ctx)
	require.NoError(t, err)

	insert := `INSERT INTO "user" (username) VALUES (?)`
	_, err = db.ExecContext(ctx, insert, "alice")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "alice")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestMigrateUpDown(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	version, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	applied, err := db.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(Migrations), applied)

	// Idempotent once everything is applied.
	applied, err = db.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	version, err = db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = db.ExecContext(ctx, `INSERT INTO "user" (username) VALUES ('bob')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO todo (label, done, user_id) VALUES ('x', 0, 42)`)
	assert.Error(t, err, "todo must reference an existing user")

	reverted, err := db.MigrateDown(ctx)
	require.NoError(t, err)
	assert.Equal(t, "create_user_and_todo", reverted.Name)

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('user', 'todo')`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = db.MigrateDown(ctx)
	assert.ErrorIs(t, err, ErrNoMigration)
}
