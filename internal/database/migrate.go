package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Migration is one reversible schema step. Up and Down return the
// statements for a given dialect, executed in order.
type Migration struct {
	Version int
	Name    string
	Up      func(d Dialect) []string
	Down    func(d Dialect) []string
}

// Migrations lists every schema step in application order.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_user_and_todo",
		Up:      createUserAndTodo,
		Down: func(d Dialect) []string {
			return []string{
				"DROP TABLE " + d.Quote("todo"),
				"DROP TABLE " + d.Quote("user"),
			}
		},
	},
}

func createUserAndTodo(d Dialect) []string {
	user, todo := d.Quote("user"), d.Quote("todo")

	switch d {
	case Postgres:
		return []string{
			`CREATE TABLE ` + user + ` (
				id SERIAL PRIMARY KEY,
				username VARCHAR(80) NOT NULL,
				created_at TIMESTAMP DEFAULT now(),
				updated_at TIMESTAMP DEFAULT now(),
				CONSTRAINT user_username_key UNIQUE (username)
			)`,
			`CREATE TABLE ` + todo + ` (
				id SERIAL PRIMARY KEY,
				label VARCHAR(255) NOT NULL,
				done BOOLEAN NOT NULL,
				created_at TIMESTAMP DEFAULT now(),
				updated_at TIMESTAMP DEFAULT now(),
				user_id INTEGER NOT NULL REFERENCES ` + user + ` (id)
			)`,
		}
	case MySQL:
		return []string{
			`CREATE TABLE ` + user + ` (
				id INT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(80) NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY user_username_key (username)
			)`,
			`CREATE TABLE ` + todo + ` (
				id INT AUTO_INCREMENT PRIMARY KEY,
				label VARCHAR(255) NOT NULL,
				done BOOLEAN NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				user_id INT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES ` + user + ` (id)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE ` + user + ` (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username VARCHAR(80) NOT NULL UNIQUE,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE ` + todo + ` (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				label VARCHAR(255) NOT NULL,
				done BOOLEAN NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL REFERENCES ` + user + ` (id)
			)`,
		}
	}
}

func (db *DB) ensureMigrationTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// Version returns the latest applied migration version, 0 when none.
func (db *DB) Version(ctx context.Context) (int, error) {
	if err := db.ensureMigrationTable(ctx); err != nil {
		return 0, err
	}

	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateUp applies every pending migration in order and returns how many ran.
func (db *DB) MigrateUp(ctx context.Context) (int, error) {
	current, err := db.Version(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		record := db.Dialect.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)")
		if err := db.run(ctx, m.Up(db.Dialect), record, m.Version, m.Name); err != nil {
			return applied, fmt.Errorf("failed to apply migration %d_%s: %w", m.Version, m.Name, err)
		}
		applied++
	}
	return applied, nil
}

// ErrNoMigration is returned by MigrateDown when nothing is applied.
var ErrNoMigration = errors.New("no migration to revert")

// MigrateDown reverts the most recently applied migration.
func (db *DB) MigrateDown(ctx context.Context) (Migration, error) {
	current, err := db.Version(ctx)
	if err != nil {
		return Migration{}, err
	}
	if current == 0 {
		return Migration{}, ErrNoMigration
	}

	for i := len(Migrations) - 1; i >= 0; i-- {
		m := Migrations[i]
		if m.Version != current {
			continue
		}
		record := db.Dialect.Rebind("DELETE FROM schema_migrations WHERE version = ?")
		if err := db.run(ctx, m.Down(db.Dialect), record, m.Version); err != nil {
			return m, fmt.Errorf("failed to revert migration %d_%s: %w", m.Version, m.Name, err)
		}
		return m, nil
	}
	return Migration{}, fmt.Errorf("applied version %d is unknown to this build", current)
}

// run executes the statements and the bookkeeping query in one transaction.
// MySQL commits DDL implicitly, so there the transaction only covers the bookkeeping.
func (db *DB) run(ctx context.Context, stmts []string, record string, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return err
	}
	return tx.Commit()
}
