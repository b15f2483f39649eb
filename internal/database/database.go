package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Source describes how to reach a store: the database/sql driver name,
// the driver-specific DSN, and the dialect queries must be written in.
type Source struct {
	Driver  string
	DSN     string
	Dialect Dialect
}

// DB wraps the connection pool together with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ParseURL turns a DATABASE_URL into a Source. An empty URL selects the
// file-backed SQLite store at sqlitePath. driver overrides the Postgres
// driver ("postgres" for lib/pq, "pgx" for jackc/pgx).
func ParseURL(rawURL, sqlitePath, driver string) (Source, error) {
	if rawURL == "" {
		return sqliteSource(sqlitePath), nil
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return Source{}, fmt.Errorf("invalid database url: missing scheme")
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		if driver == "" {
			driver = "postgres"
		}
		return Source{Driver: driver, DSN: "postgresql://" + rest, Dialect: Postgres}, nil
	case "mysql":
		dsn, err := mysqlDSN(rawURL)
		if err != nil {
			return Source{}, err
		}
		return Source{Driver: "mysql", DSN: dsn, Dialect: MySQL}, nil
	case "sqlite", "sqlite3", "file":
		if rest == "" {
			return Source{}, fmt.Errorf("invalid database url: sqlite path is empty")
		}
		return sqliteSource(rest), nil
	}
	return Source{}, fmt.Errorf("unsupported database scheme %q", scheme)
}

func sqliteSource(path string) Source {
	return Source{
		Driver:  "sqlite",
		DSN:     "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		Dialect: SQLite,
	}
}

func mysqlDSN(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.ParseTime = true
	for key, values := range u.Query() {
		if len(values) > 0 {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[key] = values[0]
		}
	}
	return cfg.FormatDSN(), nil
}

// Open connects to the store described by src and verifies the connection.
func Open(ctx context.Context, src Source) (*DB, error) {
	db, err := sql.Open(src.Driver, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", src.Dialect, err)
	}

	if src.Dialect == SQLite {
		// One writer at a time; also keeps an in-memory database alive
		// on a single connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", src.Dialect, err)
	}

	if src.Dialect == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return &DB{DB: db, Dialect: src.Dialect}, nil
}

// Table returns the quoted name of a table.
func (db *DB) Table(name string) string {
	return db.Dialect.Quote(name)
}
