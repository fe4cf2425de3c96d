package kit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

type DBOptions struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens a pooled handle and verifies it with a ping. For SQLite the
// DSN is a file path; its directory is created when missing.
func OpenDB(ctx context.Context, opts DBOptions) (*sql.DB, error) {
	driverName, dsn, err := resolveDriver(opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func resolveDriver(opts DBOptions) (driverName, dsn string, err error) {
	switch opts.Driver {
	case DriverSQLite:
		path := opts.DSN
		if path == "" {
			return "", "", fmt.Errorf("sqlite dsn is required")
		}
		if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", "", fmt.Errorf("creating database directory: %w", err)
			}
		}
		if !strings.Contains(path, "?") {
			path += "?" + sqlitePragmas
		}
		return "sqlite", path, nil
	case DriverPostgres:
		if opts.DSN == "" {
			return "", "", fmt.Errorf("postgres dsn is required")
		}
		return "pgx", opts.DSN, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", opts.Driver)
	}
}
