package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect selects the SQL flavour: placeholders and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) goose() (goose.Dialect, error) {
	switch d {
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	case DialectPostgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// migrate applies the embedded migrations for d. Every statement is
// IF NOT EXISTS, so databases created before versioning are adopted as-is.
func migrate(ctx context.Context, db *sql.DB, d Dialect) ([]*goose.MigrationResult, error) {
	gd, err := d.goose()
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", d, err)
	}

	p, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	res, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	return res, nil
}
