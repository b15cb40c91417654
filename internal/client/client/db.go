package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/mealbook/mealbook/internal/client/migrations"
	"github.com/mealbook/mealbook/internal/client/repositories/journal"
)

// Repositories bundles the local repositories the client works with.
type Repositories struct {
	Journal journal.Repository
	DB      *sql.DB
}

// RunMigrations applies the embedded goose migrations to the local database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local SQLite database, runs
// migrations, and returns the repositories bound to it. Failures wrap
// ErrLocalDataNotAvailable so callers can tell a broken local store from a
// server-side problem.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalDataNotAvailable, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrLocalDataNotAvailable, err)
	}

	return &Repositories{
		Journal: journal.NewSQLiteRepository(db),
		DB:      db,
	}, nil
}
