package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	sqliteutil "github.com/agalitsyn/sqlite"
)

//go:embed *.sql
var migrations embed.FS

// Open connects to the database at path and applies pending migrations.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}

	db, err := sqliteutil.Connect(path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if err := sqliteutil.MigrateUp(db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}
