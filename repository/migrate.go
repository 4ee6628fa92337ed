package repository

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies (or rolls back) the embedded schema migrations.
// It returns the number of applied migrations.
func Migrate(db *sql.DB, direction migrate.MigrationDirection) (int, error) {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}

	n, err := migrate.Exec(db, "postgres", src, direction)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return n, nil
}
