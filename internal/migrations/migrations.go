package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// Dir is the source directory new migrations are created in.
const Dir = "internal/migrations"

//go:embed *.go
var files embed.FS

// Run executes a goose command (up, down, status, reset, version, ...) against the
// migrations compiled into the binary.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, db, ".", args...)
}
