package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upNormalizedScreenName, downNormalizedScreenName)
}

// normalizedScreenNameIndex keys screen-names the way lookups compare them: case-folded and
// without a leading @ or surrounding whitespace.
const normalizedScreenNameIndex = `
	DROP INDEX channels_platform_screenname_key;
	CREATE UNIQUE INDEX channels_platform_screenname_key
		ON channels (platform, lower(btrim(screenname, E'@ \t\r\n')))
		WHERE lower(btrim(screenname, E'@ \t\r\n')) <> '';
	`

func upNormalizedScreenName(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, normalizedScreenNameIndex)
	return err
}

func downNormalizedScreenName(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP INDEX channels_platform_screenname_key;
	CREATE UNIQUE INDEX channels_platform_screenname_key ON channels (platform, lower(screenname)) WHERE screenname <> '';
	`)
	return err
}
