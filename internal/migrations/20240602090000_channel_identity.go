package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upChannelIdentity, downChannelIdentity)
}

// Channel soft-unique keys become real constraints so concurrent find-or-create cannot
// produce duplicates. Each key only applies when populated.
func upChannelIdentity(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE UNIQUE INDEX channels_platform_url_key ON channels (platform, url) WHERE url <> '';
	CREATE UNIQUE INDEX channels_platform_platform_id_key ON channels (platform, platform_id) WHERE platform_id <> '';
	CREATE UNIQUE INDEX channels_platform_screenname_key ON channels (platform, lower(screenname)) WHERE screenname <> '';
	`)
	return err
}

func downChannelIdentity(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP INDEX channels_platform_url_key;
	DROP INDEX channels_platform_platform_id_key;
	DROP INDEX channels_platform_screenname_key;
	`)
	return err
}
