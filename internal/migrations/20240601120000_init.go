package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE channels (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		platform_id    TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT '',
		platform       TEXT NOT NULL,
		url            TEXT NOT NULL DEFAULT '',
		screenname     TEXT NOT NULL DEFAULT '',
		country        TEXT NOT NULL DEFAULT '',
		influencer     TEXT NOT NULL DEFAULT '',
		public         BOOLEAN NOT NULL DEFAULT FALSE,
		chat           BOOLEAN NOT NULL DEFAULT FALSE,
		notes          TEXT NOT NULL DEFAULT '',
		source         TEXT NOT NULL DEFAULT '',
		unavailable_at TIMESTAMP WITH TIME ZONE,
		created_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE raw_posts (
		id             BIGSERIAL PRIMARY KEY,
		scraper        TEXT NOT NULL,
		platform       TEXT NOT NULL,
		channel        BIGINT NOT NULL REFERENCES channels (id),
		platform_id    TEXT NOT NULL,
		date           TIMESTAMP WITH TIME ZONE NOT NULL,
		raw_data       TEXT NOT NULL,
		archived_urls  JSONB NOT NULL DEFAULT '{}'::jsonb,
		media_archived TIMESTAMP WITH TIME ZONE,
		date_archived  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX raw_posts_channel_date_idx ON raw_posts (channel, date);
	CREATE INDEX raw_posts_date_id_idx ON raw_posts (date, id);
	CREATE INDEX raw_posts_unarchived_idx ON raw_posts (id) WHERE media_archived IS NULL;

	CREATE TABLE raw_channel_info (
		id            BIGSERIAL PRIMARY KEY,
		scraper       TEXT NOT NULL,
		platform      TEXT NOT NULL,
		channel       BIGINT NOT NULL REFERENCES channels (id),
		raw_data      TEXT NOT NULL,
		date_archived TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX raw_channel_info_date_id_idx ON raw_channel_info (date_archived, id);

	CREATE TABLE posts (
		id               BIGSERIAL PRIMARY KEY,
		raw_id           BIGINT UNIQUE REFERENCES raw_posts (id),
		platform_id      TEXT NOT NULL DEFAULT '',
		scraper          TEXT NOT NULL DEFAULT '',
		transformer      TEXT NOT NULL DEFAULT '',
		platform         TEXT NOT NULL DEFAULT '',
		channel          BIGINT,
		date             TIMESTAMP WITH TIME ZONE,
		date_archived    TIMESTAMP WITH TIME ZONE,
		date_transformed TIMESTAMP WITH TIME ZONE,
		url              TEXT NOT NULL DEFAULT '',
		content          TEXT NOT NULL DEFAULT '',
		author_id        TEXT NOT NULL DEFAULT '',
		author_username  TEXT NOT NULL DEFAULT '',
		forwarded_from   BIGINT REFERENCES channels (id),
		reply_to         BIGINT REFERENCES posts (id),
		mentions         BIGINT[] NOT NULL DEFAULT '{}',
		likes            BIGINT,
		forwards         BIGINT,
		views            BIGINT,
		replies          BIGINT,
		hashtags         TEXT[] NOT NULL DEFAULT '{}',
		outlinks         TEXT[] NOT NULL DEFAULT '{}',
		crypto_addresses TEXT[] NOT NULL DEFAULT '{}',
		named_entities   TEXT[] NOT NULL DEFAULT '{}',
		language         TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX posts_channel_platform_id_idx ON posts (channel, platform_id);

	-- reserved target for replies whose parent was not ingested yet
	INSERT INTO posts (id) VALUES (-1);

	CREATE TABLE channel_info (
		id                   BIGSERIAL PRIMARY KEY,
		raw_channel_info_id  BIGINT NOT NULL UNIQUE REFERENCES raw_channel_info (id),
		channel              BIGINT NOT NULL REFERENCES channels (id),
		platform_id          TEXT NOT NULL DEFAULT '',
		platform             TEXT NOT NULL DEFAULT '',
		scraper              TEXT NOT NULL DEFAULT '',
		transformer          TEXT NOT NULL DEFAULT '',
		screenname           TEXT NOT NULL DEFAULT '',
		name                 TEXT NOT NULL DEFAULT '',
		description          TEXT NOT NULL DEFAULT '',
		description_url      TEXT NOT NULL DEFAULT '',
		description_location TEXT NOT NULL DEFAULT '',
		followers            BIGINT NOT NULL DEFAULT -1,
		following            BIGINT NOT NULL DEFAULT -1,
		verified             BOOLEAN NOT NULL DEFAULT FALSE,
		date_created         TIMESTAMP WITH TIME ZONE,
		date_archived        TIMESTAMP WITH TIME ZONE,
		date_transformed     TIMESTAMP WITH TIME ZONE
	);

	CREATE TABLE media (
		id               BIGSERIAL PRIMARY KEY,
		post             BIGINT NOT NULL REFERENCES posts (id),
		raw_id           BIGINT NOT NULL REFERENCES raw_posts (id),
		type             TEXT NOT NULL,
		url              TEXT NOT NULL,
		original_url     TEXT NOT NULL,
		date             TIMESTAMP WITH TIME ZONE,
		date_transformed TIMESTAMP WITH TIME ZONE,
		exif             JSONB,
		ocr              TEXT NOT NULL DEFAULT '',
		date_hydrated    TIMESTAMP WITH TIME ZONE,
		UNIQUE (raw_id, original_url)
	);
	CREATE INDEX media_unhydrated_idx ON media (id) WHERE date_hydrated IS NULL;
	`)
	return err
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE media;
	DROP TABLE channel_info;
	DROP TABLE posts;
	DROP TABLE raw_channel_info;
	DROP TABLE raw_posts;
	DROP TABLE channels;
	`)
	return err
}
