package post

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

const table = "posts"

var insertColumns = []string{
	"raw_id", "platform_id", "scraper", "transformer", "platform", "channel", "date",
	"date_archived", "date_transformed", "url", "content", "author_id", "author_username",
	"forwarded_from", "reply_to", "mentions", "likes", "forwards", "views", "replies",
	"hashtags", "outlinks", "crypto_addresses", "named_entities", "language",
}

var columns = append([]string{"id"}, insertColumns...)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func scan(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var transformed *time.Time
	err := row.Scan(
		&p.ID, &p.RawID, &p.PlatformID, &p.Scraper, &p.Transformer, &p.Platform, &p.ChannelID, &p.Date,
		&p.CapturedAt, &transformed, &p.URL, &p.Content, &p.AuthorID, &p.AuthorUsername,
		&p.ForwardedFrom, &p.ReplyTo, &p.Mentions, &p.Likes, &p.Forwards, &p.Views, &p.Replies,
		&p.Hashtags, &p.Outlinks, &p.CryptoAddresses, &p.NamedEntities, &p.Language,
	)
	if err != nil {
		return nil, err
	}
	if transformed != nil {
		p.TransformedAt = *transformed
	}
	return &p, nil
}

func batchQuery(posts []*domain.Post) sq.InsertBuilder {
	b := repositories.SqBuilder.
		Insert(table).
		Columns(insertColumns...)
	for _, p := range posts {
		b = b.Values(
			p.RawID, p.PlatformID, p.Scraper, p.Transformer, p.Platform, p.ChannelID, p.Date,
			p.CapturedAt, p.TransformedAt, p.URL, p.Content, p.AuthorID, p.AuthorUsername,
			p.ForwardedFrom, p.ReplyTo, repositories.NonNil(p.Mentions), p.Likes, p.Forwards, p.Views, p.Replies,
			repositories.NonNil(p.Hashtags), repositories.NonNil(p.Outlinks),
			repositories.NonNil(p.CryptoAddresses), repositories.NonNil(p.NamedEntities), p.Language,
		)
	}
	return b.Suffix("ON CONFLICT (raw_id) DO NOTHING RETURNING id, raw_id")
}

func (r *Pgx) CreateBatch(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	query, args, err := batchQuery(posts).ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	rows, err := r.pg.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byRaw := make(map[int64]*domain.Post, len(posts))
	for _, p := range posts {
		byRaw[p.RawID] = p
	}
	for rows.Next() {
		var id, rawID int64
		if err := rows.Scan(&id, &rawID); err != nil {
			return err
		}
		if p, ok := byRaw[rawID]; ok {
			p.ID = id
		}
	}

	return rows.Err()
}

func (r *Pgx) queryOne(ctx context.Context, b sq.SelectBuilder) (*domain.Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	p, err := scan(r.pg.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *Pgx) GetByRawID(ctx context.Context, rawID int64) (*domain.Post, error) {
	return r.queryOne(ctx, repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"raw_id": rawID}))
}

func (r *Pgx) FindByPlatformID(ctx context.Context, channelID int64, platformID string) (*domain.Post, error) {
	return r.queryOne(ctx, repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"channel": channelID, "platform_id": platformID}).
		OrderBy("id").
		Limit(1))
}

// subsetQuery selects the ids of posts derived from captures of the filtered channels. It
// keeps the default placeholder format so it can be nested into dollar-numbered statements.
func subsetQuery(filter domain.ChannelFilter) sq.SelectBuilder {
	b := sq.Select("p.id").
		From("posts p").
		Join("raw_posts r ON r.id = p.raw_id")
	if len(filter.IDs) > 0 {
		b = b.Where(sq.Eq{"r.channel": filter.IDs})
	}
	if filter.Platform != "" {
		b = b.Where(sq.Eq{"r.platform": filter.Platform})
	}
	if filter.Category != "" {
		b = b.Where("r.channel IN (SELECT id FROM channels WHERE category = ?)", filter.Category)
	}
	return b
}

func deleteStatements(filter domain.ChannelFilter) []sq.Sqlizer {
	subset := subsetQuery(filter)
	return []sq.Sqlizer{
		repositories.SqBuilder.
			Delete("media").
			Where(sq.Expr("post IN (?)", subset)),
		repositories.SqBuilder.
			Update(table).
			Set("reply_to", domain.ReplyPending).
			Where(sq.Expr("reply_to IN (?)", subset)),
		repositories.SqBuilder.
			Delete(table).
			Where(sq.Expr("id IN (?)", subset)),
	}
}

func (r *Pgx) DeleteForChannels(ctx context.Context, filter domain.ChannelFilter) (int64, error) {
	tx, err := r.pg.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var deleted int64
	for _, stmt := range deleteStatements(filter) {
		query, args, err := stmt.ToSql()
		if err != nil {
			return 0, repositories.ErrBadQuery
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		deleted = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Info("Deleted posts for retransform", "count", deleted)
	return deleted, nil
}
