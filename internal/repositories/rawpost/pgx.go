package rawpost

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

const table = "raw_posts"

var columns = []string{
	"r.id", "r.scraper", "r.platform", "r.channel", "r.platform_id", "r.date", "r.raw_data",
	"r.archived_urls", "r.media_archived", "r.date_archived",
}

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("RawPostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func scan(row pgx.Row) (*domain.RawPost, error) {
	var r domain.RawPost
	err := row.Scan(
		&r.ID, &r.Scraper, &r.Platform, &r.ChannelID, &r.PlatformID, &r.Date, &r.RawData,
		&r.ArchivedURLs, &r.ArchivedAt, &r.CapturedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.ArchivedURLs == nil {
		r.ArchivedURLs = domain.ArchiveMap{}
	}
	return &r, nil
}

func selectRaw() sq.SelectBuilder {
	return repositories.SqBuilder.Select(columns...).From(table + " r")
}

func (p *Pgx) queryMany(ctx context.Context, b sq.SelectBuilder) ([]*domain.RawPost, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RawPost
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *Pgx) queryOne(ctx context.Context, b sq.SelectBuilder) (*domain.RawPost, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	r, err := scan(p.pg.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (p *Pgx) Create(ctx context.Context, raw *domain.RawPost) error {
	urls := raw.ArchivedURLs
	if urls == nil {
		urls = domain.ArchiveMap{}
	}
	query, args, err := repositories.SqBuilder.
		Insert(table).
		Columns("scraper", "platform", "channel", "platform_id", "date", "raw_data", "archived_urls", "media_archived").
		Values(raw.Scraper, raw.Platform, raw.ChannelID, raw.PlatformID, raw.Date, raw.RawData, urls, raw.ArchivedAt).
		Suffix("RETURNING id, date_archived").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	return p.pg.QueryRow(ctx, query, args...).Scan(&raw.ID, &raw.CapturedAt)
}

func (p *Pgx) GetByID(ctx context.Context, id int64) (*domain.RawPost, error) {
	return p.queryOne(ctx, selectRaw().Where(sq.Eq{"r.id": id}))
}

func (p *Pgx) Newest(ctx context.Context, channelID int64) (*domain.RawPost, error) {
	return p.queryOne(ctx, selectRaw().
		Where(sq.Eq{"r.channel": channelID}).
		OrderBy("r.date DESC", "r.id DESC").
		Limit(1))
}

func (p *Pgx) Oldest(ctx context.Context, channelID int64) (*domain.RawPost, error) {
	return p.queryOne(ctx, selectRaw().
		Where(sq.Eq{"r.channel": channelID}).
		OrderBy("r.date ASC", "r.id ASC").
		Limit(1))
}

func unarchivedQuery(q UnarchivedQuery) sq.SelectBuilder {
	b := selectRaw().Where(sq.Eq{"r.media_archived": nil})
	if len(q.ExcludeIDs) > 0 {
		b = b.Where(sq.NotEq{"r.id": q.ExcludeIDs})
	}
	if q.Chronological {
		b = b.OrderBy("r.date ASC", "r.id ASC")
	} else {
		b = b.OrderBy("random()")
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	return b
}

func (p *Pgx) ListUnarchived(ctx context.Context, q UnarchivedQuery) ([]*domain.RawPost, error) {
	return p.queryMany(ctx, unarchivedQuery(q))
}

func (p *Pgx) UpdateArchive(ctx context.Context, id int64, urls domain.ArchiveMap, archivedAt *time.Time) error {
	if urls == nil {
		urls = domain.ArchiveMap{}
	}
	query, args, err := repositories.SqBuilder.
		Update(table).
		Set("archived_urls", urls).
		Set("media_archived", archivedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) ReopenTooLarge(ctx context.Context) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Update(table).
		Set("media_archived", nil).
		Set("archived_urls", sq.Expr(
			"(SELECT jsonb_object_agg(key, CASE WHEN value = to_jsonb(?::text) THEN 'null'::jsonb ELSE value END) FROM jsonb_each(archived_urls))",
			domain.ArchiveTooLarge,
		)).
		Where(sq.Expr("EXISTS (SELECT 1 FROM jsonb_each_text(archived_urls) e WHERE e.value = ?)", domain.ArchiveTooLarge)).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	tag, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func untransformedQuery(q UntransformedQuery) sq.SelectBuilder {
	b := selectRaw().
		LeftJoin("posts p ON p.raw_id = r.id").
		Where(sq.Eq{"p.id": nil}).
		OrderBy(q.After.OrderBy("r.date", "r.id")...)
	if w := q.After.Where("r.date", "r.id"); w != nil {
		b = b.Where(w)
	}
	if len(q.Filter.IDs) > 0 {
		b = b.Where(sq.Eq{"r.channel": q.Filter.IDs})
	}
	if q.Filter.Platform != "" {
		b = b.Where(sq.Eq{"r.platform": q.Filter.Platform})
	}
	if q.Filter.Category != "" {
		b = b.Where("EXISTS (SELECT 1 FROM channels c WHERE c.id = r.channel AND c.category = ?)", q.Filter.Category)
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	return b
}

func (p *Pgx) ListUntransformed(ctx context.Context, q UntransformedQuery) ([]*domain.RawPost, error) {
	return p.queryMany(ctx, untransformedQuery(q))
}

func withoutMediaQuery(after repositories.Watermark, limit uint64) sq.SelectBuilder {
	after.Desc = true
	b := selectRaw().
		Join("posts p ON p.raw_id = r.id").
		Where(sq.NotEq{"r.media_archived": nil}).
		Where(sq.Expr("r.archived_urls <> '{}'::jsonb")).
		Where("NOT EXISTS (SELECT 1 FROM media m WHERE m.raw_id = r.id)").
		OrderBy(after.OrderBy("r.date", "r.id")...)
	if w := after.Where("r.date", "r.id"); w != nil {
		b = b.Where(w)
	}
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b
}

func (p *Pgx) ListWithoutMedia(ctx context.Context, after repositories.Watermark, limit uint64) ([]*domain.RawPost, error) {
	return p.queryMany(ctx, withoutMediaQuery(after, limit))
}
