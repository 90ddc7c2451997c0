package media

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

const table = "media"

var columns = []string{
	"id", "post", "raw_id", "type", "url", "original_url", "date", "date_transformed", "exif", "ocr", "date_hydrated",
}

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("MediaRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func (p *Pgx) Create(ctx context.Context, m *domain.Media) error {
	query, args, err := repositories.SqBuilder.
		Insert(table).
		Columns("post", "raw_id", "type", "url", "original_url", "date", "date_transformed").
		Values(m.PostID, m.RawID, string(m.Kind), m.URL, m.OriginalURL, m.Date, m.TransformedAt).
		Suffix("ON CONFLICT (raw_id, original_url) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	err = p.pg.QueryRow(ctx, query, args...).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyExists
	}
	return err
}

func (p *Pgx) list(ctx context.Context, b sq.SelectBuilder) ([]*domain.Media, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Media
	for rows.Next() {
		var m domain.Media
		var kind string
		var date, transformed *time.Time
		if err := rows.Scan(&m.ID, &m.PostID, &m.RawID, &kind, &m.URL, &m.OriginalURL, &date, &transformed,
			&m.Metadata, &m.Text, &m.HydratedAt); err != nil {
			return nil, err
		}
		m.Kind = domain.MediaKind(kind)
		if date != nil {
			m.Date = *date
		}
		if transformed != nil {
			m.TransformedAt = *transformed
		}
		out = append(out, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *Pgx) ListByPost(ctx context.Context, postID int64) ([]*domain.Media, error) {
	return p.list(ctx, repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"post": postID}).
		OrderBy("id"))
}

func unhydratedQuery(afterID int64, limit uint64) sq.SelectBuilder {
	b := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"date_hydrated": nil}).
		Where(sq.Gt{"id": afterID}).
		OrderBy("id")
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b
}

func (p *Pgx) ListUnhydrated(ctx context.Context, afterID int64, limit uint64) ([]*domain.Media, error) {
	return p.list(ctx, unhydratedQuery(afterID, limit))
}

func (p *Pgx) Hydrate(ctx context.Context, id int64, metadata map[string]any, text string, at time.Time) error {
	query, args, err := repositories.SqBuilder.
		Update(table).
		Set("exif", metadata).
		Set("ocr", text).
		Set("date_hydrated", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	tag, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
