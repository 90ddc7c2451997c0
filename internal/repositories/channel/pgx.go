package channel

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

const table = "channels"

var columns = []string{
	"id", "name", "platform_id", "category", "platform", "url", "screenname", "country",
	"influencer", "public", "chat", "notes", "source", "unavailable_at", "created_at", "updated_at",
}

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("ChannelRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func scan(row pgx.Row) (*domain.Channel, error) {
	var c domain.Channel
	var source string
	err := row.Scan(
		&c.ID, &c.Name, &c.PlatformID, &c.Category, &c.Platform, &c.URL, &c.ScreenName, &c.Country,
		&c.Influencer, &c.Public, &c.Chat, &c.Notes, &source, &c.UnavailableAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Source = domain.ChannelSource(source)
	return &c, nil
}

func insertQuery(c *domain.Channel) sq.InsertBuilder {
	return repositories.SqBuilder.
		Insert(table).
		Columns("name", "platform_id", "category", "platform", "url", "screenname", "country",
			"influencer", "public", "chat", "notes", "source").
		Values(c.Name, c.PlatformID, c.Category, c.Platform, c.URL, c.ScreenName, c.Country,
			c.Influencer, c.Public, c.Chat, c.Notes, string(c.Source)).
		Suffix("ON CONFLICT DO NOTHING RETURNING id, created_at, updated_at")
}

func (p *Pgx) Create(ctx context.Context, c *domain.Channel) error {
	query, args, err := insertQuery(c).ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	err = p.pg.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == repositories.UniqueViolation) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (p *Pgx) GetByID(ctx context.Context, id int64) (*domain.Channel, error) {
	query, args, err := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	c, err := scan(p.pg.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ScreenNameKey is the SQL form of domain.NormalizeScreenName. The unique index on
// screen-names is built on the same expression.
const ScreenNameKey = `lower(btrim(screenname, E'@ \t\r\n'))`

func identityQuery(c *domain.Channel) sq.SelectBuilder {
	keys := sq.Or{}
	if c.URL != "" {
		keys = append(keys, sq.Eq{"url": c.URL})
	}
	if c.PlatformID != "" {
		keys = append(keys, sq.Eq{"platform_id": c.PlatformID})
	}
	if sn := domain.NormalizeScreenName(c.ScreenName); sn != "" {
		keys = append(keys, sq.Expr(ScreenNameKey+" = ?", sn))
	}
	return repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"platform": c.Platform}).
		Where(keys).
		OrderBy("id").
		Limit(1)
}

func (p *Pgx) FindByIdentity(ctx context.Context, c *domain.Channel) (*domain.Channel, error) {
	if !c.HasIdentity() {
		return nil, ErrNotFound
	}
	query, args, err := identityQuery(c).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	found, err := scan(p.pg.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return found, err
}

func (p *Pgx) Update(ctx context.Context, c *domain.Channel) error {
	query, args, err := repositories.SqBuilder.
		Update(table).
		SetMap(map[string]any{
			"name":        c.Name,
			"platform_id": c.PlatformID,
			"category":    c.Category,
			"url":         c.URL,
			"screenname":  c.ScreenName,
			"country":     c.Country,
			"influencer":  c.Influencer,
			"public":      c.Public,
			"chat":        c.Chat,
			"notes":       c.Notes,
			"source":      string(c.Source),
			"updated_at":  sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	tag, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == repositories.UniqueViolation {
			return ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func listQuery(filter domain.ChannelFilter) sq.SelectBuilder {
	b := repositories.SqBuilder.
		Select(columns...).
		From(table).
		OrderBy("id")
	if len(filter.IDs) > 0 {
		b = b.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.Platform != "" {
		b = b.Where(sq.Eq{"platform": filter.Platform})
	}
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if !filter.IncludeUnavailable {
		b = b.Where(sq.Eq{"unavailable_at": nil})
	}
	return b
}

func (p *Pgx) List(ctx context.Context, filter domain.ChannelFilter) ([]*domain.Channel, error) {
	query, args, err := listQuery(filter).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return channels, nil
}

func (p *Pgx) MarkUnavailable(ctx context.Context, id int64, at time.Time) error {
	query, args, err := repositories.SqBuilder.
		Update(table).
		Set("unavailable_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}
