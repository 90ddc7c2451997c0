package rawchannelinfo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

const table = "raw_channel_info"

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("RawChannelInfoRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func (p *Pgx) Create(ctx context.Context, info *domain.RawChannelInfo) error {
	query, args, err := repositories.SqBuilder.
		Insert(table).
		Columns("scraper", "platform", "channel", "raw_data").
		Values(info.Scraper, info.Platform, info.ChannelID, info.RawData).
		Suffix("RETURNING id, date_archived").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	return p.pg.QueryRow(ctx, query, args...).Scan(&info.ID, &info.CapturedAt)
}

func untransformedQuery(after repositories.Watermark, limit uint64) sq.SelectBuilder {
	b := repositories.SqBuilder.
		Select("r.id", "r.scraper", "r.platform", "r.channel", "r.raw_data", "r.date_archived").
		From(table + " r").
		LeftJoin("channel_info c ON c.raw_channel_info_id = r.id").
		Where(sq.Eq{"c.id": nil}).
		OrderBy(after.OrderBy("r.date_archived", "r.id")...)
	if w := after.Where("r.date_archived", "r.id"); w != nil {
		b = b.Where(w)
	}
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b
}

func (p *Pgx) ListUntransformed(ctx context.Context, after repositories.Watermark, limit uint64) ([]*domain.RawChannelInfo, error) {
	query, args, err := untransformedQuery(after, limit).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RawChannelInfo
	for rows.Next() {
		var info domain.RawChannelInfo
		if err := rows.Scan(&info.ID, &info.Scraper, &info.Platform, &info.ChannelID, &info.RawData, &info.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, &info)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
