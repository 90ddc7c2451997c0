package channelinfo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("ChannelInfoRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func (p *Pgx) Create(ctx context.Context, info *domain.ChannelInfo) error {
	query, args, err := repositories.SqBuilder.
		Insert("channel_info").
		Columns("raw_channel_info_id", "channel", "platform_id", "platform", "scraper", "transformer",
			"screenname", "name", "description", "description_url", "description_location",
			"followers", "following", "verified", "date_created", "date_archived", "date_transformed").
		Values(info.RawChannelInfoID, info.ChannelID, info.PlatformID, info.Platform, info.Scraper, info.Transformer,
			info.ScreenName, info.Name, info.Description, info.DescriptionURL, info.DescriptionLocation,
			info.Followers, info.Following, info.Verified, info.DateCreated, info.CapturedAt, info.TransformedAt).
		Suffix("ON CONFLICT (raw_channel_info_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	err = p.pg.QueryRow(ctx, query, args...).Scan(&info.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyExists
	}
	return err
}
