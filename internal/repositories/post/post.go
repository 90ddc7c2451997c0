package post

import (
	"context"
	"errors"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

var (
	ErrNotFound = errors.New("post not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go
type Repository interface {
	// CreateBatch inserts the posts in one statement and fills the IDs of the inserted rows.
	// Posts whose raw capture is already transformed are left with a zero ID.
	CreateBatch(ctx context.Context, posts []*domain.Post) error

	GetByRawID(ctx context.Context, rawID int64) (*domain.Post, error)

	// FindByPlatformID returns the post with the platform-native id in the channel.
	FindByPlatformID(ctx context.Context, channelID int64, platformID string) (*domain.Post, error)

	// DeleteForChannels removes posts and their media for the channels matching the filter so
	// the raw captures become untransformed again. Replies pointing into the removed set are
	// reset to the pending sentinel.
	DeleteForChannels(ctx context.Context, filter domain.ChannelFilter) (int64, error)
}
