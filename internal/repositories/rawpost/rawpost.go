package rawpost

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
)

var (
	ErrNotFound = errors.New("raw post not found")
)

// UnarchivedQuery selects raw posts whose media sweep has not completed.
type UnarchivedQuery struct {
	Limit         uint64
	Chronological bool
	// ExcludeIDs are skipped, so a pass over rows that stay unresolved terminates.
	ExcludeIDs []int64
}

// UntransformedQuery selects raw posts without a corresponding post.
type UntransformedQuery struct {
	After  repositories.Watermark
	Limit  uint64
	Filter domain.ChannelFilter
}

//go:generate go run go.uber.org/mock/mockgen -source=rawpost.go -destination=mocks/mock.go
type Repository interface {
	// Create persists a capture and fills its ID and CapturedAt.
	Create(ctx context.Context, raw *domain.RawPost) error

	GetByID(ctx context.Context, id int64) (*domain.RawPost, error)

	// Newest returns the most recent capture for the channel, or ErrNotFound.
	Newest(ctx context.Context, channelID int64) (*domain.RawPost, error)

	// Oldest returns the earliest capture for the channel, or ErrNotFound.
	Oldest(ctx context.Context, channelID int64) (*domain.RawPost, error)

	ListUnarchived(ctx context.Context, q UnarchivedQuery) ([]*domain.RawPost, error)

	// UpdateArchive stores the archive map and, when archivedAt is set, closes the sweep for the row.
	UpdateArchive(ctx context.Context, id int64, urls domain.ArchiveMap, archivedAt *time.Time) error

	// ReopenTooLarge clears media_archived on rows holding too-large entries and resets those
	// entries to unresolved. It returns the number of rows reopened.
	ReopenTooLarge(ctx context.Context) (int64, error)

	ListUntransformed(ctx context.Context, q UntransformedQuery) ([]*domain.RawPost, error)

	// ListWithoutMedia returns transformed, fully archived raw posts that have archived assets
	// but no media rows yet, most recent first.
	ListWithoutMedia(ctx context.Context, after repositories.Watermark, limit uint64) ([]*domain.RawPost, error)
}
