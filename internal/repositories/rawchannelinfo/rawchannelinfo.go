package rawchannelinfo

import (
	"context"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
)

//go:generate go run go.uber.org/mock/mockgen -source=rawchannelinfo.go -destination=mocks/mock.go
type Repository interface {
	// Create persists a profile snapshot and fills its ID and CapturedAt.
	Create(ctx context.Context, info *domain.RawChannelInfo) error

	// ListUntransformed returns snapshots without a normalized channel_info row, oldest first.
	ListUntransformed(ctx context.Context, after repositories.Watermark, limit uint64) ([]*domain.RawChannelInfo, error)
}
