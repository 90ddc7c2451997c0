package channelinfo

import (
	"context"
	"errors"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("channel info already exists")
)

//go:generate go run go.uber.org/mock/mockgen -source=channelinfo.go -destination=mocks/mock.go
type Repository interface {
	// Create inserts the normalized snapshot. It returns ErrAlreadyExists when the raw
	// snapshot was already transformed.
	Create(ctx context.Context, info *domain.ChannelInfo) error
}
