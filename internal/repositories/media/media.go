package media

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("media already exists")
	ErrNotFound      = errors.New("media not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=mocks/mock.go
type Repository interface {
	// Create inserts a media row and fills its ID. It returns ErrAlreadyExists when the same
	// original URL is already attached to the raw capture.
	Create(ctx context.Context, item *domain.Media) error

	ListByPost(ctx context.Context, postID int64) ([]*domain.Media, error)

	// ListUnhydrated returns media without metadata in id order, starting after afterID.
	ListUnhydrated(ctx context.Context, afterID int64, limit uint64) ([]*domain.Media, error)

	Hydrate(ctx context.Context, id int64, metadata map[string]any, text string, at time.Time) error
}
