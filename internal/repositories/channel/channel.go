package channel

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("channel already exists")
	ErrNotFound      = errors.New("channel not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=mocks/mock.go
type Repository interface {
	// Create inserts the channel and fills its ID. It returns ErrAlreadyExists when a row
	// with one of the same soft-unique keys won the race.
	Create(ctx context.Context, c *domain.Channel) error

	GetByID(ctx context.Context, id int64) (*domain.Channel, error)

	// FindByIdentity returns a channel on the same platform sharing any populated key with c.
	FindByIdentity(ctx context.Context, c *domain.Channel) (*domain.Channel, error)

	// Update rewrites the mutable columns of an existing channel.
	Update(ctx context.Context, c *domain.Channel) error

	// List returns channels matching the filter ordered by id.
	List(ctx context.Context, filter domain.ChannelFilter) ([]*domain.Channel, error)

	// MarkUnavailable records that the platform refused access to the channel.
	MarkUnavailable(ctx context.Context, id int64, at time.Time) error
}
