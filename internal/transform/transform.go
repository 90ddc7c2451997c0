package transform

import (
	"context"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

// Inserter persists normalized rows on behalf of a plugin. Plugins never talk to the store.
type Inserter interface {
	// Channel finds the channel sharing a soft-unique key with c on its platform, merges c
	// into it under the promotion policy and returns it. Without a match c is created.
	Channel(ctx context.Context, c *domain.Channel) (*domain.Channel, error)

	// Post buffers p. It is written at the next flush point and only then carries an ID.
	Post(ctx context.Context, p *domain.Post) error

	// Flush writes the buffered posts. Lookups of a just-created post must flush first.
	Flush(ctx context.Context) error

	Media(ctx context.Context, item *domain.Media) error
	ChannelInfo(ctx context.Context, info *domain.ChannelInfo) error
}

// Session resolves references between records for the lifetime of one run.
type Session interface {
	// ReplyTarget returns the id of the post platformID in the channel or domain.ReplyPending.
	ReplyTarget(ctx context.Context, channelID int64, platformID string) (int64, error)

	// ForwardedChannel finds or creates the channel a post was forwarded from. hint carries
	// whatever the payload tells about it besides the platform id, which may be empty when
	// hint has a screen-name.
	ForwardedChannel(ctx context.Context, platform, platformID string, hint *domain.Channel) (int64, error)

	// MentionedChannel finds or creates the channel behind a screen-name mention.
	MentionedChannel(ctx context.Context, platform, screenName, url string) (int64, error)

	Channel(ctx context.Context, id int64) (*domain.Channel, error)

	// Enrich fills the extracted lists of p.
	Enrich(p *domain.Post)
}

//go:generate go run go.uber.org/mock/mockgen -source=transform.go -destination=mocks/mock.go
type Plugin interface {
	// Name is the transformer identity stored on every row it writes.
	Name() string
	Platform() string
	CanHandle(raw *domain.RawPost) bool

	Transform(ctx context.Context, raw *domain.RawPost, ins Inserter, sess Session) error
	TransformMedia(ctx context.Context, raw *domain.RawPost, post *domain.Post, ins Inserter) error
	TransformProfile(ctx context.Context, raw *domain.RawChannelInfo, ins Inserter, sess Session, ch *domain.Channel) error
}
