package source

import (
	"context"
	"errors"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

// Terminal conditions of a Stream besides io.EOF, which means the source is exhausted.
var (
	// ErrCursorReached ends a stream that reached the Since cursor.
	ErrCursorReached = errors.New("cursor reached")
	// ErrMorePages ends a stream that ran out of its page budget before reaching Since.
	// Callers resume by fetching again with Until set to the oldest item they received.
	ErrMorePages = errors.New("page budget exhausted")
)

type FetchOptions struct {
	// Since is the newest stored capture; the stream stops at the first item at or before it.
	Since *domain.RawPost
	// Until switches to backfill: only items strictly older than it are produced.
	Until        *domain.RawPost
	ArchiveMedia bool
}

// Stream is a finite, non-restartable sequence of captures in the source's native order.
type Stream interface {
	// Next returns the next capture, or io.EOF, ErrCursorReached or ErrMorePages once the
	// stream has ended. Any other error is a fetch failure.
	Next(ctx context.Context) (*domain.RawPost, error)
	Close() error
}

//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=mocks/mock.go
type Plugin interface {
	// Name is the plugin identity and version recorded as the scraper of its captures.
	Name() string
	Platform() string
	CanHandle(c *domain.Channel) bool
	FetchPosts(ctx context.Context, c *domain.Channel, opts FetchOptions) (Stream, error)
	FetchProfile(ctx context.Context, c *domain.Channel) (*domain.RawChannelInfo, error)
	// CompleteArchival resolves the null entries of the capture's archive map. It returns the
	// capture unchanged, without network calls, when nothing is pending.
	CompleteArchival(ctx context.Context, raw *domain.RawPost) (*domain.RawPost, error)
}

// Terminal reports whether err is one of the normal end-of-stream conditions.
func Terminal(err error) bool {
	return errors.Is(err, ErrCursorReached) || errors.Is(err, ErrMorePages) || isEOF(err)
}
