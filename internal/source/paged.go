package source

import (
	"context"
	"errors"
	"io"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

// Page is one block of items as returned by a paginated source, newest first.
type Page struct {
	Items []*domain.RawPost
	// Next is the token of the following, older page. Empty on the last page.
	Next string
}

type PageFunc func(ctx context.Context, token string) (*Page, error)

type PagedOpts struct {
	Since *domain.RawPost
	Until *domain.RawPost
	// MaxPages bounds one invocation; zero means unbounded.
	MaxPages int
	// Token is the first page token, typically derived from Until.
	Token string
}

// PagedStream adapts a PageFunc to Stream and applies the cursor rules shared by all
// paginated sources.
type PagedStream struct {
	fetch   PageFunc
	opts    PagedOpts
	buf     []*domain.RawPost
	token   string
	pages   int
	seen    int
	ended   error
	started bool
}

var _ Stream = (*PagedStream)(nil)

func NewPagedStream(fetch PageFunc, opts PagedOpts) *PagedStream {
	return &PagedStream{fetch: fetch, opts: opts, token: opts.Token}
}

func atOrBefore(item, cursor *domain.RawPost) bool {
	return !item.Date.After(cursor.Date)
}

func (s *PagedStream) Next(ctx context.Context) (*domain.RawPost, error) {
	for {
		if s.ended != nil {
			return nil, s.ended
		}
		if len(s.buf) == 0 {
			if err := s.fill(ctx); err != nil {
				return nil, err
			}
			continue
		}

		item := s.buf[0]
		s.buf = s.buf[1:]
		first := s.seen == 0
		s.seen++

		if s.opts.Until != nil && !item.Date.Before(s.opts.Until.Date) {
			continue
		}
		if s.opts.Since != nil && atOrBefore(item, s.opts.Since) {
			if first {
				// a pinned item heads the feed regardless of its age
				continue
			}
			s.ended = ErrCursorReached
			continue
		}
		return item, nil
	}
}

func (s *PagedStream) fill(ctx context.Context) error {
	if s.started && s.token == "" {
		s.ended = io.EOF
		return nil
	}
	if s.opts.MaxPages > 0 && s.pages >= s.opts.MaxPages {
		s.ended = ErrMorePages
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := s.fetch(ctx, s.token)
	s.pages++
	s.started = true
	if err != nil {
		return err
	}
	if page == nil || (len(page.Items) == 0 && page.Next == s.token) {
		s.ended = io.EOF
		return nil
	}
	s.buf = append(s.buf, page.Items...)
	s.token = page.Next
	return nil
}

func (s *PagedStream) Close() error {
	s.buf = nil
	if s.ended == nil {
		s.ended = io.EOF
	}
	return nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
