package archive

import (
	"context"
	"errors"
)

// ErrTooLarge is returned by a Fetcher when the asset exceeds the configured size threshold.
var ErrTooLarge = errors.New("asset exceeds size threshold")

type Blob struct {
	Data        []byte
	ContentType string
}

//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock.go
type Fetcher interface {
	// Fetch downloads the asset at url. Transient failures are retried inside.
	Fetch(ctx context.Context, url string) (*Blob, error)
}
