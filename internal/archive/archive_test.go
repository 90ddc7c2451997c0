package archive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orgball2608/channel-archiver/internal/archive"
	mock_archive "github.com/orgball2608/channel-archiver/internal/archive/mocks"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
}

func newLocalStore(t *testing.T) *archive.LocalStore {
	t.Helper()
	store, err := archive.NewLocalStore(t.TempDir(), "https://media.example")
	require.NoError(t, err)
	return store
}

func TestCompleteIsNoopWhenResolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_archive.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	a := archive.NewArchiver(fetcher, newLocalStore(t), fastRetry(), logger.NewNop())
	raw := &domain.RawPost{ID: 1, ArchivedURLs: domain.ArchiveMap{}}
	raw.ArchivedURLs.Resolve("https://cdn.example/a.jpg", "https://media.example/a")
	raw.ArchivedURLs.Resolve("https://cdn.example/b.jpg", domain.ArchiveTooLarge)

	out, err := a.Complete(context.Background(), "ns", raw)
	require.NoError(t, err)
	assert.Same(t, raw, out)
}

func TestCompleteTooLargeIsNotFetchedAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_archive.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://cdn.example/huge.mp4").Return(nil, archive.ErrTooLarge).Times(1)

	a := archive.NewArchiver(fetcher, newLocalStore(t), fastRetry(), logger.NewNop())
	raw := &domain.RawPost{ID: 2, ArchivedURLs: domain.ArchiveMap{}}
	raw.ArchivedURLs.Add("https://cdn.example/huge.mp4")

	first, err := a.Complete(context.Background(), "ns", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/huge.mp4"}, first.ArchivedURLs.TooLarge())
	assert.Nil(t, raw.ArchivedURLs["https://cdn.example/huge.mp4"])

	second, err := a.Complete(context.Background(), "ns", first)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/huge.mp4"}, second.ArchivedURLs.TooLarge())
}

func TestCompleteLeavesFailuresUnresolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_archive.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://cdn.example/ok.jpg").
		Return(&archive.Blob{Data: []byte("jpeg"), ContentType: "image/jpeg"}, nil)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://cdn.example/gone.jpg").
		Return(nil, errors.ErrServiceUnavailable)

	a := archive.NewArchiver(fetcher, newLocalStore(t), fastRetry(), logger.NewNop())
	raw := &domain.RawPost{ID: 3, ArchivedURLs: domain.ArchiveMap{}}
	raw.ArchivedURLs.Add("https://cdn.example/ok.jpg")
	raw.ArchivedURLs.Add("https://cdn.example/gone.jpg")

	out, err := a.Complete(context.Background(), "telegram", raw)
	require.NoError(t, err)
	assert.False(t, out.ArchivedURLs.Complete())
	assert.Equal(t, []string{"https://cdn.example/gone.jpg"}, out.ArchivedURLs.Unresolved())

	archived := out.ArchivedURLs["https://cdn.example/ok.jpg"]
	require.NotNil(t, archived)
	assert.Equal(t, "https://media.example/"+archive.Key("telegram", "https://cdn.example/ok.jpg", "image/jpeg"), *archived)
}

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := archive.NewLocalStore(dir, "")
	require.NoError(t, err)

	u, err := store.Put(context.Background(), []byte("data"), "text/plain", "ns/abc.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "ns", "abc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	_, err = store.Put(context.Background(), nil, "", "../escape")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestHTTPFetcherRetriesTransientFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	f := archive.NewHTTPFetcher(archive.HTTPFetcherOpts{Logger: logger.NewNop(), Retry: fastRetry(), MaxBytes: 1024})
	blob, err := f.Fetch(context.Background(), srv.URL+"/x.png")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Equal(t, []byte("png"), blob.Data)
}

func TestHTTPFetcherDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := archive.NewHTTPFetcher(archive.HTTPFetcherOpts{Logger: logger.NewNop(), Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHTTPFetcherEnforcesMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := archive.NewHTTPFetcher(archive.HTTPFetcherOpts{Logger: logger.NewNop(), Retry: fastRetry(), MaxBytes: 16})
	_, err := f.Fetch(context.Background(), srv.URL+"/big.mp4")
	assert.True(t, errors.Is(err, archive.ErrTooLarge))
}
