package syncer

import (
	"context"
	"testing"

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

func storeCapture(t *testing.T, f *fixture, n int, urls ...string) *domain.RawPost {
	t.Helper()
	raw := capture(n)
	raw.ChannelID = f.ch.ID
	raw.Scraper = scraper
	raw.ArchivedURLs = domain.ArchiveMap{}
	for _, u := range urls {
		raw.ArchivedURLs.Add(u)
	}
	require.NoError(t, f.db.RawPosts().Create(context.Background(), raw))
	return raw
}

func withArchiver(t *testing.T, f *fixture, fetcher archive.Fetcher) {
	t.Helper()
	store, err := archive.NewLocalStore(t.TempDir(), "https://media.example")
	require.NoError(t, err)
	a := archive.NewArchiver(fetcher, store, retry.Config{MaxRetries: 0}, logger.NewNop())
	f.plugin.EXPECT().CompleteArchival(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, raw *domain.RawPost) (*domain.RawPost, error) {
			return a.Complete(ctx, archive.Namespace(scraper), raw)
		}).AnyTimes()
}

func TestSweepTooLargeIsNeverDownloadedTwice(t *testing.T) {
	f := newFixture(t, Settings{SweepBatch: 10})
	ctx := context.Background()
	fetcher := mock_archive.NewMockFetcher(gomock.NewController(t))
	withArchiver(t, f, fetcher)

	huge := "https://cdn.example/huge.mp4"
	fetcher.EXPECT().Fetch(gomock.Any(), huge).Return(nil, archive.ErrTooLarge).Times(1)
	raw := storeCapture(t, f, 1, huge)

	for i := 0; i < 2; i++ {
		_, err := f.syncer.SweepUnarchivedMedia(ctx, SweepOptions{})
		require.NoError(t, err)

		got, err := f.db.RawPosts().GetByID(ctx, raw.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{huge}, got.ArchivedURLs.TooLarge())
		assert.NotNil(t, got.ArchivedAt)
	}
}

func TestSweepTooLargeWithPendingSiblingIsNotRefetched(t *testing.T) {
	f := newFixture(t, Settings{SweepBatch: 10})
	ctx := context.Background()
	fetcher := mock_archive.NewMockFetcher(gomock.NewController(t))
	withArchiver(t, f, fetcher)

	huge := "https://cdn.example/huge.mp4"
	flaky := "https://cdn.example/flaky.jpg"
	fetcher.EXPECT().Fetch(gomock.Any(), huge).Return(nil, archive.ErrTooLarge).Times(1)
	fetcher.EXPECT().Fetch(gomock.Any(), flaky).Return(nil, errors.ErrServiceUnavailable).Times(2)
	raw := storeCapture(t, f, 1, huge, flaky)

	for i := 0; i < 2; i++ {
		report, err := f.syncer.SweepUnarchivedMedia(ctx, SweepOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Rounds)
		require.Len(t, report.Failures, 1)
		assert.ErrorIs(t, report.Failures[0].Err, ErrMediaUnresolved)
		assert.Equal(t, errors.CodeFetch, errors.GetCode(report.Failures[0].Err))
		assert.Equal(t, "1 entries unresolved: media unresolved", report.Failures[0].Err.Error())
	}

	got, err := f.db.RawPosts().GetByID(ctx, raw.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{huge}, got.ArchivedURLs.TooLarge())
	assert.Equal(t, []string{flaky}, got.ArchivedURLs.Unresolved())
	assert.Nil(t, got.ArchivedAt)
}

func TestSweepRetryTooLargeReopens(t *testing.T) {
	f := newFixture(t, Settings{SweepBatch: 10, RetryTooLarge: true})
	ctx := context.Background()
	fetcher := mock_archive.NewMockFetcher(gomock.NewController(t))
	withArchiver(t, f, fetcher)

	huge := "https://cdn.example/huge.mp4"
	raw := storeCapture(t, f, 1)
	raw.ArchivedURLs.Resolve(huge, domain.ArchiveTooLarge)
	require.NoError(t, f.db.RawPosts().UpdateArchive(ctx, raw.ID, raw.ArchivedURLs, nil))

	fetcher.EXPECT().Fetch(gomock.Any(), huge).Return(&archive.Blob{Data: []byte("v"), ContentType: "video/mp4"}, nil)

	_, err := f.syncer.SweepUnarchivedMedia(ctx, SweepOptions{})
	require.NoError(t, err)

	got, err := f.db.RawPosts().GetByID(ctx, raw.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ArchivedURLs.TooLarge())
	assert.True(t, got.ArchivedURLs.Complete())
}

func TestSweepConcurrentWorkersCompleteBacklog(t *testing.T) {
	f := newFixture(t, Settings{SweepBatch: 3, SweepWorkers: 4})
	ctx := context.Background()
	fetcher := mock_archive.NewMockFetcher(gomock.NewController(t))
	withArchiver(t, f, fetcher)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(&archive.Blob{Data: []byte("img"), ContentType: "image/jpeg"}, nil).Times(10)

	for i := 1; i <= 10; i++ {
		storeCapture(t, f, i, "https://cdn.example/"+capture(i).PlatformID+".jpg")
	}

	report, err := f.syncer.SweepUnarchivedMedia(ctx, SweepOptions{Chronological: true})
	require.NoError(t, err)
	assert.Equal(t, 10, report.Succeeded)
	assert.Equal(t, 4, report.Rounds)

	for _, raw := range f.db.AllRawPosts() {
		assert.True(t, raw.ArchivedURLs.Complete())
		assert.NotNil(t, raw.ArchivedAt)
	}
}

func TestSweepEmptyArchiveMapIsClosed(t *testing.T) {
	f := newFixture(t, Settings{})
	raw := storeCapture(t, f, 1)
	f.plugin.EXPECT().CompleteArchival(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *domain.RawPost) (*domain.RawPost, error) { return r, nil })

	report, err := f.syncer.SweepUnarchivedMedia(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	got, err := f.db.RawPosts().GetByID(context.Background(), raw.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ArchivedAt)
}

func TestSweepSkipsUnknownScraper(t *testing.T) {
	f := newFixture(t, Settings{})
	storeCapture(t, f, 1, "https://cdn.example/a.jpg")
	f.plugin.EXPECT().CompleteArchival(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *domain.RawPost) (*domain.RawPost, error) { return r, nil })
	other := capture(2)
	other.ChannelID = f.ch.ID
	other.Scraper = "retired/0"
	require.NoError(t, f.db.RawPosts().Create(context.Background(), other))

	report, err := f.syncer.SweepUnarchivedMedia(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
}
