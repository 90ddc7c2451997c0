package transform_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/enrich"
	"github.com/orgball2608/channel-archiver/internal/repositories/memrepo"
	"github.com/orgball2608/channel-archiver/internal/transform"
	mock_transform "github.com/orgball2608/channel-archiver/internal/transform/mocks"
	pkgerrors "github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const platform = "Fake"

type payload struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	FwdID    string   `json:"fwd_id,omitempty"`
	FwdName  string   `json:"fwd_name,omitempty"`
	FwdUser  string   `json:"fwd_user,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
	Fail     bool     `json:"fail,omitempty"`
}

type profile struct {
	ID        string `json:"id"`
	Followers int64  `json:"followers"`
}

// fakePlugin normalizes payloads and counts how often each capture was transformed.
type fakePlugin struct {
	visits map[int64]int
	hook   func(raw *domain.RawPost)
}

func newFakePlugin() *fakePlugin {
	return &fakePlugin{visits: map[int64]int{}}
}

func (f *fakePlugin) Name() string     { return "FakeTransformer 0.1" }
func (f *fakePlugin) Platform() string { return platform }

func (f *fakePlugin) CanHandle(raw *domain.RawPost) bool {
	return strings.HasPrefix(raw.Scraper, "fake")
}

func (f *fakePlugin) Transform(ctx context.Context, raw *domain.RawPost, ins transform.Inserter, sess transform.Session) error {
	f.visits[raw.ID]++
	if f.hook != nil {
		f.hook(raw)
	}
	var m payload
	if err := json.Unmarshal([]byte(raw.RawData), &m); err != nil {
		return err
	}
	if m.Fail {
		return errors.New("malformed payload")
	}

	p := &domain.Post{
		RawID:       raw.ID,
		PlatformID:  m.ID,
		Scraper:     raw.Scraper,
		Transformer: f.Name(),
		Platform:    raw.Platform,
		ChannelID:   raw.ChannelID,
		Date:        raw.Date,
		CapturedAt:  raw.CapturedAt,
		Content:     m.Text,
	}
	if m.ReplyTo != "" {
		id, err := sess.ReplyTarget(ctx, raw.ChannelID, m.ReplyTo)
		if err != nil {
			return err
		}
		p.ReplyTo = &id
	}
	if m.FwdID != "" {
		id, err := sess.ForwardedChannel(ctx, raw.Platform, m.FwdID, &domain.Channel{Name: m.FwdName, ScreenName: m.FwdUser})
		if err != nil {
			return err
		}
		p.ForwardedFrom = &id
	}
	for _, sn := range m.Mentions {
		id, err := sess.MentionedChannel(ctx, raw.Platform, sn, "")
		if err != nil {
			return err
		}
		p.Mentions = append(p.Mentions, id)
	}
	sess.Enrich(p)
	return ins.Post(ctx, p)
}

func (f *fakePlugin) TransformMedia(ctx context.Context, raw *domain.RawPost, post *domain.Post, ins transform.Inserter) error {
	urls := make([]string, 0, len(raw.ArchivedURLs))
	for url := range raw.ArchivedURLs {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	for _, url := range urls {
		archived := raw.ArchivedURLs[url]
		if archived == nil || *archived == domain.ArchiveTooLarge {
			continue
		}
		err := ins.Media(ctx, &domain.Media{
			PostID:      post.ID,
			RawID:       raw.ID,
			Kind:        domain.KindOf("", url),
			URL:         *archived,
			OriginalURL: url,
			Date:        post.Date,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePlugin) TransformProfile(ctx context.Context, raw *domain.RawChannelInfo, ins transform.Inserter, _ transform.Session, ch *domain.Channel) error {
	var p profile
	if err := json.Unmarshal([]byte(raw.RawData), &p); err != nil {
		return err
	}
	if ch.PlatformID == "" {
		if _, err := ins.Channel(ctx, &domain.Channel{
			Platform:   ch.Platform,
			ScreenName: ch.ScreenName,
			PlatformID: p.ID,
			Source:     domain.SourceLinked,
		}); err != nil {
			return err
		}
	}
	return ins.ChannelInfo(ctx, &domain.ChannelInfo{
		RawChannelInfoID: raw.ID,
		ChannelID:        ch.ID,
		PlatformID:       p.ID,
		Platform:         raw.Platform,
		Scraper:          raw.Scraper,
		Transformer:      f.Name(),
		ScreenName:       ch.ScreenName,
		Followers:        p.Followers,
		CapturedAt:       raw.CapturedAt,
	})
}

type fixture struct {
	db      *memrepo.DB
	plugin  *fakePlugin
	channel *domain.Channel
	base    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memrepo.New()
	ch := &domain.Channel{Platform: platform, ScreenName: "starter", URL: "https://fake.example/starter", Source: domain.SourceResearcher}
	require.NoError(t, db.Channels().Create(context.Background(), ch))
	return &fixture{
		db:      db,
		plugin:  newFakePlugin(),
		channel: ch,
		base:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) stores() transform.Stores {
	return transform.Stores{
		Channels:     f.db.Channels(),
		RawPosts:     f.db.RawPosts(),
		RawInfos:     f.db.RawChannelInfos(),
		Posts:        f.db.Posts(),
		ChannelInfos: f.db.ChannelInfos(),
		Media:        f.db.Media(),
	}
}

func (f *fixture) orchestrator(t *testing.T, batch uint64, plugins ...transform.Plugin) *transform.Orchestrator {
	t.Helper()
	if len(plugins) == 0 {
		plugins = []transform.Plugin{f.plugin}
	}
	reg, err := transform.NewRegistry(plugins...)
	require.NoError(t, err)
	return transform.NewOrchestrator(reg, enrich.NewRegistry(), nil, f.stores(),
		transform.Settings{Batch: batch, FlushSize: 100}, logger.NewNop())
}

func (f *fixture) raw(t *testing.T, channelID int64, offset time.Duration, p payload) *domain.RawPost {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	raw := &domain.RawPost{
		Scraper:    "fake-web 1.0",
		Platform:   platform,
		ChannelID:  channelID,
		PlatformID: p.ID,
		Date:       f.base.Add(offset),
		RawData:    string(data),
	}
	require.NoError(t, f.db.RawPosts().Create(context.Background(), raw))
	return raw
}

func postFor(t *testing.T, db *memrepo.DB, rawID int64) domain.Post {
	t.Helper()
	for _, p := range db.AllPosts() {
		if p.RawID == rawID {
			return p
		}
	}
	t.Fatalf("no post for raw %d", rawID)
	return domain.Post{}
}

func TestRunUntransformedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.raw(t, f.channel.ID, time.Duration(i)*time.Minute, payload{ID: fmt.Sprint(i + 1), Text: "hello #world"})
	}
	o := f.orchestrator(t, 10)

	report, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
	require.Len(t, f.db.AllPosts(), 3)
	assert.Equal(t, []string{"world"}, f.db.AllPosts()[0].Hashtags)

	report, err = o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Rounds)
	assert.Len(t, f.db.AllPosts(), 3)
}

func TestWriterIgnoresSecondPostForSameCapture(t *testing.T) {
	f := newFixture(t)
	raw := f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	w := transform.NewWriter(f.db.Channels(), f.db.Posts(), f.db.Media(), f.db.ChannelInfos(), 10, logger.NewNop())
	ctx := context.Background()

	first := &domain.Post{RawID: raw.ID, ChannelID: f.channel.ID, PlatformID: "1"}
	require.NoError(t, w.Post(ctx, first))
	require.NoError(t, w.Flush(ctx))
	second := &domain.Post{RawID: raw.ID, ChannelID: f.channel.ID, PlatformID: "1"}
	require.NoError(t, w.Post(ctx, second))
	require.NoError(t, w.Flush(ctx))

	assert.NotZero(t, first.ID)
	assert.Zero(t, second.ID)
	assert.Len(t, f.db.AllPosts(), 1)
}

func TestWatermarkSharedTimestamps(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.raw(t, f.channel.ID, 0, payload{ID: fmt.Sprint(i + 1)})
	}
	o := f.orchestrator(t, 3)

	report, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	assert.Equal(t, 7, report.Succeeded)
	assert.Equal(t, 3, report.Rounds)
	assert.Len(t, f.plugin.visits, 7)
	for id, n := range f.plugin.visits {
		assert.Equal(t, 1, n, "raw %d", id)
	}
}

func TestWatermarkTerminatesWithConcurrentInserts(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.raw(t, f.channel.ID, time.Duration(i)*time.Second, payload{ID: fmt.Sprint(i + 1), Fail: i == 2})
	}
	added := 0
	f.plugin.hook = func(raw *domain.RawPost) {
		if added >= 4 {
			return
		}
		added++
		f.raw(t, f.channel.ID, time.Hour+time.Duration(added)*time.Second, payload{ID: fmt.Sprintf("late-%d", added)})
	}
	o := f.orchestrator(t, 4)

	report, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	assert.Len(t, f.plugin.visits, 14)
	for id, n := range f.plugin.visits {
		assert.Equal(t, 1, n, "raw %d", id)
	}
	assert.Equal(t, 13, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.LessOrEqual(t, report.Rounds, 14/4+2)

	// The failed capture stays untransformed for the next run.
	report, err = o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestScreenNameThenPlatformIDIsOneChannel(t *testing.T) {
	f := newFixture(t)
	w := transform.NewWriter(f.db.Channels(), f.db.Posts(), f.db.Media(), f.db.ChannelInfos(), 10, logger.NewNop())
	ctx := context.Background()

	first, err := w.Channel(ctx, &domain.Channel{Platform: platform, ScreenName: "@Alice", Source: domain.SourceMentioned})
	require.NoError(t, err)
	second, err := w.Channel(ctx, &domain.Channel{Platform: platform, ScreenName: "alice", PlatformID: "42", Source: domain.SourceForwarded})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	var matching []domain.Channel
	for _, c := range f.db.AllChannels() {
		if domain.NormalizeScreenName(c.ScreenName) == "alice" {
			matching = append(matching, c)
		}
	}
	require.Len(t, matching, 1)
	assert.Equal(t, "42", matching[0].PlatformID)
}

func TestCuratedChannelIsNotDowngraded(t *testing.T) {
	f := newFixture(t)
	w := transform.NewWriter(f.db.Channels(), f.db.Posts(), f.db.Media(), f.db.ChannelInfos(), 10, logger.NewNop())

	got, err := w.Channel(context.Background(), &domain.Channel{
		Platform:   platform,
		ScreenName: "STARTER",
		Name:       "someone else",
		Category:   "mentioned",
		Source:     domain.SourceMentioned,
	})
	require.NoError(t, err)

	assert.Equal(t, f.channel.ID, got.ID)
	assert.Equal(t, domain.SourceResearcher, got.Source)
	assert.Empty(t, got.Category)
	assert.Equal(t, "someone else", got.Name)
}

func TestReplySentinelIsNeverBackfilled(t *testing.T) {
	f := newFixture(t)
	reply := f.raw(t, f.channel.ID, time.Hour, payload{ID: "2", ReplyTo: "1"})
	o := f.orchestrator(t, 10)

	_, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)
	require.NotNil(t, postFor(t, f.db, reply.ID).ReplyTo)
	assert.Equal(t, domain.ReplyPending, *postFor(t, f.db, reply.ID).ReplyTo)

	target := f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	_, err = o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	postFor(t, f.db, target.ID)
	assert.Equal(t, domain.ReplyPending, *postFor(t, f.db, reply.ID).ReplyTo)
}

func TestReplyTargetFlushesBufferedPosts(t *testing.T) {
	f := newFixture(t)
	target := f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	reply := f.raw(t, f.channel.ID, time.Minute, payload{ID: "2", ReplyTo: "1"})
	o := f.orchestrator(t, 10)

	_, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	assert.Equal(t, postFor(t, f.db, target.ID).ID, *postFor(t, f.db, reply.ID).ReplyTo)
}

type countingChannels struct {
	*memrepo.Channels
	lookups int
}

func (c *countingChannels) FindByIdentity(ctx context.Context, ch *domain.Channel) (*domain.Channel, error) {
	c.lookups++
	return c.Channels.FindByIdentity(ctx, ch)
}

func TestForwardedAndMentionedPlaceholdersAreCached(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.raw(t, f.channel.ID, time.Duration(i)*time.Minute, payload{
			ID:       fmt.Sprint(i + 1),
			FwdID:    "555",
			FwdName:  "Origin",
			Mentions: []string{"@Bob", "bob"},
		})
	}
	counting := &countingChannels{Channels: f.db.Channels()}
	stores := f.stores()
	stores.Channels = counting
	reg, err := transform.NewRegistry(f.plugin)
	require.NoError(t, err)
	o := transform.NewOrchestrator(reg, enrich.NewRegistry(), nil, stores, transform.Settings{Batch: 2}, logger.NewNop())

	_, err = o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, counting.lookups)
	channels := f.db.AllChannels()
	require.Len(t, channels, 3)
	assert.Equal(t, domain.SourceForwarded, channels[1].Source)
	assert.Equal(t, "555", channels[1].PlatformID)
	assert.Equal(t, "Origin", channels[1].Name)
	assert.Equal(t, domain.SourceMentioned, channels[2].Source)

	for _, p := range f.db.AllPosts() {
		assert.Equal(t, channels[1].ID, *p.ForwardedFrom)
		assert.Equal(t, []int64{channels[2].ID, channels[2].ID}, p.Mentions)
	}
}

func TestUnknownPlatformAndCapabilityAreSkipped(t *testing.T) {
	f := newFixture(t)
	other := &domain.RawPost{Scraper: "other 1", Platform: "Other", ChannelID: f.channel.ID, Date: f.base}
	require.NoError(t, f.db.RawPosts().Create(context.Background(), other))
	foreign := &domain.RawPost{Scraper: "legacy 0.1", Platform: platform, ChannelID: f.channel.ID, Date: f.base}
	require.NoError(t, f.db.RawPosts().Create(context.Background(), foreign))

	ctrl := gomock.NewController(t)
	plugin := mock_transform.NewMockPlugin(ctrl)
	plugin.EXPECT().Platform().Return(platform).AnyTimes()
	plugin.EXPECT().Name().Return("MockTransformer").AnyTimes()
	plugin.EXPECT().CanHandle(gomock.Any()).Return(false)
	plugin.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	report, err := f.orchestrator(t, 10, plugin).RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, f.db.AllPosts())
}

type brokenPosts struct {
	*memrepo.Posts
}

func (brokenPosts) CreateBatch(context.Context, []*domain.Post) error {
	return errors.New("connection refused")
}

func TestStoreFailureStopsTheRun(t *testing.T) {
	f := newFixture(t)
	f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	stores := f.stores()
	stores.Posts = brokenPosts{f.db.Posts()}
	reg, err := transform.NewRegistry(f.plugin)
	require.NoError(t, err)
	o := transform.NewOrchestrator(reg, enrich.NewRegistry(), nil, stores, transform.Settings{Batch: 10}, logger.NewNop())

	_, err = o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStore(err))
}

func TestRetransformRebuildsSubset(t *testing.T) {
	f := newFixture(t)
	other := &domain.Channel{Platform: platform, ScreenName: "other", Source: domain.SourceResearcher}
	require.NoError(t, f.db.Channels().Create(context.Background(), other))
	mine := f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	theirs := f.raw(t, other.ID, 0, payload{ID: "1"})
	o := f.orchestrator(t, 10)

	_, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)
	before := postFor(t, f.db, mine.ID).ID
	untouched := postFor(t, f.db, theirs.ID).ID

	report, err := o.Retransform(context.Background(), domain.ChannelFilter{IDs: []int64{f.channel.ID}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.NotEqual(t, before, postFor(t, f.db, mine.ID).ID)
	assert.Equal(t, untouched, postFor(t, f.db, theirs.ID).ID)
	assert.Equal(t, 2, f.plugin.visits[mine.ID])
	assert.Equal(t, 1, f.plugin.visits[theirs.ID])

	_, err = o.Retransform(context.Background(), domain.ChannelFilter{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestRunUntransformedMedia(t *testing.T) {
	f := newFixture(t)
	raw := f.raw(t, f.channel.ID, 0, payload{ID: "1"})
	archived := "https://archive.example/fake/abc.jpg"
	tooLarge := domain.ArchiveTooLarge
	at := f.base
	require.NoError(t, f.db.RawPosts().UpdateArchive(context.Background(), raw.ID, domain.ArchiveMap{
		"https://cdn.example/a.jpg": &archived,
		"https://cdn.example/b.mp4": &tooLarge,
	}, &at))
	o := f.orchestrator(t, 10)
	_, err := o.RunUntransformed(context.Background(), domain.ChannelFilter{})
	require.NoError(t, err)

	report, err := o.RunUntransformedMedia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	rows := f.db.AllMedia()
	require.Len(t, rows, 1)
	assert.Equal(t, domain.MediaImage, rows[0].Kind)
	assert.Equal(t, archived, rows[0].URL)
	assert.Equal(t, postFor(t, f.db, raw.ID).ID, rows[0].PostID)

	report, err = o.RunUntransformedMedia(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Succeeded)
	assert.Len(t, f.db.AllMedia(), 1)
}

func TestRunUntransformedInfoBackfillsPlatformID(t *testing.T) {
	f := newFixture(t)
	info := &domain.RawChannelInfo{Scraper: "fake-web 1.0", Platform: platform, ChannelID: f.channel.ID, RawData: `{"id":"9001","followers":12}`}
	require.NoError(t, f.db.RawChannelInfos().Create(context.Background(), info))
	o := f.orchestrator(t, 10)

	report, err := o.RunUntransformedInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	infos := f.db.AllChannelInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(12), infos[0].Followers)

	channels := f.db.AllChannels()
	require.Len(t, channels, 1)
	assert.Equal(t, "9001", channels[0].PlatformID)
	assert.Equal(t, domain.SourceResearcher, channels[0].Source)

	report, err = o.RunUntransformedInfo(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Succeeded)
}

func TestWriterKeepsStoredChannelWhenKeysCollide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	byName := &domain.Channel{Platform: platform, ScreenName: "foo", Source: domain.SourceForwarded}
	byID := &domain.Channel{Platform: platform, PlatformID: "555", Source: domain.SourceForwarded}
	require.NoError(t, f.db.Channels().Create(ctx, byName))
	require.NoError(t, f.db.Channels().Create(ctx, byID))

	w := transform.NewWriter(f.db.Channels(), f.db.Posts(), f.db.Media(), f.db.ChannelInfos(), 10, logger.NewNop())
	got, err := w.Channel(ctx, &domain.Channel{Platform: platform, ScreenName: "foo", PlatformID: "555", Source: domain.SourceForwarded})
	require.NoError(t, err)

	assert.Equal(t, byName.ID, got.ID)
	assert.Empty(t, got.PlatformID)
	assert.Len(t, f.db.AllChannels(), 3)
}

func TestRunUntransformedContinuesPastCollidingChannelKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	byName := &domain.Channel{Platform: platform, ScreenName: "foo", Source: domain.SourceForwarded}
	require.NoError(t, f.db.Channels().Create(ctx, byName))
	require.NoError(t, f.db.Channels().Create(ctx, &domain.Channel{Platform: platform, PlatformID: "555", Source: domain.SourceForwarded}))

	forwarded := f.raw(t, f.channel.ID, 0, payload{ID: "1", FwdID: "555", FwdUser: "foo"})
	plain := f.raw(t, f.channel.ID, time.Minute, payload{ID: "2", Text: "later"})

	report, err := f.orchestrator(t, 10).RunUntransformed(ctx, domain.ChannelFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)

	p := postFor(t, f.db, forwarded.ID)
	require.NotNil(t, p.ForwardedFrom)
	assert.Equal(t, byName.ID, *p.ForwardedFrom)
	postFor(t, f.db, plain.ID)
}
