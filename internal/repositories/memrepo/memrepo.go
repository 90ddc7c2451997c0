// Package memrepo holds in-memory repositories with the same semantics as the postgres ones.
// It backs orchestrator tests.
package memrepo

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/channelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/media"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawchannelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
)

type DB struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	channels    map[int64]*domain.Channel
	raws        map[int64]*domain.RawPost
	rawInfos    map[int64]*domain.RawChannelInfo
	posts       map[int64]*domain.Post
	infos       map[int64]*domain.ChannelInfo
	media       map[int64]*domain.Media
	postBatches int
}

func New() *DB {
	return &DB{
		now:      time.Now,
		channels: map[int64]*domain.Channel{},
		raws:     map[int64]*domain.RawPost{},
		rawInfos: map[int64]*domain.RawChannelInfo{},
		posts:    map[int64]*domain.Post{domain.ReplyPending: {ID: domain.ReplyPending}},
		infos:    map[int64]*domain.ChannelInfo{},
		media:    map[int64]*domain.Media{},
	}
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *DB) Channels() *Channels               { return &Channels{db} }
func (db *DB) RawPosts() *RawPosts               { return &RawPosts{db} }
func (db *DB) RawChannelInfos() *RawChannelInfos { return &RawChannelInfos{db} }
func (db *DB) Posts() *Posts                     { return &Posts{db} }
func (db *DB) ChannelInfos() *ChannelInfos       { return &ChannelInfos{db} }
func (db *DB) Media() *Media                     { return &Media{db} }

// PostBatches returns how many post batch inserts were executed.
func (db *DB) PostBatches() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.postBatches
}

// AllChannels returns copies of every channel ordered by id.
func (db *DB) AllChannels() []domain.Channel {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.Channel, 0, len(db.channels))
	for _, c := range db.channels {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllPosts returns copies of every post except the reply sentinel ordered by id.
func (db *DB) AllPosts() []domain.Post {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.Post, 0, len(db.posts))
	for id, p := range db.posts {
		if id == domain.ReplyPending {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllRawPosts returns copies of every raw post ordered by id.
func (db *DB) AllRawPosts() []domain.RawPost {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.RawPost, 0, len(db.raws))
	for _, r := range db.raws {
		cp := *r
		cp.ArchivedURLs = r.ArchivedURLs.Clone()
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllMedia returns copies of every media row ordered by id.
func (db *DB) AllMedia() []domain.Media {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.Media, 0, len(db.media))
	for _, m := range db.media {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllChannelInfos returns copies of every channel info row ordered by id.
func (db *DB) AllChannelInfos() []domain.ChannelInfo {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.ChannelInfo, 0, len(db.infos))
	for _, i := range db.infos {
		out = append(out, *i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Channels struct{ db *DB }

var _ channel.Repository = (*Channels)(nil)

func (r *Channels) conflicts(c *domain.Channel) bool {
	for _, existing := range r.db.channels {
		if existing.ID != c.ID && existing.SameAs(c) {
			return true
		}
	}
	return false
}

func (r *Channels) Create(_ context.Context, c *domain.Channel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.conflicts(c) {
		return channel.ErrAlreadyExists
	}
	c.ID = r.db.id()
	c.CreatedAt = r.db.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.db.channels[c.ID] = &cp
	return nil
}

func (r *Channels) GetByID(_ context.Context, id int64) (*domain.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.channels[id]
	if !ok {
		return nil, channel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Channels) FindByIdentity(_ context.Context, c *domain.Channel) (*domain.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var found *domain.Channel
	for _, existing := range r.db.channels {
		if existing.SameAs(c) || c.SameAs(existing) {
			if found == nil || existing.ID < found.ID {
				found = existing
			}
		}
	}
	if found == nil {
		return nil, channel.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *Channels) Update(_ context.Context, c *domain.Channel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.channels[c.ID]
	if !ok {
		return channel.ErrNotFound
	}
	if r.conflicts(c) {
		return channel.ErrAlreadyExists
	}
	cp := *c
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = r.db.now()
	r.db.channels[c.ID] = &cp
	return nil
}

func (r *Channels) List(_ context.Context, filter domain.ChannelFilter) ([]*domain.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Channel
	for _, c := range r.db.channels {
		if len(filter.IDs) > 0 && !contains(filter.IDs, c.ID) {
			continue
		}
		if filter.Platform != "" && c.Platform != filter.Platform {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if !filter.IncludeUnavailable && c.UnavailableAt != nil {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Channels) MarkUnavailable(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c, ok := r.db.channels[id]; ok {
		c.UnavailableAt = &at
		c.UpdatedAt = at
	}
	return nil
}

type RawPosts struct{ db *DB }

var _ rawpost.Repository = (*RawPosts)(nil)

func copyRaw(r *domain.RawPost) *domain.RawPost {
	cp := *r
	cp.ArchivedURLs = r.ArchivedURLs.Clone()
	if r.ArchivedAt != nil {
		at := *r.ArchivedAt
		cp.ArchivedAt = &at
	}
	return &cp
}

func (r *RawPosts) Create(_ context.Context, raw *domain.RawPost) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	raw.ID = r.db.id()
	raw.CapturedAt = r.db.now()
	if raw.ArchivedURLs == nil {
		raw.ArchivedURLs = domain.ArchiveMap{}
	}
	r.db.raws[raw.ID] = copyRaw(raw)
	return nil
}

func (r *RawPosts) GetByID(_ context.Context, id int64) (*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	raw, ok := r.db.raws[id]
	if !ok {
		return nil, rawpost.ErrNotFound
	}
	return copyRaw(raw), nil
}

func (r *RawPosts) sorted(keep func(*domain.RawPost) bool, desc bool) []*domain.RawPost {
	var out []*domain.RawPost
	for _, raw := range r.db.raws {
		if keep(raw) {
			out = append(out, copyRaw(raw))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	return out
}

func limit[T any](s []T, n uint64) []T {
	if n > 0 && uint64(len(s)) > n {
		return s[:n]
	}
	return s
}

func (r *RawPosts) Newest(_ context.Context, channelID int64) (*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.sorted(func(raw *domain.RawPost) bool { return raw.ChannelID == channelID }, true)
	if len(out) == 0 {
		return nil, rawpost.ErrNotFound
	}
	return out[0], nil
}

func (r *RawPosts) Oldest(_ context.Context, channelID int64) (*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.sorted(func(raw *domain.RawPost) bool { return raw.ChannelID == channelID }, false)
	if len(out) == 0 {
		return nil, rawpost.ErrNotFound
	}
	return out[0], nil
}

func (r *RawPosts) ListUnarchived(_ context.Context, q rawpost.UnarchivedQuery) ([]*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.sorted(func(raw *domain.RawPost) bool {
		return raw.ArchivedAt == nil && !contains(q.ExcludeIDs, raw.ID)
	}, false)
	if !q.Chronological {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return limit(out, q.Limit), nil
}

func (r *RawPosts) UpdateArchive(_ context.Context, id int64, urls domain.ArchiveMap, archivedAt *time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	raw, ok := r.db.raws[id]
	if !ok {
		return nil
	}
	raw.ArchivedURLs = urls.Clone()
	raw.ArchivedAt = archivedAt
	return nil
}

func (r *RawPosts) ReopenTooLarge(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, raw := range r.db.raws {
		tooLarge := raw.ArchivedURLs.TooLarge()
		if len(tooLarge) == 0 {
			continue
		}
		for _, url := range tooLarge {
			raw.ArchivedURLs[url] = nil
		}
		raw.ArchivedAt = nil
		n++
	}
	return n, nil
}

func (r *RawPosts) transformed(rawID int64) bool {
	for _, p := range r.db.posts {
		if p.RawID == rawID && p.ID != domain.ReplyPending {
			return true
		}
	}
	return false
}

func (r *RawPosts) ListUntransformed(_ context.Context, q rawpost.UntransformedQuery) ([]*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.sorted(func(raw *domain.RawPost) bool {
		if r.transformed(raw.ID) || !q.After.Admits(raw.Date, raw.ID) {
			return false
		}
		if len(q.Filter.IDs) > 0 && !contains(q.Filter.IDs, raw.ChannelID) {
			return false
		}
		if q.Filter.Category != "" {
			c, ok := r.db.channels[raw.ChannelID]
			if !ok || c.Category != q.Filter.Category {
				return false
			}
		}
		return q.Filter.Platform == "" || raw.Platform == q.Filter.Platform
	}, q.After.Desc)
	return limit(out, q.Limit), nil
}

func (r *RawPosts) ListWithoutMedia(_ context.Context, after repositories.Watermark, n uint64) ([]*domain.RawPost, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	after.Desc = true
	out := r.sorted(func(raw *domain.RawPost) bool {
		if raw.ArchivedAt == nil || len(raw.ArchivedURLs) == 0 || !r.transformed(raw.ID) {
			return false
		}
		for _, m := range r.db.media {
			if m.RawID == raw.ID {
				return false
			}
		}
		return after.Admits(raw.Date, raw.ID)
	}, true)
	return limit(out, n), nil
}

type RawChannelInfos struct{ db *DB }

var _ rawchannelinfo.Repository = (*RawChannelInfos)(nil)

func (r *RawChannelInfos) Create(_ context.Context, info *domain.RawChannelInfo) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	info.ID = r.db.id()
	info.CapturedAt = r.db.now()
	cp := *info
	r.db.rawInfos[info.ID] = &cp
	return nil
}

func (r *RawChannelInfos) ListUntransformed(_ context.Context, after repositories.Watermark, n uint64) ([]*domain.RawChannelInfo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.RawChannelInfo
	for _, info := range r.db.rawInfos {
		done := false
		for _, ci := range r.db.infos {
			if ci.RawChannelInfoID == info.ID {
				done = true
				break
			}
		}
		if !done && after.Admits(info.CapturedAt, info.ID) {
			cp := *info
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.Before(out[j].CapturedAt)
		}
		return out[i].ID < out[j].ID
	})
	return limit(out, n), nil
}

type Posts struct{ db *DB }

var _ post.Repository = (*Posts)(nil)

func (r *Posts) CreateBatch(_ context.Context, posts []*domain.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if len(posts) == 0 {
		return nil
	}
	r.db.postBatches++
	for _, p := range posts {
		exists := false
		for _, existing := range r.db.posts {
			if existing.ID != domain.ReplyPending && existing.RawID == p.RawID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		p.ID = r.db.id()
		cp := *p
		r.db.posts[p.ID] = &cp
	}
	return nil
}

func (r *Posts) GetByRawID(_ context.Context, rawID int64) (*domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, p := range r.db.posts {
		if id != domain.ReplyPending && p.RawID == rawID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, post.ErrNotFound
}

func (r *Posts) FindByPlatformID(_ context.Context, channelID int64, platformID string) (*domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var found *domain.Post
	for id, p := range r.db.posts {
		if id == domain.ReplyPending || p.ChannelID != channelID || p.PlatformID != platformID {
			continue
		}
		if found == nil || p.ID < found.ID {
			found = p
		}
	}
	if found == nil {
		return nil, post.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *Posts) DeleteForChannels(_ context.Context, filter domain.ChannelFilter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	subset := map[int64]bool{}
	for id, p := range r.db.posts {
		if id == domain.ReplyPending {
			continue
		}
		raw, ok := r.db.raws[p.RawID]
		if !ok {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, raw.ChannelID) {
			continue
		}
		if filter.Platform != "" && raw.Platform != filter.Platform {
			continue
		}
		if filter.Category != "" {
			c, ok := r.db.channels[raw.ChannelID]
			if !ok || c.Category != filter.Category {
				continue
			}
		}
		subset[id] = true
	}
	for id, m := range r.db.media {
		if subset[m.PostID] {
			delete(r.db.media, id)
		}
	}
	for _, p := range r.db.posts {
		if p.ReplyTo != nil && subset[*p.ReplyTo] {
			pending := domain.ReplyPending
			p.ReplyTo = &pending
		}
	}
	for id := range subset {
		delete(r.db.posts, id)
	}
	return int64(len(subset)), nil
}

type ChannelInfos struct{ db *DB }

var _ channelinfo.Repository = (*ChannelInfos)(nil)

func (r *ChannelInfos) Create(_ context.Context, info *domain.ChannelInfo) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.infos {
		if existing.RawChannelInfoID == info.RawChannelInfoID {
			return channelinfo.ErrAlreadyExists
		}
	}
	info.ID = r.db.id()
	cp := *info
	r.db.infos[info.ID] = &cp
	return nil
}

type Media struct{ db *DB }

var _ media.Repository = (*Media)(nil)

func (r *Media) Create(_ context.Context, m *domain.Media) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.media {
		if existing.RawID == m.RawID && existing.OriginalURL == m.OriginalURL {
			return media.ErrAlreadyExists
		}
	}
	m.ID = r.db.id()
	cp := *m
	r.db.media[m.ID] = &cp
	return nil
}

func (r *Media) ListByPost(_ context.Context, postID int64) ([]*domain.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Media
	for _, m := range r.db.media {
		if m.PostID == postID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Media) ListUnhydrated(_ context.Context, afterID int64, n uint64) ([]*domain.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Media
	for _, m := range r.db.media {
		if m.HydratedAt == nil && m.ID > afterID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limit(out, n), nil
}

func (r *Media) Hydrate(_ context.Context, id int64, metadata map[string]any, text string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.media[id]
	if !ok {
		return media.ErrNotFound
	}
	m.Metadata = metadata
	m.Text = text
	m.HydratedAt = &at
	return nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
