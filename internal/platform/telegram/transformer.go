package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/transform"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

const TransformerName = "telegram-transformer/0.3"

// Transformer normalizes Message and Profile payloads.
type Transformer struct {
	webURL string
	logger logger.Logger
}

var _ transform.Plugin = (*Transformer)(nil)

func NewTransformer(webURL string, log logger.Logger) *Transformer {
	return &Transformer{
		webURL: strings.TrimRight(webURL, "/"),
		logger: log.WithComponent("TelegramTransformer"),
	}
}

func (t *Transformer) Name() string     { return TransformerName }
func (t *Transformer) Platform() string { return Platform }

func (t *Transformer) CanHandle(raw *domain.RawPost) bool {
	return strings.HasPrefix(raw.Scraper, "telegram-")
}

func (t *Transformer) channelURL(screenName string) string {
	return t.webURL + "/s/" + screenName
}

func (t *Transformer) Transform(ctx context.Context, raw *domain.RawPost, ins transform.Inserter, sess transform.Session) error {
	var m Message
	if err := json.Unmarshal([]byte(raw.RawData), &m); err != nil {
		return errors.WrapWithCode(err, errors.CodeParse, "failed to decode message")
	}
	if m.Type != TypeMessage {
		return errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("cannot convert %q to post", m.Type))
	}

	p := &domain.Post{
		RawID:       raw.ID,
		PlatformID:  strconv.FormatInt(m.ID, 10),
		Scraper:     raw.Scraper,
		Transformer: TransformerName,
		Platform:    raw.Platform,
		ChannelID:   raw.ChannelID,
		Date:        m.Date,
		CapturedAt:  raw.CapturedAt,
		Content:     m.MarkdownContent(),
		Views:       m.Views,
		Forwards:    m.Forwards,
	}
	if p.Date.IsZero() {
		p.Date = raw.Date
	}
	if m.PeerID != nil && m.PeerID.ChannelID != 0 {
		p.AuthorID = strconv.FormatInt(m.PeerID.ChannelID, 10)
	}

	if fwd := m.FwdFrom; fwd != nil {
		var platformID string
		if fwd.FromID != nil && fwd.FromID.ChannelID != 0 {
			platformID = strconv.FormatInt(fwd.FromID.ChannelID, 10)
		}
		hint := &domain.Channel{Name: fwd.FromName, ScreenName: fwd.FromUsername}
		if fwd.FromUsername != "" {
			hint.URL = t.channelURL(fwd.FromUsername)
		}
		if platformID != "" || fwd.FromUsername != "" {
			id, err := sess.ForwardedChannel(ctx, raw.Platform, platformID, hint)
			if err != nil {
				return err
			}
			p.ForwardedFrom = &id
		}
	}

	if m.ReplyTo != nil {
		id, err := sess.ReplyTarget(ctx, raw.ChannelID, strconv.FormatInt(m.ReplyTo.ReplyToMsgID, 10))
		if err != nil {
			return err
		}
		p.ReplyTo = &id
	}

	for _, name := range m.Mentions() {
		id, err := sess.MentionedChannel(ctx, raw.Platform, name, t.channelURL(name))
		if err != nil {
			return err
		}
		p.Mentions = append(p.Mentions, id)
	}

	ch, err := sess.Channel(ctx, raw.ChannelID)
	if err != nil && errors.IsStore(err) {
		return err
	}
	if ch != nil && ch.URL != "" {
		p.URL = strings.TrimRight(ch.URL, "/") + "/" + p.PlatformID
		p.AuthorUsername = ch.ScreenName
	}

	sess.Enrich(p)
	return ins.Post(ctx, p)
}

func (t *Transformer) TransformMedia(ctx context.Context, raw *domain.RawPost, post *domain.Post, ins transform.Inserter) error {
	originals := make([]string, 0, len(raw.ArchivedURLs))
	for u := range raw.ArchivedURLs {
		originals = append(originals, u)
	}
	sort.Strings(originals)

	for _, original := range originals {
		archived := raw.ArchivedURLs[original]
		if archived == nil || *archived == domain.ArchiveTooLarge {
			continue
		}
		kind := domain.KindOf("", original)
		if kind == "" {
			kind = domain.KindOf("", *archived)
		}
		if kind == "" {
			kind = domain.MediaImage
		}
		err := ins.Media(ctx, &domain.Media{
			PostID:      post.ID,
			RawID:       raw.ID,
			Kind:        kind,
			URL:         *archived,
			OriginalURL: original,
			Date:        post.Date,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Transformer) TransformProfile(ctx context.Context, raw *domain.RawChannelInfo, ins transform.Inserter, _ transform.Session, ch *domain.Channel) error {
	var p Profile
	if err := json.Unmarshal([]byte(raw.RawData), &p); err != nil {
		return errors.WrapWithCode(err, errors.CodeParse, "failed to decode profile")
	}
	if len(p.Chats) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "profile without chats")
	}
	primary := p.Chats[0]

	var platformID string
	if p.FullChat.ID != 0 {
		platformID = strconv.FormatInt(p.FullChat.ID, 10)
	}
	if ch.PlatformID == "" && platformID != "" {
		t.logger.Info("Setting missing platform id", "channel_id", ch.ID, "platform_id", platformID)
		if _, err := ins.Channel(ctx, &domain.Channel{
			Platform:   ch.Platform,
			ScreenName: ch.ScreenName,
			URL:        ch.URL,
			PlatformID: platformID,
			Source:     ch.Source,
		}); err != nil {
			return err
		}
	}

	for _, chat := range p.Chats[1:] {
		linked := &domain.Channel{
			Name:       chat.Title,
			ScreenName: chat.Username,
			Category:   ch.Category,
			Platform:   ch.Platform,
			Country:    ch.Country,
			Influencer: ch.Influencer,
			Notes:      strconv.FormatInt(ch.ID, 10),
			Source:     domain.SourceLinked,
		}
		if chat.ID != 0 {
			linked.PlatformID = strconv.FormatInt(chat.ID, 10)
		}
		if !linked.HasIdentity() {
			continue
		}
		if _, err := ins.Channel(ctx, linked); err != nil {
			return err
		}
	}

	// Written last: the snapshot row is what marks the raw profile transformed.
	info := &domain.ChannelInfo{
		RawChannelInfoID: raw.ID,
		ChannelID:        ch.ID,
		PlatformID:       platformID,
		Platform:         raw.Platform,
		Scraper:          raw.Scraper,
		Transformer:      TransformerName,
		ScreenName:       primary.Username,
		Name:             primary.Title,
		Description:      p.FullChat.About,
		Followers:        p.FullChat.ParticipantsCount,
		Following:        -1,
		DateCreated:      primary.Date,
		CapturedAt:       raw.CapturedAt,
	}
	return ins.ChannelInfo(ctx, info)
}
