package telegram

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/orgball2608/channel-archiver/pkg/errors"
)

var backgroundURL = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)

// previewPage is one page of the public web preview, newest message first.
type previewPage struct {
	Messages []*Message
}

// parsePreview reads the messages of a t.me/s/<name> page.
func parsePreview(r io.Reader) (*previewPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeParse, "failed to parse preview page")
	}

	page := &previewPage{}
	var parseErr error
	doc.Find(".tgme_widget_message[data-post]").Each(func(_ int, s *goquery.Selection) {
		if parseErr != nil {
			return
		}
		m, err := parseMessage(s)
		if err != nil {
			parseErr = err
			return
		}
		if m != nil {
			page.Messages = append(page.Messages, m)
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}

	sort.SliceStable(page.Messages, func(i, j int) bool { return page.Messages[i].ID > page.Messages[j].ID })
	return page, nil
}

func parseMessage(s *goquery.Selection) (*Message, error) {
	post, _ := s.Attr("data-post")
	i := strings.LastIndex(post, "/")
	if i < 0 {
		return nil, nil
	}
	id, err := strconv.ParseInt(post[i+1:], 10, 64)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeParse, fmt.Sprintf("bad message id %q", post))
	}

	m := &Message{Type: TypeMessage, ID: id, Entities: []Entity{}}

	if datetime, ok := s.Find(".tgme_widget_message_date time").Attr("datetime"); ok {
		m.Date, err = time.Parse(time.RFC3339, datetime)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeParse, fmt.Sprintf("bad date on message %d", id))
		}
		m.Date = m.Date.UTC()
	}

	text := s.Find(".tgme_widget_message_text").FilterFunction(func(_ int, t *goquery.Selection) bool {
		return t.ParentsFiltered(".tgme_widget_message_reply").Length() == 0
	}).First()
	if text.Length() > 0 {
		b := &textBuilder{}
		b.walk(text)
		m.Message = b.sb.String()
		m.Entities = b.entities
	}

	if fwd := s.Find(".tgme_widget_message_forwarded_from_name").First(); fwd.Length() > 0 {
		m.FwdFrom = &FwdHeader{FromName: strings.TrimSpace(fwd.Text())}
		if href, ok := fwd.Attr("href"); ok {
			m.FwdFrom.FromUsername = usernameFromLink(href)
		}
	}

	if href, ok := s.Find("a.tgme_widget_message_reply").Attr("href"); ok {
		if replyID, err := strconv.ParseInt(linkSegment(href, 1), 10, 64); err == nil {
			m.ReplyTo = &ReplyHeader{ReplyToMsgID: replyID}
		}
	}

	if views := s.Find(".tgme_widget_message_views").First(); views.Length() > 0 {
		if n, ok := parseCount(views.Text()); ok {
			m.Views = &n
		}
	}

	s.Find(".tgme_widget_message_photo_wrap").Each(func(_ int, p *goquery.Selection) {
		style, _ := p.Attr("style")
		if match := backgroundURL.FindStringSubmatch(style); match != nil {
			m.Media = append(m.Media, match[1])
		}
	})
	s.Find("video.tgme_widget_message_video[src], audio[src]").Each(func(_ int, v *goquery.Selection) {
		src, _ := v.Attr("src")
		m.Media = append(m.Media, src)
	})

	return m, nil
}

// textBuilder flattens message HTML to text and records link entities in UTF-16 units.
type textBuilder struct {
	sb       strings.Builder
	units    int
	entities []Entity
}

func (b *textBuilder) write(s string) {
	b.sb.WriteString(s)
	b.units += utf16Len(s)
}

func (b *textBuilder) walk(s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.write(c.Text())
		case "br":
			b.write("\n")
		case "a":
			text := c.Text()
			href, _ := c.Attr("href")
			offset := b.units
			b.write(text)
			e := Entity{Offset: offset, Length: utf16Len(text)}
			switch {
			case strings.HasPrefix(text, "@"):
				e.Type = EntityMention
			case strings.HasPrefix(text, "#") || href == "":
				return
			case href == text:
				e.Type = EntityURL
			default:
				e.Type = EntityTextURL
				e.URL = href
			}
			b.entities = append(b.entities, e)
		default:
			b.walk(c)
		}
	})
}

// linkSegment returns the n-th segment of a link's path.
func linkSegment(link string, n int) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if parts[0] == "s" {
		parts = parts[1:]
	}
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}

func usernameFromLink(link string) string {
	return linkSegment(link, 0)
}

// parseCount reads counters such as "950", "1.2K" or "3M".
func parseCount(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult, s = 1e3, s[:len(s)-1]
	case 'M', 'm':
		mult, s = 1e6, s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f*mult + 0.5), true
}

// parseProfile reads the channel header of a preview page.
func parseProfile(r io.Reader) (*Profile, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, false, errors.WrapWithCode(err, errors.CodeParse, "failed to parse preview page")
	}
	info := doc.Find(".tgme_channel_info").First()
	if info.Length() == 0 {
		return nil, false, nil
	}

	chat := Chat{
		Title:    strings.TrimSpace(info.Find(".tgme_channel_info_header_title").Text()),
		Username: strings.TrimPrefix(strings.TrimSpace(info.Find(".tgme_channel_info_header_username").Text()), "@"),
	}
	p := &Profile{
		FullChat: FullChat{About: strings.TrimSpace(info.Find(".tgme_channel_info_description").Text())},
		Chats:    []Chat{chat},
	}
	info.Find(".tgme_channel_info_counter").Each(func(_ int, c *goquery.Selection) {
		kind := strings.TrimSpace(c.Find(".counter_type").Text())
		if kind != "subscribers" && kind != "members" {
			return
		}
		if n, ok := parseCount(c.Find(".counter_value").Text()); ok {
			p.FullChat.ParticipantsCount = n
		}
	})
	return p, true, nil
}
