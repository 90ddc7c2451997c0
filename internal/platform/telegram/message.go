package telegram

import (
	"sort"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	Platform = "Telegram"

	TypeMessage = "Message"

	EntityMention = "MessageEntityMention"
	EntityTextURL = "MessageEntityTextUrl"
	EntityURL     = "MessageEntityUrl"
)

// Message is the stored raw payload of one post. The layout follows the MTProto message
// object so captures from an API client and from the web preview share one transformer.
type Message struct {
	Type     string       `json:"_"`
	ID       int64        `json:"id"`
	Date     time.Time    `json:"date"`
	Message  string       `json:"message"`
	Entities []Entity     `json:"entities"`
	FwdFrom  *FwdHeader   `json:"fwd_from"`
	ReplyTo  *ReplyHeader `json:"reply_to"`
	PeerID   *Peer        `json:"peer_id,omitempty"`
	Views    *int64       `json:"views,omitempty"`
	Forwards *int64       `json:"forwards,omitempty"`
	Media    []string     `json:"media,omitempty"`
}

// Entity offsets and lengths count UTF-16 code units of Message.
type Entity struct {
	Type   string `json:"_"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
}

type FwdHeader struct {
	FromID       *Peer  `json:"from_id"`
	FromName     string `json:"from_name,omitempty"`
	FromUsername string `json:"from_username,omitempty"`
}

type Peer struct {
	ChannelID int64 `json:"channel_id,omitempty"`
	UserID    int64 `json:"user_id,omitempty"`
}

type ReplyHeader struct {
	ReplyToMsgID int64 `json:"reply_to_msg_id"`
}

// Profile is the stored raw payload of one channel snapshot. Chats after the first are
// linked discussion groups or channels.
type Profile struct {
	FullChat FullChat `json:"full_chat"`
	Chats    []Chat   `json:"chats"`
}

type FullChat struct {
	ID                int64  `json:"id"`
	About             string `json:"about"`
	ParticipantsCount int64  `json:"participants_count"`
}

type Chat struct {
	ID       int64      `json:"id"`
	Username string     `json:"username,omitempty"`
	Title    string     `json:"title"`
	Date     *time.Time `json:"date,omitempty"`
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// slice returns the entity's text. Out of range entities yield "".
func (e Entity) slice(units []uint16) string {
	end := e.Offset + e.Length
	if e.Offset < 0 || e.Length < 0 || end > len(units) {
		return ""
	}
	return string(utf16.Decode(units[e.Offset:end]))
}

// MarkdownContent renders the message with text links inlined as [text](url).
func (m *Message) MarkdownContent() string {
	units := utf16.Encode([]rune(m.Message))
	links := make([]Entity, 0, len(m.Entities))
	for _, e := range m.Entities {
		if e.Type == EntityTextURL {
			links = append(links, e)
		}
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Offset < links[j].Offset })

	var out strings.Builder
	cursor := 0
	for _, e := range links {
		if e.Type != EntityTextURL || e.Offset < cursor || e.Offset+e.Length > len(units) {
			continue
		}
		out.WriteString(string(utf16.Decode(units[cursor:e.Offset])))
		text := e.slice(units)
		cursor = e.Offset + e.Length
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			out.WriteString(text)
			continue
		}
		// whitespace around the link text stays outside the brackets
		lead := text[:strings.Index(text, trimmed)]
		trail := text[len(lead)+len(trimmed):]
		out.WriteString(lead + "[" + trimmed + "](" + e.URL + ")" + trail)
	}
	out.WriteString(string(utf16.Decode(units[cursor:])))
	return out.String()
}

// Mentions returns the screen-names of the mention entities without the leading @.
func (m *Message) Mentions() []string {
	units := utf16.Encode([]rune(m.Message))
	var out []string
	for _, e := range m.Entities {
		if e.Type != EntityMention {
			continue
		}
		if name := strings.TrimSpace(strings.TrimLeft(e.slice(units), "@")); name != "" {
			out = append(out, name)
		}
	}
	return out
}
