package domain

import (
	"strings"
	"time"
)

// ChannelSource records how a channel came to be known.
type ChannelSource string

const (
	SourceResearcher  ChannelSource = "researcher"
	SourceSpreadsheet ChannelSource = "gsheet"
	SourceForwarded   ChannelSource = "forwarded"
	SourceMentioned   ChannelSource = "mentioned"
	SourceLinked      ChannelSource = "linked"
)

// Authoritative reports whether the source is a curated one. Curated rows are never
// downgraded by auto-discovered ones.
func (s ChannelSource) Authoritative() bool {
	return s == SourceResearcher || s == SourceSpreadsheet
}

// Channel is one monitored account on one platform.
type Channel struct {
	ID            int64
	Name          string
	PlatformID    string
	Category      string
	Platform      string
	URL           string
	ScreenName    string
	Country       string
	Influencer    string
	Public        bool
	Chat          bool
	Notes         string
	Source        ChannelSource
	UnavailableAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChannelFilter selects a subset of channels for resync or retransform.
type ChannelFilter struct {
	IDs                []int64
	Platform           string
	Category           string
	IncludeUnavailable bool
}

// NormalizeScreenName is the comparison form of a screen-name.
func NormalizeScreenName(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "@ "))
}

// HasIdentity reports whether at least one soft-unique key is populated.
func (c *Channel) HasIdentity() bool {
	return c.URL != "" || c.PlatformID != "" || NormalizeScreenName(c.ScreenName) != ""
}

// SameAs reports whether the two rows share any populated soft-unique key on the same platform.
func (c *Channel) SameAs(o *Channel) bool {
	if c.Platform != o.Platform {
		return false
	}
	if c.URL != "" && c.URL == o.URL {
		return true
	}
	if c.PlatformID != "" && c.PlatformID == o.PlatformID {
		return true
	}
	sn := NormalizeScreenName(c.ScreenName)
	return sn != "" && sn == NormalizeScreenName(o.ScreenName)
}

// Merge folds candidate into c following the promotion policy and reports whether c changed.
//
// Empty identity fields are always filled. Populated fields are only overwritten when c is an
// auto-discovered placeholder and candidate comes from a curated source, in which case c is
// promoted to the candidate's source.
func (c *Channel) Merge(candidate *Channel) bool {
	promote := !c.Source.Authoritative() && candidate.Source.Authoritative()
	changed := false

	set := func(dst *string, v string) {
		if v == "" || *dst == v {
			return
		}
		if *dst == "" || promote {
			*dst = v
			changed = true
		}
	}

	set(&c.PlatformID, candidate.PlatformID)
	set(&c.ScreenName, candidate.ScreenName)
	set(&c.URL, candidate.URL)
	set(&c.Name, candidate.Name)

	if promote {
		set(&c.Category, candidate.Category)
		set(&c.Country, candidate.Country)
		set(&c.Influencer, candidate.Influencer)
		set(&c.Notes, candidate.Notes)
		if c.Public != candidate.Public || c.Chat != candidate.Chat {
			c.Public = candidate.Public
			c.Chat = candidate.Chat
			changed = true
		}
		c.Source = candidate.Source
		changed = true
	}

	return changed
}
