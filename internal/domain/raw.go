package domain

import (
	"sort"
	"time"
)

// ArchiveTooLarge marks an asset that exceeded the size threshold. It is a resolved
// state: the sweep never retries it under the default policy.
const ArchiveTooLarge = "too_large"

// ArchiveMap maps a discovered media URL to its archived URL, or nil while unresolved.
type ArchiveMap map[string]*string

// Add registers url as discovered. An existing entry is kept.
func (m ArchiveMap) Add(url string) {
	if _, ok := m[url]; !ok {
		m[url] = nil
	}
}

func (m ArchiveMap) Resolve(url, archived string) {
	m[url] = &archived
}

// Unresolved returns the URLs still waiting for archival, sorted.
func (m ArchiveMap) Unresolved() []string {
	var out []string
	for url, archived := range m {
		if archived == nil {
			out = append(out, url)
		}
	}
	sort.Strings(out)
	return out
}

// TooLarge returns the URLs tagged with ArchiveTooLarge, sorted.
func (m ArchiveMap) TooLarge() []string {
	var out []string
	for url, archived := range m {
		if archived != nil && *archived == ArchiveTooLarge {
			out = append(out, url)
		}
	}
	sort.Strings(out)
	return out
}

func (m ArchiveMap) Complete() bool {
	for _, archived := range m {
		if archived == nil {
			return false
		}
	}
	return true
}

func (m ArchiveMap) Clone() ArchiveMap {
	out := make(ArchiveMap, len(m))
	for k, v := range m {
		if v != nil {
			s := *v
			out[k] = &s
		} else {
			out[k] = nil
		}
	}
	return out
}

// RawPost is the immutable capture of one post as returned by a source plugin.
// ArchivedURLs and ArchivedAt are the only fields updated after insertion.
type RawPost struct {
	ID           int64
	Scraper      string
	Platform     string
	ChannelID    int64
	PlatformID   string
	Date         time.Time
	RawData      string
	ArchivedURLs ArchiveMap
	ArchivedAt   *time.Time
	CapturedAt   time.Time
}

// RawChannelInfo is the immutable capture of one profile snapshot.
type RawChannelInfo struct {
	ID         int64
	Scraper    string
	Platform   string
	ChannelID  int64
	RawData    string
	CapturedAt time.Time
}
