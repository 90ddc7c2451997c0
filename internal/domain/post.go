package domain

import "time"

// ReplyPending is stored in Post.ReplyTo when the reply target was not ingested yet.
// It is never back-filled once the target appears.
const ReplyPending int64 = -1

// Post is the normalized form of exactly one RawPost.
type Post struct {
	ID             int64
	RawID          int64
	PlatformID     string
	Scraper        string
	Transformer    string
	Platform       string
	ChannelID      int64
	Date           time.Time
	CapturedAt     time.Time
	TransformedAt  time.Time
	URL            string
	Content        string
	AuthorID       string
	AuthorUsername string

	ForwardedFrom *int64
	ReplyTo       *int64
	Mentions      []int64

	Likes    *int64
	Forwards *int64
	Views    *int64
	Replies  *int64

	Hashtags        []string
	Outlinks        []string
	CryptoAddresses []string
	NamedEntities   []string
	Language        string
}

// ChannelInfo is the normalized form of exactly one RawChannelInfo.
type ChannelInfo struct {
	ID                  int64
	RawChannelInfoID    int64
	ChannelID           int64
	PlatformID          string
	Platform            string
	Scraper             string
	Transformer         string
	ScreenName          string
	Name                string
	Description         string
	DescriptionURL      string
	DescriptionLocation string
	Followers           int64
	Following           int64
	Verified            bool
	DateCreated         *time.Time
	CapturedAt          time.Time
	TransformedAt       time.Time
}
