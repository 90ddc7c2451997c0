package domain

import (
	"path"
	"strings"
	"time"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Media is one archived asset attached to a Post. Metadata and Text are attached
// later by the hydrate pass.
type Media struct {
	ID            int64
	PostID        int64
	RawID         int64
	Kind          MediaKind
	URL           string
	OriginalURL   string
	Date          time.Time
	TransformedAt time.Time

	Metadata   map[string]any
	Text       string
	HydratedAt *time.Time
}

var mediaExtensions = map[string]MediaKind{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage, ".gif": MediaImage, ".webp": MediaImage,
	".mp4": MediaVideo, ".mov": MediaVideo, ".webm": MediaVideo, ".mkv": MediaVideo, ".m3u8": MediaVideo,
	".mp3": MediaAudio, ".ogg": MediaAudio, ".oga": MediaAudio, ".m4a": MediaAudio, ".wav": MediaAudio,
}

// KindOf guesses the media variant from a content type, falling back to the URL extension.
// It returns "" when neither is conclusive.
func KindOf(contentType, url string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	case strings.HasPrefix(contentType, "audio/"):
		return MediaAudio
	}
	u := url
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return mediaExtensions[strings.ToLower(path.Ext(u))]
}
