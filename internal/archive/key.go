package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"path"
	"strings"
)

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"audio/mpeg":      ".mp3",
	"audio/ogg":       ".ogg",
	"audio/mp4":       ".m4a",
}

// Namespace turns a scraper identity such as "telegram-web/1.2" into a key prefix.
func Namespace(scraper string) string {
	r := strings.NewReplacer("/", "_", " ", "_", "\\", "_")
	return r.Replace(strings.TrimSpace(scraper))
}

// Key derives the object key of an asset from its source URL and content type. The same
// (namespace, url, contentType) always yields the same key, so re-uploads overwrite in place.
func Key(namespace, sourceURL, contentType string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	name := hex.EncodeToString(sum[:]) + extension(sourceURL, contentType)
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

func extension(sourceURL, contentType string) string {
	ct, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		if ext, ok := extensions[ct]; ok {
			return ext
		}
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			return exts[0]
		}
	}

	u := sourceURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if ext := strings.ToLower(path.Ext(u)); len(ext) > 1 && len(ext) <= 5 {
		return ext
	}
	return ""
}
