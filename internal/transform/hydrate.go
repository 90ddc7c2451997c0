package transform

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/orgball2608/channel-archiver/internal/archive"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/errors"
)

// Hydrator derives metadata and text from an archived asset.
type Hydrator interface {
	Hydrate(ctx context.Context, m *domain.Media) (map[string]any, string, error)
}

// TextExtractor reads visible text out of an image, e.g. an OCR service.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// ProbeHydrator downloads the archived asset and records what the bytes tell about it.
// file:// URLs written by archive.LocalStore are read from disk.
type ProbeHydrator struct {
	fetcher archive.Fetcher
	text    TextExtractor
}

func NewProbeHydrator(fetcher archive.Fetcher, text TextExtractor) *ProbeHydrator {
	return &ProbeHydrator{fetcher: fetcher, text: text}
}

func (h *ProbeHydrator) Hydrate(ctx context.Context, m *domain.Media) (map[string]any, string, error) {
	blob, err := h.load(ctx, m.URL)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(blob.Data)
	meta := map[string]any{
		"content_type": blob.ContentType,
		"size":         len(blob.Data),
		"sha256":       hex.EncodeToString(sum[:]),
	}
	if m.Kind != domain.MediaImage {
		return meta, "", nil
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(blob.Data)); err == nil {
		meta["format"] = format
		meta["width"] = cfg.Width
		meta["height"] = cfg.Height
	}
	if h.text == nil {
		return meta, "", nil
	}
	text, err := h.text.ExtractText(ctx, blob.Data, blob.ContentType)
	if err != nil {
		return nil, "", fmt.Errorf("extract text: %w", err)
	}
	return meta, text, nil
}

func (h *ProbeHydrator) load(ctx context.Context, rawURL string) (*archive.Blob, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return h.fetcher.Fetch(ctx, rawURL)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeFetch, "failed to read archived file")
	}
	contentType := mime.TypeByExtension(filepath.Ext(u.Path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &archive.Blob{Data: data, ContentType: contentType}, nil
}

// HydrateMedia attaches metadata to every media row that has none, in id order.
func (o *Orchestrator) HydrateMedia(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport("hydrate-media")
	if o.hydrator == nil {
		return report.Finish(), nil
	}

	var after int64
	for {
		batch, err := o.stores.Media.ListUnhydrated(ctx, after, o.settings.Batch)
		if err != nil {
			return report.Finish(), storeErr(err, "failed to list unhydrated media")
		}
		if len(batch) == 0 {
			break
		}
		report.Rounds++
		for _, m := range batch {
			after = m.ID
			key := fmt.Sprintf("media %d", m.ID)
			meta, text, err := o.hydrator.Hydrate(ctx, m)
			if err != nil {
				o.logger.Warn("Failed to hydrate media", "media_id", m.ID, "url", m.URL, "error", err)
				report.Add(domain.Failed("media", key, err))
				continue
			}
			if err := o.stores.Media.Hydrate(ctx, m.ID, meta, text, o.now()); err != nil {
				return report.Finish(), storeErr(err, "failed to store media metadata")
			}
			report.Add(domain.Succeeded("media", key, 1))
		}
	}

	report.Finish()
	o.logger.Info("Hydration finished", "summary", report.Summary())
	return report, nil
}
