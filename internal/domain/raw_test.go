package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveMap(t *testing.T) {
	m := ArchiveMap{}
	m.Add("https://cdn/b.jpg")
	m.Add("https://cdn/a.mp4")
	assert.False(t, m.Complete())
	assert.Equal(t, []string{"https://cdn/a.mp4", "https://cdn/b.jpg"}, m.Unresolved())

	m.Resolve("https://cdn/a.mp4", ArchiveTooLarge)
	m.Resolve("https://cdn/b.jpg", "https://archive/b.jpg")
	m.Add("https://cdn/b.jpg")

	assert.True(t, m.Complete())
	assert.Empty(t, m.Unresolved())
	assert.Equal(t, []string{"https://cdn/a.mp4"}, m.TooLarge())
	assert.Equal(t, "https://archive/b.jpg", *m["https://cdn/b.jpg"])
}

func TestArchiveMapCloneIsDeep(t *testing.T) {
	m := ArchiveMap{}
	m.Resolve("u", "v")
	c := m.Clone()
	*c["u"] = "changed"
	assert.Equal(t, "v", *m["u"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, MediaImage, KindOf("image/jpeg", ""))
	assert.Equal(t, MediaVideo, KindOf("", "https://cdn/x/clip.MP4?token=1"))
	assert.Equal(t, MediaAudio, KindOf("application/octet-stream", "https://cdn/voice.ogg"))
	assert.Equal(t, MediaKind(""), KindOf("", "https://cdn/file"))
}

func TestReport(t *testing.T) {
	r := NewReport("sync")
	r.Add(Succeeded("channel", "1", 10))
	r.Add(Skipped("channel", "2", "no handler"))
	r.Add(Failed("channel", "3", assert.AnError))

	other := NewReport("sync")
	other.Add(Succeeded("channel", "4", 2))
	other.Rounds = 1
	r.Merge(other)
	r.Finish()

	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 12, r.Items)
	assert.Len(t, r.Failures, 1)
	assert.Contains(t, r.Summary(), "sync: 2 succeeded, 1 skipped, 1 failed, 12 items")
}
