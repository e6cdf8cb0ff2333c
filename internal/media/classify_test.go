package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Classification
	}{
		{"https://youtu.be/abc123", Classification{YouTube, Video}},
		{"https://www.youtube.com/watch?v=abc123", Classification{YouTube, Video}},
		{"https://m.youtube.com/shorts/abc123", Classification{YouTube, Video}},
		{"https://www.tiktok.com/@u/video/12345", Classification{TikTok, Video}},
		{"https://www.instagram.com/p/Cxyz/", Classification{Instagram, Social}},
		{"https://x.com/u/status/999", Classification{X, Social}},
		{"https://twitter.com/u/status/999", Classification{X, Social}},
		{"https://mobile.twitter.com/u/status/999", Classification{X, Social}},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", Classification{Spotify, Music}},
		{"https://soundcloud.com/artist/track", Classification{SoundCloud, Music}},
		{"https://dropbox.com/s/file", Classification{}},
		{"https://spotify.com/us/", Classification{}},
		{"https://blog.cloudflare.com/post", Classification{}},
		{"not a url", Classification{}},
		{"", Classification{}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Classify(tt.url)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Provider != "", got.IsMedia())
		})
	}
}

func TestProviderID(t *testing.T) {
	tests := []struct {
		url      string
		provider Provider
		want     string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", YouTube, "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ/", YouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", YouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", YouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", YouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abcDEF12345", YouTube, "abcDEF12345"},
		{"https://www.youtube.com/channel/UC123", YouTube, ""},
		{"https://www.tiktok.com/@x/video/7000000000000000000", TikTok, "7000000000000000000"},
		{"https://www.tiktok.com/@x", TikTok, ""},
		{"https://www.instagram.com/reel/C0de_12/", Instagram, "C0de_12"},
		{"https://www.instagram.com/tv/AbC", Instagram, "AbC"},
		{"https://x.com/u/status/1234567890?s=20", X, "1234567890"},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=xyz", Spotify, "4uLU6hMCjMI75M1A2tKUQC"},
		{"https://open.spotify.com/", Spotify, ""},
		{"https://soundcloud.com/artist/track/?in=x", SoundCloud, "https://soundcloud.com/artist/track"},
		{"::bad", YouTube, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderID(tt.url, tt.provider))
		})
	}
}

func TestSoundCloudIDFitsColumn(t *testing.T) {
	long := "https://soundcloud.com/artist/" + strings.Repeat("very-long-track-name-", 40)
	id := ProviderID(long+"?in=playlist", SoundCloud)
	assert.LessOrEqual(t, len(id), MaxProviderIDLen)
	assert.True(t, strings.HasPrefix(id, "sha256:"))
	assert.Equal(t, id, ProviderID(long+"/", SoundCloud))
	assert.NotEqual(t, id, ProviderID(long+"x", SoundCloud))

	edge := "https://soundcloud.com/" + strings.Repeat("a", MaxProviderIDLen-len("https://soundcloud.com/"))
	assert.Equal(t, edge, ProviderID(edge, SoundCloud))
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", CanonicalURL("https://youtu.be/abc?t=3", YouTube, "abc"))
	assert.Equal(t, "https://youtu.be/", CanonicalURL("https://youtu.be/", YouTube, ""))
	assert.Equal(t, "https://x.com/u/status/1", CanonicalURL("https://x.com/u/status/1", X, "1"))
}
