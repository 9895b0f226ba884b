package scan

import (
	"strings"
	"testing"
)

func TestLooksLikeMediaAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"https://cdn.example.com/clip.mp4", true},
		{"https://cdn.example.com/clip.MP4?token=1", true},
		{"https://cdn.example.com/stream.m3u8", true},
		{"https://cdn.example.com/manifest.mpd", true},
		{"https://example.com/api/media/42", true},
		{"https://example.com/video/watch", true},
		{"https://example.com/styles/app.css", false},
		{"https://example.com/photo.jpg", false},
		{"blob:https://example.com/abc", false},
		{"data:video/mp4;base64,AAAA", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeMediaAddress(tt.addr); got != tt.want {
			t.Errorf("looksLikeMediaAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestSnapshotIsLocal(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"file:///home/user/page.html", true},
		{"page.html", true},
		{"/srv/www/page.html", true},
		{"https://example.com/page", false},
		{"http://example.com/page", false},
	}
	for _, tt := range tests {
		s := &Snapshot{URL: tt.url}
		if got := s.IsLocal(); got != tt.want {
			t.Errorf("IsLocal(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestResolveAddress(t *testing.T) {
	s := &Snapshot{URL: "https://example.com/articles/post"}
	tests := []struct {
		in   string
		want string
	}{
		{"/media/clip.mp4", "https://example.com/media/clip.mp4"},
		{"clip.mp4", "https://example.com/articles/clip.mp4"},
		{"https://cdn.example.com/clip.mp4", "https://cdn.example.com/clip.mp4"},
		{"//cdn.example.com/clip.mp4", "https://cdn.example.com/clip.mp4"},
		{"blob:https://example.com/abc", "blob:https://example.com/abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := s.resolveAddress(tt.in); got != tt.want {
			t.Errorf("resolveAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := truncateTitle("  short  "); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncateTitle(long)
	if len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("long title not truncated: %q", got)
	}
}
