package httputil

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"valid HTTP", "http://example.com/path", false},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"blob handle rejected", "blob:https://example.com/abc", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "clip.mp4", "clip.mp4"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"directory components", "/home/user/secret.txt", "secret.txt"},
		{"null bytes", "clip\x00.mp4", "clip.mp4"},
		{"Windows special chars", "clip<>:\"|?*.mp4", "clip_______.mp4"},
		{"double dots", "clip..mp4", "clip_mp4"},
		{"empty string", "", "untitled"},
		{"just dots", "..", "_"}, // filepath.Base("..") = "..", replacer makes "_"
		{"just dot", ".", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSafeDownloadPath(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		filename string
		wantErr  bool
	}{
		{"normal", "/tmp/downloads", "clip.mp4", false},
		{"path traversal attempt", "/tmp/downloads", "../../etc/passwd", false}, // sanitized to "passwd"
		{"shell injection", "/tmp/downloads", "$(whoami).mp4", false},           // sanitized
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := SafeDownloadPath(tt.dir, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafeDownloadPath(%q, %q) error = %v, wantErr %v", tt.dir, tt.filename, err, tt.wantErr)
			}
			if err == nil && path == "" {
				t.Error("SafeDownloadPath returned empty path without error")
			}
		})
	}
}

func TestPathExtension(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://cdn.example.com/clip.mp4", "mp4"},
		{"https://cdn.example.com/clip.WEBM", "webm"},
		{"https://cdn.example.com/stream.m3u8?token=abc", "m3u8"},
		{"https://cdn.example.com/clip", "mp4"},
		{"https://cdn.example.com/archive.backup", "mp4"}, // over-long extension falls back
		{"", "mp4"},
	}
	for _, tt := range tests {
		if got := PathExtension(tt.url); got != tt.expected {
			t.Errorf("PathExtension(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestPathFilename(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://cdn.example.com/videos/clip.mp4", "clip.mp4"},
		{"https://cdn.example.com/videos/clip.mp4?sig=1", "clip.mp4"},
		{"https://cdn.example.com/", "video.mp4"},
		{"https://cdn.example.com", "video.mp4"},
	}
	for _, tt := range tests {
		if got := PathFilename(tt.url); got != tt.expected {
			t.Errorf("PathFilename(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
