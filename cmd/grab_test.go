package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidgrab/internal/media"
)

func TestIsLocalAddress(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(existing, []byte("<html></html>"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		address string
		want    bool
	}{
		{"file:///home/user/page.html", true},
		{existing, true},
		{"https://example.com/page", false},
		{"http://example.com/page", false},
		{"example.com/page", false},
		{filepath.Join(t.TempDir(), "missing.html"), false},
	}
	for _, tt := range tests {
		if got := isLocalAddress(tt.address); got != tt.want {
			t.Errorf("isLocalAddress(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestFindCandidate(t *testing.T) {
	candidates := []media.Candidate{
		{IdentityKey: "https://cdn.example.com/a.mp4", Title: "A"},
		{IdentityKey: "youtube:abcdefghijk", Title: "B"},
	}

	if c, err := findCandidate(candidates, "2"); err != nil || c.Title != "B" {
		t.Errorf("index lookup = %+v, %v", c, err)
	}
	if c, err := findCandidate(candidates, "youtube:abcdefghijk"); err != nil || c.Title != "B" {
		t.Errorf("identity lookup = %+v, %v", c, err)
	}
	if _, err := findCandidate(candidates, "3"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("out-of-range index should fail, got %v", err)
	}
	if _, err := findCandidate(candidates, "0"); err == nil {
		t.Error("index 0 should fail, indices are 1-based")
	}
	if _, err := findCandidate(candidates, "vimeo:123"); err == nil {
		t.Error("unknown identity should fail")
	}
}
