package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, http.DefaultClient, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating manager: %v", err)
	}
	return m, dir
}

func TestSubmitWritesFileAndTracksStatus(t *testing.T) {
	payload := bytes.Repeat([]byte("m"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	m, dir := newTestManager(t)
	var statuses []Status
	m.OnChange(func(it Item) { statuses = append(statuses, it.Status) })

	if err := m.Submit(context.Background(), srv.URL+"/clip.mp4", "clip.mp4"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("saved %d bytes, want %d", len(data), len(payload))
	}

	want := []Status{StatusInProgress, StatusComplete}
	if len(statuses) != 2 || statuses[0] != want[0] || statuses[1] != want[1] {
		t.Errorf("status transitions = %v, want %v", statuses, want)
	}
}

func TestSubmitBadStatusInterrupts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	m, dir := newTestManager(t)
	err := m.Submit(context.Background(), srv.URL+"/clip.mp4", "clip.mp4")
	if err == nil {
		t.Fatal("expected an error for a 410 response")
	}

	items := m.Items()
	if len(items) != 1 || items[0].Status != StatusInterrupted {
		t.Errorf("expected one interrupted item, got %+v", items)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "clip.mp4")); !os.IsNotExist(statErr) {
		t.Error("no file should remain after an interrupted save")
	}
}

func TestSaveBytesCollisionGetsTimestampedName(t *testing.T) {
	m, dir := newTestManager(t)
	ctx := context.Background()

	if err := m.SaveBytes(ctx, []byte("first"), "video_x.mp4"); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := m.SaveBytes(ctx, []byte("second"), "video_x.mp4"); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files, got %d", len(entries))
	}
	var stamped string
	for _, e := range entries {
		if e.Name() != "video_x.mp4" {
			stamped = e.Name()
		}
	}
	if !strings.HasPrefix(stamped, "video_x_") || !strings.HasSuffix(stamped, ".mp4") {
		t.Errorf("collision name %q should keep the stem and extension", stamped)
	}
}

func TestSaveBytesRejectsTraversal(t *testing.T) {
	m, dir := newTestManager(t)
	if err := m.SaveBytes(context.Background(), []byte("x"), "../escape.mp4"); err != nil {
		t.Fatalf("sanitized save should succeed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "escape.mp4")); err == nil {
		t.Fatal("file escaped the download directory")
	}
}
