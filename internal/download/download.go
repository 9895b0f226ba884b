// Package download writes media to disk under a managed directory,
// tracking each save through an explicit status lifecycle.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vidgrab/internal/httputil"
)

// Status is the lifecycle of one save.
type Status int

const (
	StatusInProgress Status = iota
	StatusComplete
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusComplete:
		return "complete"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Item is one tracked save.
type Item struct {
	ID       int
	Filename string
	Path     string
	Status   Status
	Written  int64
	Err      error
}

// Manager saves files into a target directory. Filenames are sanitized,
// kept inside the directory, and deduplicated with a timestamp on
// collision.
type Manager struct {
	dir      string
	client   *http.Client
	log      zerolog.Logger
	onChange func(Item)

	mu     sync.Mutex
	nextID int
	items  map[int]*Item
}

// NewManager creates the target directory if needed.
func NewManager(dir string, client *http.Client, log zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	return &Manager{
		dir:    dir,
		client: client,
		log:    log,
		items:  make(map[int]*Item),
	}, nil
}

// OnChange registers a status listener. Must be set before any save
// starts.
func (m *Manager) OnChange(fn func(Item)) { m.onChange = fn }

// Items returns a snapshot of all tracked saves.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out
}

// Submit streams a remote address to disk. It blocks until the save
// concludes; status transitions are visible through OnChange along the
// way.
func (m *Manager) Submit(ctx context.Context, address, filename string) error {
	item, path, err := m.begin(filename, address)
	if err != nil {
		return err
	}

	resp, err := httputil.Get(ctx, m.client, address)
	if err != nil {
		return m.finish(item, 0, fmt.Errorf("fetching %s: %w", address, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return m.finish(item, 0, fmt.Errorf("fetching %s: status %d", address, resp.StatusCode))
	}

	out, err := os.Create(path)
	if err != nil {
		return m.finish(item, 0, fmt.Errorf("creating %s: %w", path, err))
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(path)
		return m.finish(item, written, fmt.Errorf("writing %s: %w", path, copyErr))
	}
	if closeErr != nil {
		os.Remove(path)
		return m.finish(item, written, fmt.Errorf("closing %s: %w", path, closeErr))
	}
	return m.finish(item, written, nil)
}

// SaveBytes writes an in-memory payload to disk under the managed
// directory.
func (m *Manager) SaveBytes(_ context.Context, payload []byte, filename string) error {
	item, path, err := m.begin(filename, "")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return m.finish(item, 0, fmt.Errorf("writing %s: %w", path, err))
	}
	return m.finish(item, int64(len(payload)), nil)
}

func (m *Manager) begin(filename, address string) (*Item, string, error) {
	if filename == "" && address != "" {
		filename = httputil.PathFilename(address)
	}
	path, err := httputil.SafeDownloadPath(m.dir, filename)
	if err != nil {
		return nil, "", fmt.Errorf("resolving download path: %w", err)
	}
	path = uniquePath(path)

	m.mu.Lock()
	m.nextID++
	item := &Item{
		ID:       m.nextID,
		Filename: filepath.Base(path),
		Path:     path,
		Status:   StatusInProgress,
	}
	m.items[item.ID] = item
	m.mu.Unlock()

	m.notify(item)
	return item, path, nil
}

func (m *Manager) finish(item *Item, written int64, err error) error {
	m.mu.Lock()
	item.Written = written
	item.Err = err
	if err != nil {
		item.Status = StatusInterrupted
	} else {
		item.Status = StatusComplete
	}
	m.mu.Unlock()

	m.notify(item)
	if err != nil {
		m.log.Debug().Str("file", item.Filename).Err(err).Msg("download interrupted")
		return err
	}
	m.log.Debug().Str("file", item.Filename).Int64("bytes", written).Msg("download complete")
	return nil
}

func (m *Manager) notify(item *Item) {
	if m.onChange == nil {
		return
	}
	m.mu.Lock()
	snapshot := *item
	m.mu.Unlock()
	m.onChange(snapshot)
}

// uniquePath appends a timestamp before the extension when the target
// already exists, so concurrent pages never overwrite each other's saves.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	stamped := fmt.Sprintf("%s_%d%s", stem, time.Now().UnixMilli(), ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(stamped); os.IsNotExist(err) {
			return stamped
		}
		stamped = fmt.Sprintf("%s_%d_%d%s", stem, time.Now().UnixMilli(), i, ext)
	}
}
