// Package scan discovers media candidates in a document snapshot. Each
// extractor is a pure function over the snapshot; the engine runs them all,
// resolves identities, and probes sizes.
package scan

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResourceEntry is one record from the host's resource-timing log.
type ResourceEntry struct {
	Address   string
	Initiator string
}

// PlayerState describes one live instance of a recognized third-party
// player runtime, as reported by the hosting environment. Plain CLI scans
// have none; an embedding host that can introspect page globals fills
// these in.
type PlayerState struct {
	Library  string // "videojs", "plyr", "jwplayer", "flowplayer"
	Source   string
	Title    string
	Poster   string
	Duration float64
	Width    int
	Height   int
}

// Snapshot is a read-only view of one document state. Extractors never
// mutate it; given the same snapshot they produce the same candidates.
type Snapshot struct {
	URL     string
	Doc     *goquery.Document
	Log     []ResourceEntry // Resource-timing history, host-provided
	Players []PlayerState   // Live player instances, host-provided
}

// NewSnapshot parses document markup into a snapshot.
func NewSnapshot(pageURL string, r io.Reader) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Snapshot{URL: pageURL, Doc: doc}, nil
}

// IsLocal reports whether the document came from a local-file context,
// where outbound probes are forbidden and rendering is synchronous.
func (s *Snapshot) IsLocal() bool {
	return strings.HasPrefix(s.URL, "file:") || !strings.Contains(s.URL, "://")
}

var (
	// mediaExtPattern matches addresses ending in a recognized media
	// extension, optionally followed by a query string.
	mediaExtPattern = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|ogv|mov|m4v|m4s|m3u8|mpd|ts)(\?|$)`)

	// mediaHintPattern matches path segments that commonly carry media even
	// without a recognizable extension.
	mediaHintPattern = regexp.MustCompile(`(?i)(video/|/media/)`)
)

// looksLikeMediaAddress reports whether an address is worth surfacing as a
// media candidate based on extension or path hints.
func looksLikeMediaAddress(addr string) bool {
	if addr == "" || isEphemeralHandle(addr) {
		return false
	}
	return mediaExtPattern.MatchString(addr) || mediaHintPattern.MatchString(addr)
}

// hasMediaExtension is the stricter check used where a path hint alone
// would over-report.
func hasMediaExtension(addr string) bool {
	return mediaExtPattern.MatchString(addr)
}

// isEphemeralHandle reports whether an address is an in-memory handle
// rather than a fetchable location.
func isEphemeralHandle(addr string) bool {
	return strings.HasPrefix(addr, "blob:") || strings.HasPrefix(addr, "data:")
}

// resolveAddress makes a possibly-relative address absolute against the
// document's own address. Handles and already-absolute addresses pass
// through unchanged.
func (s *Snapshot) resolveAddress(addr string) string {
	if addr == "" || isEphemeralHandle(addr) {
		return addr
	}
	base, err := url.Parse(s.URL)
	if err != nil {
		return addr
	}
	ref, err := url.Parse(addr)
	if err != nil {
		return addr
	}
	return base.ResolveReference(ref).String()
}

// truncateTitle keeps labels presentable in list UIs.
func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) > 50 {
		return title[:50] + "..."
	}
	return title
}
