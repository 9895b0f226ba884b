package scan

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
)

// hunterScriptPatterns match quoted absolute addresses in script bodies.
var hunterScriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`['"](https?://[^'"]+\.(?:mp4|webm|ogg|mov|m3u8|mpd)[^'"]*)['"]`),
	regexp.MustCompile(`['"](https?://[^'"]+/video/[^'"]*)['"]`),
}

// extractNetworkHunter mines the resource-timing history and inlined
// script text for raw media addresses independent of any element.
// Protected players often hide the address from the tree but not from the
// network log, so these are surfaced even when no element matched.
func extractNetworkHunter(snap *Snapshot) []media.Candidate {
	addrs := make([]string, 0, len(snap.Log))
	seen := map[string]bool{}

	keep := func(addr string) {
		if addr == "" || isEphemeralHandle(addr) || seen[addr] {
			return
		}
		seen[addr] = true
		addrs = append(addrs, addr)
	}

	for _, entry := range snap.Log {
		if looksLikeMediaAddress(entry.Address) {
			keep(entry.Address)
		}
	}

	snap.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		content := s.Text()
		if len(content) < 20 {
			return
		}
		for _, pattern := range hunterScriptPatterns {
			for _, m := range pattern.FindAllStringSubmatch(content, -1) {
				keep(strings.ReplaceAll(m[1], `\`, ""))
			}
		}
	})

	out := make([]media.Candidate, 0, len(addrs))
	for _, addr := range addrs {
		c := newAddressCandidate(snap, addr, hunterTitle(addr), media.NetworkInferred)
		c.Hunted = true
		out = append(out, c)
	}
	return out
}

// hunterTitle derives a readable label from the address itself.
func hunterTitle(addr string) string {
	name := httputil.PathFilename(addr)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	title := strings.Join(strings.Fields(b.String()), " ")
	if len(title) < 3 {
		return "Direct download (" + strings.ToUpper(httputil.PathExtension(addr)) + ")"
	}
	return truncateTitle(title)
}
