package scan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
	"vidgrab/internal/platform"
)

// dataSourceAttrs are the attribute names commonly used to stash a media
// address outside the src attribute.
var dataSourceAttrs = []string{
	"data-src", "data-video-src", "data-video-url", "data-video",
	"data-file", "data-source", "data-url", "data-mp4", "data-webm",
	"data-ogg", "data-original-src", "data-lazy-src",
}

// newAddressCandidate builds the common candidate shape for a fetchable
// address.
func newAddressCandidate(snap *Snapshot, addr, title string, origin media.OriginClass) media.Candidate {
	addr = snap.resolveAddress(addr)
	return media.Candidate{
		SourceAddress: addr,
		Title:         title,
		Extension:     httputil.PathExtension(addr),
		Filename:      httputil.PathFilename(addr),
		Origin:        origin,
		SizeLabel:     media.SizeUnknown,
	}
}

// extractWatchPage emits one candidate when the document's own address is a
// known platform watch page, independent of any embedded frame.
func extractWatchPage(snap *Snapshot) []media.Candidate {
	ref, ok := platform.MatchWatchPage(snap.URL)
	if !ok {
		return nil
	}

	// Page title with the platform suffix stripped, falling back to the id.
	title := strings.TrimSpace(snap.Doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(snap.Doc.Find("title").First().Text())
	}
	title = strings.TrimSpace(regexp.MustCompile(`(?i)\s*-\s*YouTube\s*$`).ReplaceAllString(title, ""))
	if len(title) < 3 {
		title = fmt.Sprintf("%s video %s", ref.Name, ref.VideoID)
	}

	return []media.Candidate{{
		SourceAddress: ref.WatchURL,
		Title:         truncateTitle(title),
		PosterAddress: ref.Thumbnail,
		Extension:     "mp4",
		Filename:      platform.Filename(ref),
		Origin:        media.PlatformEmbed,
		Platform:      ref.Name,
		PlatformID:    ref.VideoID,
		SizeLabel:     media.SizeUnknown,
	}}
}

// extractNativeMedia walks video elements and their nested source
// declarations. Declarative shadow trees (template subtrees) are part of
// the parsed document, so the selector reaches them too.
func extractNativeMedia(snap *Snapshot) []media.Candidate {
	var out []media.Candidate

	snap.Doc.Find("video").Each(func(i int, v *goquery.Selection) {
		var sources []string
		if src := v.AttrOr("src", ""); src != "" {
			sources = append(sources, src)
		}
		v.Find("source").Each(func(_ int, s *goquery.Selection) {
			if src := s.AttrOr("src", ""); src != "" {
				sources = append(sources, src)
			}
		})
		if len(sources) == 0 {
			// Element present but source not yet attached; data attributes
			// often carry the address before the player wires it up.
			for _, attr := range []string{"data-src", "data-video-src", "data-video-url"} {
				if src := v.AttrOr(attr, ""); src != "" {
					sources = append(sources, src)
					break
				}
			}
		}

		for _, src := range sources {
			if c, ok := candidateFromElementSource(snap, v, src, len(out)+1); ok {
				out = append(out, c)
			}
		}
	})

	// Standalone video-typed source elements whose parent carried no src.
	snap.Doc.Find("source[type*='video']").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		parent := s.Closest("video")
		if parent.Length() > 0 && parent.AttrOr("src", "") != "" {
			return // already covered above
		}
		scope := s
		if parent.Length() > 0 {
			scope = parent
		}
		if c, ok := candidateFromElementSource(snap, scope, src, len(out)+1); ok {
			out = append(out, c)
		}
	})

	return out
}

// candidateFromElementSource builds a candidate for one source address of a
// native media element, classifying ephemeral handles and recovering the
// original address from data attributes when one is published.
func candidateFromElementSource(snap *Snapshot, v *goquery.Selection, src string, ordinal int) (media.Candidate, bool) {
	ephemeral := isEphemeralHandle(src)
	addr := src

	if ephemeral {
		// A handle sometimes shadows a recoverable original address.
		original := firstNonEmpty([]lookup{
			attrLookup("data-src"),
			attrLookup("data-original-src"),
			attrLookup("data-video-url"),
			closestAttrLookup("[data-video-src]", "data-video-src"),
			closestAttrLookup("[data-src]", "data-src"),
		}, v)
		if original != "" && !isEphemeralHandle(original) {
			addr = original
			ephemeral = false
		}
	}

	fallback := fmt.Sprintf("Video %d", ordinal)
	c := media.Candidate{
		Title:         bestTitle(v, fallback),
		AltText:       firstNonEmpty(altTextLookups, v),
		PosterAddress: snap.resolveAddress(firstNonEmpty(posterLookups, v)),
		SizeLabel:     media.SizeUnknown,
	}
	if w, err := strconv.Atoi(v.AttrOr("width", "")); err == nil {
		c.Width = w
	}
	if h, err := strconv.Atoi(v.AttrOr("height", "")); err == nil {
		c.Height = h
	}
	if d, err := strconv.ParseFloat(v.AttrOr("duration", ""), 64); err == nil {
		c.DurationSeconds = d
	}

	if ephemeral {
		c.SourceAddress = src
		c.EphemeralHandle = src
		c.Origin = media.Ephemeral
		c.Extension = "mp4"
		c.Filename = fmt.Sprintf("video_%s.mp4", sanitizeLabel(c.Title))
		return c, true
	}

	addr = snap.resolveAddress(addr)
	c.SourceAddress = addr
	c.Origin = media.DirectFile
	c.Extension = httputil.PathExtension(addr)
	c.Filename = httputil.PathFilename(addr)
	return c, true
}

func sanitizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// extractFramePlayers matches embedded frames against the known platform
// patterns; unmatched frames pointing at a direct file are treated as
// direct-file candidates.
func extractFramePlayers(snap *Snapshot) []media.Candidate {
	var out []media.Candidate

	snap.Doc.Find("iframe").Each(func(_ int, f *goquery.Selection) {
		src := f.AttrOr("src", "")
		if src == "" {
			src = f.AttrOr("data-src", "")
		}
		if src == "" {
			return
		}

		if ref, ok := platform.Match(src); ok {
			title := firstNonEmpty([]lookup{
				attrLookup("title"),
				attrLookup("aria-label"),
				closestAttrLookup("[title]", "title"),
			}, f)
			if title == "" {
				title = fmt.Sprintf("%s video %s", ref.Name, ref.VideoID)
			}
			c := media.Candidate{
				SourceAddress: ref.WatchURL,
				Title:         truncateTitle(title),
				PosterAddress: ref.Thumbnail,
				Extension:     "mp4",
				Filename:      platform.Filename(ref),
				Origin:        media.PlatformEmbed,
				Platform:      ref.Name,
				PlatformID:    ref.VideoID,
				SizeLabel:     media.SizeUnknown,
			}
			if w, err := strconv.Atoi(f.AttrOr("width", "")); err == nil {
				c.Width = w
			}
			if h, err := strconv.Atoi(f.AttrOr("height", "")); err == nil {
				c.Height = h
			}
			out = append(out, c)
			return
		}

		if hasMediaExtension(src) {
			title := f.AttrOr("title", "")
			if title == "" {
				title = f.AttrOr("aria-label", "")
			}
			if title == "" {
				title = "Framed video"
			}
			out = append(out, newAddressCandidate(snap, src, truncateTitle(title), media.DirectFile))
		}
	})

	return out
}

// extractAttributes mines media-looking addresses from data attributes,
// anchors, object/embed elements, custom elements, and the usual player
// container markup.
func extractAttributes(snap *Snapshot) []media.Candidate {
	var out []media.Candidate
	add := func(addr, title string) {
		if !isEphemeralHandle(addr) {
			out = append(out, newAddressCandidate(snap, addr, title, media.DirectFile))
		}
	}

	// Explicit data attributes and media-extension anchors.
	snap.Doc.Find("[data-video-url], a[href]").Each(func(_ int, el *goquery.Selection) {
		addr := el.AttrOr("data-video-url", "")
		if addr == "" && goquery.NodeName(el) == "a" {
			href := el.AttrOr("href", "")
			if hasMediaExtension(href) {
				addr = href
			}
		}
		if addr == "" || !hasMediaExtension(addr) {
			return
		}
		title := firstNonEmpty([]lookup{
			attrLookup("title"),
			attrLookup("aria-label"),
			attrLookup("data-title"),
		}, el)
		if title == "" {
			title = strings.TrimSpace(el.Text())
		}
		add(addr, truncateTitle(title))
	})

	// The broader data-attribute allow-list on any element.
	snap.Doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		for _, attr := range dataSourceAttrs {
			v := el.AttrOr(attr, "")
			if v == "" || !hasMediaExtension(v) {
				continue
			}
			title := firstNonEmpty([]lookup{
				attrLookup("title"),
				attrLookup("aria-label"),
				attrLookup("data-title"),
				closestAttrLookup("[data-title]", "data-title"),
			}, el)
			add(v, truncateTitle(title))
		}
	})

	// Legacy object/embed embeds.
	snap.Doc.Find("object, embed").Each(func(_ int, el *goquery.Selection) {
		addr := el.AttrOr("data", "")
		if addr == "" {
			addr = el.AttrOr("src", "")
		}
		if addr == "" || !hasMediaExtension(addr) {
			return
		}
		title := firstNonEmpty([]lookup{
			attrLookup("title"),
			attrLookup("aria-label"),
			closestAttrLookup("[title]", "title"),
		}, el)
		add(addr, truncateTitle(title))
	})

	// Custom elements (hyphenated tag names) frequently expose the address
	// as a component attribute.
	snap.Doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		if !strings.Contains(goquery.NodeName(el), "-") {
			return
		}
		for _, attr := range []string{"video-src", "video-url", "src", "data-src", "data-video-src"} {
			v := el.AttrOr(attr, "")
			if v == "" || !hasMediaExtension(v) {
				continue
			}
			title := el.AttrOr("title", "")
			if title == "" {
				title = el.AttrOr("data-title", "")
			}
			if title == "" {
				title = goquery.NodeName(el)
			}
			add(v, truncateTitle(title))
		}
	})

	// Common player container markup.
	for _, sel := range []string{
		".video-player", ".videoPlayer", ".video_player",
		".media-player", ".mediaPlayer", ".media_player",
		"[class*='video-player']", "[class*='VideoPlayer']",
		"[class*='plyr']", "[class*='jwplayer']",
		"[class*='flowplayer']", "[class*='videojs']",
	} {
		snap.Doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			for _, attr := range append([]string{"src", "href"}, dataSourceAttrs...) {
				v := el.AttrOr(attr, "")
				if v == "" || !hasMediaExtension(v) {
					continue
				}
				title := firstNonEmpty([]lookup{
					attrLookup("title"),
					attrLookup("data-title"),
					attrLookup("aria-label"),
					closestTextLookup("[class*='title']", ""),
				}, el)
				if title == "" {
					title = "Video player"
				}
				c := newAddressCandidate(snap, v, truncateTitle(title), media.DirectFile)
				c.PosterAddress = snap.resolveAddress(firstNonEmpty(posterLookups, el))
				out = append(out, c)
			}
		})
	}

	return out
}

// extractStructuredMetadata reads social-preview metadata blocks and
// embedded structured-data blocks for content addresses.
func extractStructuredMetadata(snap *Snapshot) []media.Candidate {
	var out []media.Candidate

	meta := func(sel string) string {
		return strings.TrimSpace(snap.Doc.Find(sel).First().AttrOr("content", ""))
	}
	metaInt := func(sel string) int {
		n, _ := strconv.Atoi(meta(sel))
		return n
	}

	if src := meta("meta[property='og:video'], meta[property='og:video:url']"); src != "" {
		title := meta("meta[property='og:title']")
		if title == "" {
			title = meta("meta[name='title']")
		}
		if title == "" {
			title = "Video"
		}
		c := newAddressCandidate(snap, src, truncateTitle(title), media.DirectFile)
		c.Width = metaInt("meta[property='og:video:width']")
		c.Height = metaInt("meta[property='og:video:height']")
		c.PosterAddress = snap.resolveAddress(meta("meta[property='og:image']"))
		out = append(out, c)
	}

	if src := meta("meta[name='twitter:player:stream'], meta[name='twitter:player']"); src != "" {
		title := meta("meta[name='twitter:title']")
		if title == "" {
			title = "Twitter video"
		}
		c := newAddressCandidate(snap, src, truncateTitle(title), media.DirectFile)
		c.Width = metaInt("meta[name='twitter:player:width']")
		c.Height = metaInt("meta[name='twitter:player:height']")
		c.PosterAddress = snap.resolveAddress(meta("meta[name='twitter:image']"))
		out = append(out, c)
	}

	snap.Doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		walkStructuredData(snap, data, &out)
	})

	return out
}

// walkStructuredData recursively searches decoded JSON-LD for contentUrl
// fields naming a media address.
func walkStructuredData(snap *Snapshot, node any, out *[]media.Candidate) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkStructuredData(snap, item, out)
		}
	case map[string]any:
		if src, _ := v["contentUrl"].(string); src != "" && looksLikeMediaAddress(src) {
			title, _ := v["name"].(string)
			if title == "" {
				title, _ = v["headline"].(string)
			}
			if title == "" {
				title = "Video"
			}
			c := newAddressCandidate(snap, src, truncateTitle(title), media.DirectFile)
			if thumb, _ := v["thumbnailUrl"].(string); thumb != "" {
				c.PosterAddress = snap.resolveAddress(thumb)
			}
			if w, ok := v["width"].(float64); ok {
				c.Width = int(w)
			}
			if h, ok := v["height"].(float64); ok {
				c.Height = int(h)
			}
			*out = append(*out, c)
		}
		for _, child := range v {
			switch child.(type) {
			case map[string]any, []any:
				walkStructuredData(snap, child, out)
			}
		}
	}
}

var cssURLPattern = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)

// extractStyleRules mines style rule declarations for media addresses.
// Only same-document rules are reachable: external cross-origin sheets are
// the host's concern and their absence maps to zero candidates.
func extractStyleRules(snap *Snapshot) []media.Candidate {
	var out []media.Candidate
	seen := map[string]bool{}

	harvest := func(cssText string) {
		for _, m := range cssURLPattern.FindAllStringSubmatch(cssText, -1) {
			addr := m[1]
			if !hasMediaExtension(addr) || isEphemeralHandle(addr) || seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, newAddressCandidate(snap, addr, "Background video", media.DirectFile))
		}
	}

	snap.Doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		harvest(s.Text())
	})
	snap.Doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		harvest(s.AttrOr("style", ""))
	})

	return out
}

var (
	scriptSourcePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:src|url|source|file|videoUrl|video_url|videoSrc)\s*[:=]\s*['"]([^'"]*\.(?:mp4|webm|ogg|mov|m3u8|mpd)[^'"]*)['"]`),
	}
	scriptTitlePattern = regexp.MustCompile(`(?i)(?:title|name|label)\s*[:=]\s*['"]([^'"]+)['"]`)
)

// extractScriptText searches inlined script bodies for quoted media
// addresses, with a nearby-text heuristic for the title.
func extractScriptText(snap *Snapshot) []media.Candidate {
	var out []media.Candidate
	seen := map[string]bool{}

	snap.Doc.Find("script:not([type='application/ld+json'])").Each(func(_ int, s *goquery.Selection) {
		content := s.Text()
		if len(content) < 20 {
			return
		}
		for _, pattern := range scriptSourcePatterns {
			for _, loc := range pattern.FindAllStringSubmatchIndex(content, -1) {
				addr := strings.ReplaceAll(content[loc[2]:loc[3]], `\`, "")
				if addr == "" || isEphemeralHandle(addr) || seen[addr] {
					continue
				}
				seen[addr] = true

				// Look for a label declared near the source assignment.
				start := loc[0] - 100
				if start < 0 {
					start = 0
				}
				end := loc[0] + 100
				if end > len(content) {
					end = len(content)
				}
				title := "Video from script"
				if tm := scriptTitlePattern.FindStringSubmatch(content[start:end]); tm != nil {
					title = tm[1]
				}

				out = append(out, newAddressCandidate(snap, addr, truncateTitle(title), media.DirectFile))
			}
		}
	})

	return out
}
