// Package platform maps embedded-player and watch-page addresses of known
// video hosting platforms to their canonical watch address and native id.
// Matchers are pure string-pattern functions with no network access.
package platform

import (
	"fmt"
	"regexp"
)

// Ref identifies a video on a known hosting platform.
type Ref struct {
	Name      string // Platform name, lowercase (e.g. "youtube")
	VideoID   string // Platform-native id
	WatchURL  string // Canonical watch address reconstructed from the id
	Thumbnail string // Best-effort preview address, empty when unavailable
}

// matcher binds one platform's frame-address patterns to its canonical
// address builders. Patterns are tried in order; first submatch wins.
type matcher struct {
	name      string
	patterns  []*regexp.Regexp
	watchURL  func(id string) string
	thumbnail func(id string) string
}

var matchers = []matcher{
	{
		name: "youtube",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})`),
			regexp.MustCompile(`embed/([A-Za-z0-9_-]{11})`),
		},
		watchURL: func(id string) string {
			return "https://www.youtube.com/watch?v=" + id
		},
		thumbnail: func(id string) string {
			return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
		},
	},
	{
		name: "vimeo",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`),
		},
		watchURL: func(id string) string {
			return "https://vimeo.com/" + id
		},
	},
	{
		name: "dailymotion",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`dailymotion\.com/(?:embed/)?video/([A-Za-z0-9]+)`),
		},
		watchURL: func(id string) string {
			return "https://www.dailymotion.com/video/" + id
		},
		thumbnail: func(id string) string {
			return "https://www.dailymotion.com/thumbnail/video/" + id
		},
	},
	{
		name: "twitch",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`twitch\.tv/(?:videos/)?(\d+)`),
		},
		watchURL: func(id string) string {
			return "https://www.twitch.tv/videos/" + id
		},
	},
	{
		name: "facebook",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`facebook\.com/(?:.*/)?videos/(\d+)`),
		},
		watchURL: func(id string) string {
			return "https://www.facebook.com/watch/?v=" + id
		},
	},
	{
		name: "instagram",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`instagram\.com/(?:.*/)?p/([^/?]+)`),
		},
		watchURL: func(id string) string {
			return "https://www.instagram.com/p/" + id
		},
	},
	{
		name: "tiktok",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`tiktok\.com/(?:.*/)?video/(\d+)`),
		},
		watchURL: func(id string) string {
			return "https://www.tiktok.com/@user/video/" + id
		},
	},
	{
		name: "bilibili",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`bilibili\.com/video/([^/?]+)`),
		},
		watchURL: func(id string) string {
			return "https://www.bilibili.com/video/" + id
		},
	},
}

// Match maps a frame or page address to a platform Ref. Returns false when
// no known platform pattern matches.
func Match(address string) (Ref, bool) {
	for _, m := range matchers {
		for _, p := range m.patterns {
			sub := p.FindStringSubmatch(address)
			if sub == nil || sub[1] == "" {
				continue
			}
			ref := Ref{
				Name:     m.name,
				VideoID:  sub[1],
				WatchURL: m.watchURL(sub[1]),
			}
			if m.thumbnail != nil {
				ref.Thumbnail = m.thumbnail(sub[1])
			}
			return ref, true
		}
	}
	return Ref{}, false
}

// watchPagePattern matches a document's own address when the user is
// already on a platform watch page (not an embed).
var watchPagePattern = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([A-Za-z0-9_-]{11})`)

// MatchWatchPage reports whether the document's own address is a known
// platform watch page and returns its Ref.
func MatchWatchPage(pageURL string) (Ref, bool) {
	sub := watchPagePattern.FindStringSubmatch(pageURL)
	if sub == nil {
		return Ref{}, false
	}
	id := sub[1]
	return Ref{
		Name:      "youtube",
		VideoID:   id,
		WatchURL:  "https://www.youtube.com/watch?v=" + id,
		Thumbnail: "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg",
	}, true
}

// Filename suggests a download filename for a platform video.
func Filename(ref Ref) string {
	return fmt.Sprintf("%s_%s.mp4", ref.Name, ref.VideoID)
}
