package scan

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// lookup is one named strategy for pulling a label out of nearby markup.
// Strategies are evaluated in order until one yields a non-empty value, so
// adding a new source is an addition to the table, not a control-flow
// change.
type lookup struct {
	name string
	get  func(s *goquery.Selection) string
}

func attrLookup(attr string) lookup {
	return lookup{
		name: "attr:" + attr,
		get: func(s *goquery.Selection) string {
			return strings.TrimSpace(s.AttrOr(attr, ""))
		},
	}
}

func closestAttrLookup(selector, attr string) lookup {
	return lookup{
		name: "closest:" + selector,
		get: func(s *goquery.Selection) string {
			return strings.TrimSpace(s.Closest(selector).AttrOr(attr, ""))
		},
	}
}

func closestTextLookup(container, inner string) lookup {
	return lookup{
		name: "closest-text:" + container,
		get: func(s *goquery.Selection) string {
			c := s.Closest(container)
			if c.Length() == 0 {
				return ""
			}
			if inner == "" {
				return strings.TrimSpace(c.Text())
			}
			return strings.TrimSpace(c.Find(inner).First().Text())
		},
	}
}

// titleLookups mirrors the attribute probing order the page scanner uses
// for naming a media element from surrounding markup.
var titleLookups = []lookup{
	attrLookup("title"),
	attrLookup("aria-label"),
	attrLookup("alt"),
	attrLookup("data-name"),
	attrLookup("data-title"),
	closestAttrLookup("[data-video-title]", "data-video-title"),
	closestTextLookup("figure", "figcaption"),
	closestTextLookup(".video-title", ""),
	closestTextLookup(".video-container", "h2, h3, .title"),
}

// altTextLookups is the shorter chain for the secondary label.
var altTextLookups = []lookup{
	attrLookup("alt"),
	attrLookup("aria-label"),
	attrLookup("title"),
}

// posterLookups finds a preview image address on the element itself.
var posterLookups = []lookup{
	attrLookup("poster"),
	attrLookup("data-poster"),
	attrLookup("data-thumbnail"),
}

// firstNonEmpty evaluates a lookup chain against a selection.
func firstNonEmpty(chain []lookup, s *goquery.Selection) string {
	for _, l := range chain {
		if v := l.get(s); v != "" {
			return v
		}
	}
	return ""
}

// bestTitle names a candidate from its element, with a positional fallback.
func bestTitle(s *goquery.Selection, fallback string) string {
	if t := firstNonEmpty(titleLookups, s); t != "" {
		return truncateTitle(t)
	}
	return fallback
}
