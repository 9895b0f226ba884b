package scan

import (
	"github.com/rs/zerolog"

	"vidgrab/internal/media"
)

// Extractor is one discovery strategy: a named pure function over a
// document snapshot. Extractors must not fail the pass; any panic or
// malformed input inside a strategy is contained by safeExtract and
// contributes zero candidates.
type Extractor struct {
	Name    string
	Extract func(snap *Snapshot) []media.Candidate
}

// safeExtract runs one strategy, recovering any panic into an empty result.
// This is the single shared boundary the per-strategy policy relies on.
func safeExtract(e Extractor, snap *Snapshot, log zerolog.Logger) (out []media.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("extractor", e.Name).Interface("panic", r).
				Msg("extractor recovered, contributing no candidates")
			out = nil
		}
	}()
	out = e.Extract(snap)
	return out
}

// DefaultExtractors returns the full strategy set in registration order.
// The resolver preserves this order, so it is externally visible.
func DefaultExtractors() []Extractor {
	return []Extractor{
		{Name: "watch-page", Extract: extractWatchPage},
		{Name: "native-media", Extract: extractNativeMedia},
		{Name: "frame-players", Extract: extractFramePlayers},
		{Name: "attribute-mining", Extract: extractAttributes},
		{Name: "structured-metadata", Extract: extractStructuredMetadata},
		{Name: "style-rules", Extract: extractStyleRules},
		{Name: "script-text", Extract: extractScriptText},
		{Name: "player-instances", Extract: extractPlayerInstances},
		{Name: "network-hunter", Extract: extractNetworkHunter},
	}
}
