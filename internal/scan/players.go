package scan

import (
	"fmt"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
)

// extractPlayerInstances surfaces candidates from live instances of
// recognized third-party player runtimes, as reported by the host. An
// absent player global is simply an empty slice here.
func extractPlayerInstances(snap *Snapshot) []media.Candidate {
	var out []media.Candidate

	for i, p := range snap.Players {
		if p.Source == "" {
			continue
		}

		title := p.Title
		if title == "" {
			title = fmt.Sprintf("%s player %d", p.Library, i+1)
		}

		if isEphemeralHandle(p.Source) {
			out = append(out, media.Candidate{
				SourceAddress:   p.Source,
				EphemeralHandle: p.Source,
				Title:           truncateTitle(title),
				PosterAddress:   snap.resolveAddress(p.Poster),
				DurationSeconds: p.Duration,
				Width:           p.Width,
				Height:          p.Height,
				Extension:       "mp4",
				Filename:        fmt.Sprintf("%s_capture.mp4", p.Library),
				Origin:          media.Ephemeral,
				SizeLabel:       media.SizeUnknown,
			})
			continue
		}

		c := newAddressCandidate(snap, p.Source, truncateTitle(title), media.DirectFile)
		c.PosterAddress = snap.resolveAddress(p.Poster)
		c.DurationSeconds = p.Duration
		c.Width = p.Width
		c.Height = p.Height
		c.Filename = httputil.PathFilename(c.SourceAddress)
		out = append(out, c)
	}

	return out
}
