package scan

import (
	"fmt"

	"vidgrab/internal/media"
)

// Resolve merges the concatenated extractor outputs for one pass into an
// ordered unique list. The identity key is:
//
//   - platform name + native id for platform embeds,
//   - the stable source address otherwise,
//   - handle plus an occurrence ordinal for ephemeral candidates.
//
// First occurrence per key wins; discovery order is preserved. Ephemeral
// handles are never merged against each other: two handles with the same
// value cannot be proven to reference the same resource, so every
// occurrence keeps its own key. That can duplicate entries for one
// physical resource across rescans of an unchanged document; it is the
// deliberate conservative choice, not a bug.
func Resolve(candidates []media.Candidate) []media.Candidate {
	out := make([]media.Candidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	ephemeralOrdinal := 0

	for _, c := range candidates {
		switch {
		case c.Origin == media.Ephemeral:
			ephemeralOrdinal++
			c.IdentityKey = fmt.Sprintf("%s#%d", c.EphemeralHandle, ephemeralOrdinal)
		case c.Origin == media.PlatformEmbed && c.PlatformID != "":
			c.IdentityKey = c.Platform + ":" + c.PlatformID
		default:
			c.IdentityKey = c.SourceAddress
		}

		if seen[c.IdentityKey] {
			continue
		}
		seen[c.IdentityKey] = true
		out = append(out, c)
	}

	return out
}
