package scan

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
)

// probeConcurrency bounds the size-probe fan-out per pass.
const probeConcurrency = 4

// Prober is the header-only existence/size check collaborator.
type Prober interface {
	Size(ctx context.Context, address string) (int64, error)
}

// HTTPProber probes sizes with HEAD requests over the hardened client.
type HTTPProber struct {
	Client *http.Client
}

func (p *HTTPProber) Size(ctx context.Context, address string) (int64, error) {
	return httputil.HeadSize(ctx, p.Client, address)
}

// Engine runs one full discovery pass: all extractors in registration
// order, identity resolution, then best-effort size probes.
type Engine struct {
	extractors []Extractor
	prober     Prober
	log        zerolog.Logger
}

// NewEngine builds an engine with the default strategy set. A nil prober
// disables size probing entirely.
func NewEngine(prober Prober, log zerolog.Logger) *Engine {
	return &Engine{
		extractors: DefaultExtractors(),
		prober:     prober,
		log:        log,
	}
}

// Discover runs one pass over the snapshot. It never fails: extractor
// errors are contained per strategy and probe errors degrade to an unknown
// size. The returned list is owned by the caller.
func (e *Engine) Discover(ctx context.Context, snap *Snapshot) []media.Candidate {
	start := time.Now()

	var merged []media.Candidate
	for _, ex := range e.extractors {
		found := safeExtract(ex, snap, e.log)
		if len(found) > 0 {
			e.log.Debug().Str("extractor", ex.Name).Int("candidates", len(found)).Msg("extractor pass")
		}
		merged = append(merged, found...)
	}

	resolved := Resolve(merged)
	e.probeSizes(ctx, snap, resolved)

	e.log.Debug().
		Int("raw", len(merged)).
		Int("unique", len(resolved)).
		Dur("elapsed", time.Since(start)).
		Msg("discovery pass complete")

	return resolved
}

// probeSizes fills SizeBytes/SizeLabel for candidates that can be probed
// out of band. Local-file documents skip probing entirely; ephemeral and
// platform candidates are never probed; each probe failure maps silently
// to an unknown size.
func (e *Engine) probeSizes(ctx context.Context, snap *Snapshot, candidates []media.Candidate) {
	if e.prober == nil || snap.IsLocal() {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)

	for i := range candidates {
		c := &candidates[i]
		if c.Origin == media.Ephemeral || c.Origin == media.PlatformEmbed {
			continue
		}
		g.Go(func() error {
			size, err := e.prober.Size(ctx, c.SourceAddress)
			if err != nil {
				e.log.Debug().Str("address", c.SourceAddress).Err(err).Msg("size probe degraded to unknown")
				c.SizeLabel = media.SizeUnknown
				return nil
			}
			c.SetSize(size)
			return nil
		})
	}

	_ = g.Wait() // probe goroutines never return errors
}
