// Package converge decides when scanning a possibly still-mutating
// document has settled. It combines bounded retry-with-backoff with a
// change-notification subscription under a hard deadline, so the caller
// always gets a best-effort candidate list in bounded time.
package converge

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vidgrab/internal/media"
)

// State is the controller's explicit phase.
type State int

const (
	Priming State = iota
	Scanning
	Observing
	Settled
)

func (s State) String() string {
	switch s {
	case Priming:
		return "priming"
	case Scanning:
		return "scanning"
	case Observing:
		return "observing"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// MutationAttrs is the attribute-change allow-list observers should honor:
// only changes to these attributes are worth a rescan.
var MutationAttrs = []string{
	"src", "poster", "data-src", "data-video-src", "data-video-url",
	"data-video", "data-file", "data-source", "data-url",
	"data-mp4", "data-webm", "data-ogg", "href", "data",
	"data-original-src", "data-lazy-src", "data-srcset",
}

// Clock abstracts timer creation so transitions are testable without real
// time.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Observer is the document change-notification subscription. Subscribe
// registers a callback for tree mutations and returns an unsubscribe
// function; the controller tears the subscription down on every exit path.
type Observer interface {
	Subscribe(notify func()) (unsubscribe func(), err error)
}

// NoopObserver never notifies; remote documents scanned once over HTTP
// have no mutation source.
type NoopObserver struct{}

func (NoopObserver) Subscribe(func()) (func(), error) { return func() {}, nil }

// Config carries the timing constants. Zero values are replaced by the
// reference defaults.
type Config struct {
	PrimingDelay      time.Duration // before the first scan
	PrimingDelayLocal time.Duration // local files render synchronously
	RetryDelays       []time.Duration
	GracePeriod       time.Duration // settle delay once non-empty
	Deadline          time.Duration // hard bound from Observing entry
}

// DefaultConfig returns the reference timing.
func DefaultConfig() Config {
	return Config{
		PrimingDelay:      500 * time.Millisecond,
		PrimingDelayLocal: 100 * time.Millisecond,
		RetryDelays:       []time.Duration{time.Second, 1500 * time.Millisecond},
		GracePeriod:       200 * time.Millisecond,
		Deadline:          3 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PrimingDelay == 0 {
		c.PrimingDelay = d.PrimingDelay
	}
	if c.PrimingDelayLocal == 0 {
		c.PrimingDelayLocal = d.PrimingDelayLocal
	}
	if c.RetryDelays == nil {
		c.RetryDelays = d.RetryDelays
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.Deadline == 0 {
		c.Deadline = d.Deadline
	}
	return c
}

// DiscoverFunc runs one discovery pass. It must be safe to call repeatedly.
type DiscoverFunc func(ctx context.Context) []media.Candidate

// Controller drives scanning to a settled result. One controller serves
// one document; Run may be called once.
type Controller struct {
	discover DiscoverFunc
	observer Observer
	clock    Clock
	cfg      Config
	log      zerolog.Logger

	state State
	best  []media.Candidate
}

// New builds a controller. A nil observer is treated as NoopObserver and a
// nil clock as the wall clock.
func New(discover DiscoverFunc, observer Observer, clock Clock, cfg Config, log zerolog.Logger) *Controller {
	if observer == nil {
		observer = NoopObserver{}
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Controller{
		discover: discover,
		observer: observer,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		log:      log,
		state:    Priming,
	}
}

// State reports the current phase.
func (c *Controller) State() State { return c.state }

// Run drives the state machine to settlement and returns the best result
// gathered, which may be empty. It never returns an error: scan failures
// and observer failures settle with the current best. The hard deadline
// bounds the Observing phase regardless of subscription activity.
func (c *Controller) Run(ctx context.Context, local bool) []media.Candidate {
	defer func() {
		// A panicking scan or callback settles with current best.
		if r := recover(); r != nil {
			c.log.Debug().Interface("panic", r).Msg("convergence recovered, settling")
			c.state = Settled
		}
	}()

	// Priming: give client-rendered documents a moment to insert content.
	delay := c.cfg.PrimingDelay
	if local {
		delay = c.cfg.PrimingDelayLocal
	}
	if !c.wait(ctx, delay) {
		return c.settle()
	}

	// Scanning: first pass plus bounded empty-result retries.
	c.state = Scanning
	c.best = c.scan(ctx)
	for attempt := 0; len(c.best) == 0 && attempt < len(c.cfg.RetryDelays); attempt++ {
		if !c.wait(ctx, c.cfg.RetryDelays[attempt]) {
			return c.settle()
		}
		c.best = c.scan(ctx)
	}

	return c.observe(ctx)
}

// observe subscribes to change notifications and re-scans on each one,
// settling on the grace timer, the deadline, or a strictly larger result.
func (c *Controller) observe(ctx context.Context) []media.Candidate {
	c.state = Observing

	// Coalesced: a notification arriving while a scan runs collapses into
	// one pending wakeup rather than queueing.
	notifyCh := make(chan struct{}, 1)
	unsubscribe, err := c.observer.Subscribe(func() {
		select {
		case notifyCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		c.log.Debug().Err(err).Msg("observer subscription failed, settling with current best")
		return c.settle()
	}
	defer unsubscribe()

	deadline := c.clock.After(c.cfg.Deadline)
	var grace <-chan time.Time
	if len(c.best) > 0 {
		grace = c.clock.After(c.cfg.GracePeriod)
	}

	for c.state != Settled {
		select {
		case <-ctx.Done():
			return c.settle()
		case <-deadline:
			return c.settle()
		case <-grace:
			return c.settle()
		case <-notifyCh:
			next := c.scan(ctx)
			if len(next) > len(c.best) {
				c.best = next
				return c.settle()
			}
		}
	}
	return c.best
}

// scan runs one discovery pass, containing any failure as "no change".
func (c *Controller) scan(ctx context.Context) (result []media.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Debug().Interface("panic", r).Msg("scan recovered")
			result = c.best
		}
	}()
	return c.discover(ctx)
}

// wait sleeps on the injected clock; false means the context ended first.
func (c *Controller) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}

func (c *Controller) settle() []media.Candidate {
	c.state = Settled
	c.log.Debug().Int("candidates", len(c.best)).Msg("scan settled")
	return c.best
}
