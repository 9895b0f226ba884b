// Package acquire turns a discovered candidate into a saved file. Stable
// addresses go straight to the download manager; platform embeds resolve
// to their canonical watch page; ephemeral handles run a chain of
// progressively heavier recovery methods.
package acquire

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vidgrab/internal/capture"
	"vidgrab/internal/media"
)

const (
	// minPayloadBytes is the floor below which a recovered payload is
	// treated as an error page or stub rather than real media.
	minPayloadBytes = 1024
	// handleReleaseDelay keeps a delivered object handle alive long enough
	// for the save to start before it is revoked.
	handleReleaseDelay = 30 * time.Second
	// lockFallback clears an in-flight lock whose owner never released it.
	lockFallback = 60 * time.Second
)

// Action says how an acquisition concluded.
type Action int

const (
	ActionDownloaded Action = iota
	ActionOpenedPage
	ActionRecovered
)

func (a Action) String() string {
	switch a {
	case ActionDownloaded:
		return "downloaded"
	case ActionOpenedPage:
		return "opened page"
	case ActionRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Result is a completed acquisition.
type Result struct {
	Action  Action
	Address string // watch page for ActionOpenedPage
	Attempt media.Attempt
}

// Downloader saves stable addresses and recovered payloads.
type Downloader interface {
	Submit(ctx context.Context, address, filename string) error
	SaveBytes(ctx context.Context, payload []byte, filename string) error
}

// Host exposes the live document runtime that some recovery methods need.
// A nil host skips those methods; the transport and capture methods still
// run.
type Host interface {
	// TriggerLink points a download link at the handle and clicks it. The
	// outcome is unobservable from here.
	TriggerLink(handle, filename string) error
	// FetchHandle reads the payload behind an ephemeral handle in document
	// context.
	FetchHandle(ctx context.Context, handle string) (payload []byte, contentType string, err error)
	// CurrentSource reports the present source of the element that carried
	// the handle, which may have changed since discovery.
	CurrentSource(handle string) (string, bool)
	// CreateHandle publishes a payload under a fresh handle and returns
	// the release function.
	CreateHandle(payload []byte, contentType string) (handle string, release func(), err error)
	// TriggerDownload starts a save of the handle under filename.
	TriggerDownload(handle, filename string) error
}

// Coordinator runs acquisitions. Concurrent calls for distinct identities
// proceed independently; a second call for an identity already in flight
// fails fast with ErrDuplicateInFlight.
type Coordinator struct {
	client    *http.Client
	host      Host
	capturer  capture.Capturer
	downloads Downloader
	sink      Sink
	locks     *inflightLock
	log       zerolog.Logger

	newRequestID func() string
	schedule     func(d time.Duration, f func())
}

// Option adjusts a Coordinator.
type Option func(*Coordinator)

// WithHost attaches a document runtime.
func WithHost(h Host) Option { return func(c *Coordinator) { c.host = h } }

// WithCapturer attaches a stream capturer.
func WithCapturer(cap capture.Capturer) Option { return func(c *Coordinator) { c.capturer = cap } }

// WithSink attaches a telemetry sink.
func WithSink(s Sink) Option { return func(c *Coordinator) { c.sink = s } }

// NewCoordinator builds a coordinator around an HTTP client and a
// download manager.
func NewCoordinator(client *http.Client, downloads Downloader, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:       client,
		downloads:    downloads,
		sink:         NopSink{},
		locks:        newInflightLock(lockFallback),
		log:          log,
		newRequestID: newRequestID,
		schedule:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire dispatches one candidate by origin class. The identity stays
// locked for the duration of the call.
func (c *Coordinator) Acquire(ctx context.Context, cand media.Candidate) (Result, error) {
	if err := c.locks.acquire(cand.IdentityKey); err != nil {
		return Result{}, err
	}
	defer c.locks.release(cand.IdentityKey)

	c.log.Debug().
		Str("identity", cand.IdentityKey).
		Str("origin", cand.Origin.String()).
		Msg("acquisition started")

	switch cand.Origin {
	case media.PlatformEmbed:
		// Embeds are not fetchable; the canonical watch page is the
		// deliverable.
		return Result{Action: ActionOpenedPage, Address: cand.SourceAddress}, nil
	case media.Ephemeral:
		return c.runEphemeral(ctx, cand)
	default:
		if err := c.downloads.Submit(ctx, cand.SourceAddress, cand.Filename); err != nil {
			return Result{}, fmt.Errorf("submitting download: %w", err)
		}
		return Result{Action: ActionDownloaded}, nil
	}
}
