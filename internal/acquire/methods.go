package acquire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
)

// fetchLimit bounds how much of a recovered payload is read into memory.
const fetchLimit = 2 << 30

// tooSmallHint is the user-facing explanation when every method came back
// with an undersized payload.
const tooSmallHint = "too small — likely protected or expired"

func newRequestID() string { return uuid.NewString() }

// runEphemeral walks the recovery method chain for a handle-backed
// candidate, stopping at the first method that yields a plausible payload.
func (c *Coordinator) runEphemeral(ctx context.Context, cand media.Candidate) (Result, error) {
	attempt := media.Attempt{
		IdentityKey: cand.IdentityKey,
		RequestID:   c.newRequestID(),
	}
	start := time.Now()

	record := func(m media.MethodResult) {
		attempt.Methods = append(attempt.Methods, m)
		c.log.Debug().
			Str("request", attempt.RequestID).
			Str("method", m.Method).
			Str("outcome", m.Outcome.String()).
			Str("reason", m.Reason).
			Msg("recovery method finished")
	}

	finish := func(payload []byte, contentType string) (Result, error) {
		attempt.PayloadSize = int64(len(payload))
		attempt.PayloadType = contentType
		attempt.ElapsedMS = time.Since(start).Milliseconds()
		attempt.Succeeded = true
		c.sink.Attempt(attempt)
		if err := c.deliver(ctx, payload, contentType, cand.Filename); err != nil {
			return Result{}, err
		}
		return Result{Action: ActionRecovered, Attempt: attempt}, nil
	}

	// Method 1: point a download link at the handle and click it. Whether
	// the save actually started cannot be observed, so this is always
	// inconclusive and the chain continues.
	if c.host == nil {
		record(media.MethodResult{Method: "link-trigger", Outcome: media.OutcomeSkipped, Reason: "no document runtime"})
	} else if err := c.host.TriggerLink(cand.EphemeralHandle, cand.Filename); err != nil {
		record(media.MethodResult{Method: "link-trigger", Outcome: media.OutcomeInconclusive, Reason: err.Error()})
	} else {
		record(media.MethodResult{Method: "link-trigger", Outcome: media.OutcomeInconclusive, Reason: "outcome not observable"})
	}

	// Method 2: read the payload behind the handle directly.
	if c.host == nil {
		record(media.MethodResult{Method: "handle-fetch", Outcome: media.OutcomeSkipped, Reason: "no document runtime"})
	} else if payload, contentType, ok := c.tryFetch(ctx, record, "handle-fetch", func() ([]byte, string, error) {
		return c.host.FetchHandle(ctx, cand.EphemeralHandle)
	}); ok {
		return finish(payload, contentType)
	}

	// Method 3: the element may have swapped in a different source since
	// discovery; fetch whatever it holds now.
	if c.host == nil {
		record(media.MethodResult{Method: "element-source", Outcome: media.OutcomeSkipped, Reason: "no document runtime"})
	} else if source, ok := c.host.CurrentSource(cand.EphemeralHandle); !ok || source == "" {
		record(media.MethodResult{Method: "element-source", Outcome: media.OutcomeInconclusive, Reason: "element has no current source"})
	} else if payload, contentType, ok := c.tryFetch(ctx, record, "element-source", func() ([]byte, string, error) {
		return c.fetchAnySource(ctx, source)
	}); ok {
		return finish(payload, contentType)
	}

	// Method 4: raw transport fetch of the original address, outside any
	// document context.
	if payload, contentType, ok := c.tryFetch(ctx, record, "transport-fetch", func() ([]byte, string, error) {
		return httputil.TransportFetch(ctx, c.client, cand.SourceAddress, fetchLimit)
	}); ok {
		return finish(payload, contentType)
	}

	// Method 5: record the playing stream for a bounded window.
	if c.capturer == nil {
		record(media.MethodResult{Method: "live-capture", Outcome: media.OutcomeSkipped, Reason: "capture unavailable"})
	} else if payload, contentType, ok := c.tryFetch(ctx, record, "live-capture", func() ([]byte, string, error) {
		return c.capturer.Capture(ctx, cand.SourceAddress, cand.DurationSeconds, func(p media.Progress) {
			p.RequestID = attempt.RequestID
			c.sink.Progress(p)
		})
	}); ok {
		return finish(payload, contentType)
	}

	attempt.ElapsedMS = time.Since(start).Milliseconds()
	exhausted := exhaustionError(attempt.Methods)
	attempt.FinalError = exhausted.Error()
	c.sink.Attempt(attempt)
	return Result{Attempt: attempt}, fmt.Errorf("acquiring %s: %w", cand.IdentityKey, exhausted)
}

// tryFetch runs one payload-producing method and applies the minimum-size
// floor. ok is true only for a plausible payload.
func (c *Coordinator) tryFetch(ctx context.Context, record func(media.MethodResult), method string, fetch func() ([]byte, string, error)) ([]byte, string, bool) {
	if err := ctx.Err(); err != nil {
		record(media.MethodResult{Method: method, Outcome: media.OutcomeSkipped, Reason: err.Error()})
		return nil, "", false
	}
	payload, contentType, err := fetch()
	if err != nil {
		record(media.MethodResult{Method: method, Outcome: media.OutcomeFailed, Reason: err.Error()})
		return nil, "", false
	}
	if len(payload) < minPayloadBytes {
		record(media.MethodResult{
			Method:     method,
			Outcome:    media.OutcomeInconclusive,
			Reason:     fmt.Sprintf("payload of %d bytes is below the %d byte floor", len(payload), minPayloadBytes),
			Undersized: true,
		})
		return nil, "", false
	}
	record(media.MethodResult{Method: method, Outcome: media.OutcomeSucceeded})
	return payload, contentType, true
}

// fetchAnySource fetches an element source that may be either a fresh
// ephemeral handle or a plain address.
func (c *Coordinator) fetchAnySource(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "blob:") || strings.HasPrefix(source, "data:") {
		return c.host.FetchHandle(ctx, source)
	}
	return httputil.FetchBytes(ctx, c.client, source, fetchLimit)
}

// deliver hands a recovered payload over for saving. With a document
// runtime the payload is republished under a fresh handle whose release is
// deferred long enough for the save to begin; otherwise the bytes are
// written directly.
func (c *Coordinator) deliver(ctx context.Context, payload []byte, contentType, filename string) error {
	if c.host == nil {
		if err := c.downloads.SaveBytes(ctx, payload, filename); err != nil {
			return fmt.Errorf("saving recovered payload: %w", err)
		}
		return nil
	}

	handle, release, err := c.host.CreateHandle(payload, contentType)
	if err != nil {
		return fmt.Errorf("publishing recovered payload: %w", err)
	}
	if err := c.host.TriggerDownload(handle, filename); err != nil {
		release()
		return fmt.Errorf("triggering download: %w", err)
	}
	c.schedule(handleReleaseDelay, release)
	return nil
}

// exhaustionError summarizes a failed chain. Undersized payloads get the
// protected-or-expired hint because that is the dominant cause in
// practice.
func exhaustionError(methods []media.MethodResult) error {
	for _, m := range methods {
		if m.Undersized {
			return fmt.Errorf("%w: %s", ErrExhausted, tooSmallHint)
		}
	}
	return ErrExhausted
}
