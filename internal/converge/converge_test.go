package converge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidgrab/internal/media"
)

// manualClock hands out timers that fire only when the test fires them.
type manualClock struct {
	mu      sync.Mutex
	waiters []manualTimer
}

type manualTimer struct {
	d     time.Duration
	ch    chan time.Time
	fired bool
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, manualTimer{d: d, ch: ch})
	return ch
}

// fire releases the oldest unfired timer of the given duration, waiting for
// it to be created if necessary.
func (c *manualClock) fire(t *testing.T, d time.Duration) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for i := range c.waiters {
			w := &c.waiters[i]
			if w.d == d && !w.fired {
				w.fired = true
				w.ch <- time.Now()
				c.mu.Unlock()
				return
			}
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no timer for %v was ever requested", d)
}

// instantClock fires every timer immediately.
type instantClock struct{}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// fakeObserver hands the notify callback to the test.
type fakeObserver struct {
	subscribed chan func()
}

func (o *fakeObserver) Subscribe(notify func()) (func(), error) {
	o.subscribed <- notify
	return func() {}, nil
}

type failingObserver struct{}

func (failingObserver) Subscribe(func()) (func(), error) {
	return nil, errors.New("no mutation source")
}

func candidates(n int) []media.Candidate {
	out := make([]media.Candidate, n)
	for i := range out {
		out[i] = media.Candidate{SourceAddress: "https://example.com/v.mp4", Origin: media.DirectFile}
	}
	return out
}

func TestRunRetriesEmptyScansThenSettles(t *testing.T) {
	var scans atomic.Int32
	discover := func(context.Context) []media.Candidate {
		scans.Add(1)
		return nil
	}

	c := New(discover, NoopObserver{}, instantClock{}, Config{}, zerolog.Nop())
	got := c.Run(context.Background(), false)

	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d candidates", len(got))
	}
	if n := scans.Load(); n != 3 {
		t.Errorf("expected 3 scan passes (initial + 2 retries), got %d", n)
	}
	if c.State() != Settled {
		t.Errorf("expected settled state, got %v", c.State())
	}
}

func TestRunSettlesAfterGraceWithoutRescanning(t *testing.T) {
	var scans atomic.Int32
	discover := func(context.Context) []media.Candidate {
		scans.Add(1)
		return candidates(2)
	}

	c := New(discover, NoopObserver{}, instantClock{}, Config{}, zerolog.Nop())
	got := c.Run(context.Background(), false)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if n := scans.Load(); n != 1 {
		t.Errorf("expected a single scan pass, got %d", n)
	}
}

func TestRunPrimingDelayDependsOnLocality(t *testing.T) {
	for _, tt := range []struct {
		name  string
		local bool
		want  time.Duration
	}{
		{"remote", false, 500 * time.Millisecond},
		{"local", true, 100 * time.Millisecond},
	} {
		t.Run(tt.name, func(t *testing.T) {
			clock := &manualClock{}
			discover := func(context.Context) []media.Candidate { return candidates(1) }
			c := New(discover, NoopObserver{}, clock, Config{}, zerolog.Nop())

			done := make(chan []media.Candidate, 1)
			go func() { done <- c.Run(context.Background(), tt.local) }()

			clock.fire(t, tt.want)
			clock.fire(t, 200*time.Millisecond) // grace
			select {
			case got := <-done:
				if len(got) != 1 {
					t.Fatalf("expected 1 candidate, got %d", len(got))
				}
			case <-time.After(2 * time.Second):
				t.Fatal("controller never settled")
			}
		})
	}
}

func TestRunNotificationWithLargerResultSettlesImmediately(t *testing.T) {
	var scans atomic.Int32
	discover := func(context.Context) []media.Candidate {
		if scans.Add(1) == 1 {
			return candidates(1)
		}
		return candidates(3)
	}

	clock := &manualClock{}
	obs := &fakeObserver{subscribed: make(chan func(), 1)}
	c := New(discover, obs, clock, Config{}, zerolog.Nop())

	done := make(chan []media.Candidate, 1)
	go func() { done <- c.Run(context.Background(), false) }()

	clock.fire(t, 500*time.Millisecond)
	notify := <-obs.subscribed
	notify()

	select {
	case got := <-done:
		if len(got) != 3 {
			t.Fatalf("expected the grown result of 3 candidates, got %d", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("controller never settled on growth")
	}
}

func TestRunNotificationWithoutGrowthWaitsForGrace(t *testing.T) {
	var scans atomic.Int32
	discover := func(context.Context) []media.Candidate {
		scans.Add(1)
		return candidates(2)
	}

	clock := &manualClock{}
	obs := &fakeObserver{subscribed: make(chan func(), 1)}
	c := New(discover, obs, clock, Config{}, zerolog.Nop())

	done := make(chan []media.Candidate, 1)
	go func() { done <- c.Run(context.Background(), false) }()

	clock.fire(t, 500*time.Millisecond)
	notify := <-obs.subscribed
	notify()

	// The rescan finds nothing new, so the controller keeps observing.
	waitFor(t, func() bool { return scans.Load() >= 2 })
	select {
	case <-done:
		t.Fatal("settled before any timer fired")
	case <-time.After(50 * time.Millisecond):
	}

	clock.fire(t, 200*time.Millisecond)
	select {
	case got := <-done:
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("controller never settled on grace")
	}
}

func TestRunDeadlineBoundsObservationWallClock(t *testing.T) {
	cfg := Config{
		PrimingDelay:      time.Millisecond,
		PrimingDelayLocal: time.Millisecond,
		RetryDelays:       []time.Duration{time.Millisecond, time.Millisecond},
		GracePeriod:       5 * time.Millisecond,
		Deadline:          30 * time.Millisecond,
	}
	discover := func(context.Context) []media.Candidate { return nil }
	c := New(discover, &spamObserver{}, RealClock(), cfg, zerolog.Nop())

	start := time.Now()
	got := c.Run(context.Background(), false)
	elapsed := time.Since(start)

	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d candidates", len(got))
	}
	if elapsed > time.Second {
		t.Errorf("deadline did not bound convergence: took %v", elapsed)
	}
}

// spamObserver notifies as fast as it can until unsubscribed.
type spamObserver struct{}

func (spamObserver) Subscribe(notify func()) (func(), error) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				notify()
			}
		}
	}()
	return func() { close(done) }, nil
}

func TestRunSubscribeFailureSettlesWithCurrentBest(t *testing.T) {
	discover := func(context.Context) []media.Candidate { return candidates(1) }
	c := New(discover, failingObserver{}, instantClock{}, Config{}, zerolog.Nop())

	got := c.Run(context.Background(), false)
	if len(got) != 1 {
		t.Fatalf("expected the pre-subscription best, got %d candidates", len(got))
	}
	if c.State() != Settled {
		t.Errorf("expected settled state, got %v", c.State())
	}
}

func TestRunScanPanicSettlesCleanly(t *testing.T) {
	discover := func(context.Context) []media.Candidate { panic("extractor bug") }
	c := New(discover, NoopObserver{}, instantClock{}, Config{}, zerolog.Nop())

	got := c.Run(context.Background(), false)
	if len(got) != 0 {
		t.Fatalf("expected empty result after contained panic, got %d", len(got))
	}
	if c.State() != Settled {
		t.Errorf("expected settled state, got %v", c.State())
	}
}

func TestRunContextCancellationSettles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	discover := func(context.Context) []media.Candidate { return candidates(1) }
	c := New(discover, NoopObserver{}, &manualClock{}, Config{}, zerolog.Nop())

	got := c.Run(ctx, false)
	if len(got) != 0 {
		t.Fatalf("expected no candidates when cancelled during priming, got %d", len(got))
	}
	if c.State() != Settled {
		t.Errorf("expected settled state, got %v", c.State())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}
