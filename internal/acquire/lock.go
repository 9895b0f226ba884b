package acquire

import (
	"errors"
	"sync"
	"time"
)

// ErrDuplicateInFlight rejects a second acquisition of an identity whose
// first acquisition has not finished.
var ErrDuplicateInFlight = errors.New("acquisition already in flight for this item")

// ErrExhausted reports that every recovery method in the chain failed.
var ErrExhausted = errors.New("every recovery method failed")

// inflightLock serializes acquisitions per identity key. A fallback timer
// clears entries whose release path never ran, so one wedged attempt
// cannot block an identity forever.
type inflightLock struct {
	mu       sync.Mutex
	held     map[string]*time.Timer
	fallback time.Duration
}

func newInflightLock(fallback time.Duration) *inflightLock {
	return &inflightLock{
		held:     make(map[string]*time.Timer),
		fallback: fallback,
	}
}

// acquire takes the lock for key, or reports ErrDuplicateInFlight.
func (l *inflightLock) acquire(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return ErrDuplicateInFlight
	}
	l.held[key] = time.AfterFunc(l.fallback, func() { l.release(key) })
	return nil
}

// release frees the lock for key. Safe to call more than once.
func (l *inflightLock) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if timer, ok := l.held[key]; ok {
		timer.Stop()
		delete(l.held, key)
	}
}

func (l *inflightLock) holds(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}
