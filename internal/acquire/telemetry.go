package acquire

import "vidgrab/internal/media"

// Sink receives acquisition telemetry. Implementations must not block;
// the pipeline drops reports rather than stalling on a slow consumer.
type Sink interface {
	Attempt(a media.Attempt)
	Progress(p media.Progress)
}

// NopSink discards all telemetry.
type NopSink struct{}

func (NopSink) Attempt(media.Attempt)   {}
func (NopSink) Progress(media.Progress) {}

// ChanSink forwards telemetry onto buffered channels, dropping when a
// buffer is full.
type ChanSink struct {
	Attempts   chan media.Attempt
	Progresses chan media.Progress
}

// NewChanSink builds a sink with the given buffer depth per channel.
func NewChanSink(depth int) *ChanSink {
	return &ChanSink{
		Attempts:   make(chan media.Attempt, depth),
		Progresses: make(chan media.Progress, depth),
	}
}

func (s *ChanSink) Attempt(a media.Attempt) {
	select {
	case s.Attempts <- a:
	default:
	}
}

func (s *ChanSink) Progress(p media.Progress) {
	select {
	case s.Progresses <- p:
	default:
	}
}
