// Package media defines the shared types for the vidgrab application.
package media

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// OriginClass classifies how a candidate was discovered and drives
// acquisition strategy selection.
type OriginClass int

const (
	// DirectFile is a fetchable network address ending in a media extension.
	DirectFile OriginClass = iota
	// PlatformEmbed is a known hosting platform's embedded player; bytes are
	// not acquired directly, the caller navigates to the watch address.
	PlatformEmbed
	// Ephemeral is an in-memory handle (blob:/data:) bound to the page's
	// origin; it may expire at any time and cannot be fetched out-of-band.
	Ephemeral
	// NetworkInferred was mined from the resource-timing log or script text
	// rather than from any element in the document tree.
	NetworkInferred
)

func (o OriginClass) String() string {
	switch o {
	case DirectFile:
		return "direct-file"
	case PlatformEmbed:
		return "platform-embed"
	case Ephemeral:
		return "ephemeral"
	case NetworkInferred:
		return "network-inferred"
	default:
		return "unknown"
	}
}

// SizeUnknown is the label used whenever the size probe is skipped or fails.
const SizeUnknown = "unknown"

// Candidate is one discovered media reference.
type Candidate struct {
	IdentityKey     string // Stable dedup key, assigned by the resolver
	SourceAddress   string // Best known address: file URL, watch page, or handle
	EphemeralHandle string // blob:/data: handle when the source is in-memory
	Title           string // Best-effort label from nearby markup
	AltText         string // Secondary label, when distinct from Title
	Width           int
	Height          int
	DurationSeconds float64
	PosterAddress   string
	Extension       string // Derived from the address path, "mp4" default
	Filename        string // Suggested download filename
	Origin          OriginClass
	Platform        string // Platform name for PlatformEmbed candidates
	PlatformID      string // Platform-native video id
	SizeBytes       int64  // 0 when unknown
	SizeLabel       string // Humanized size, or SizeUnknown
	Hunted          bool   // Found via network-history mining
}

// IsEphemeral reports whether the candidate is backed by an in-memory handle.
func (c *Candidate) IsEphemeral() bool {
	return c.Origin == Ephemeral
}

// SetSize fills both the byte count and the humanized label.
func (c *Candidate) SetSize(bytes int64) {
	c.SizeBytes = bytes
	if bytes > 0 {
		c.SizeLabel = humanize.Bytes(uint64(bytes))
	} else {
		c.SizeLabel = SizeUnknown
	}
}

// Outcome is the result of a single acquisition method.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeInconclusive
	OutcomeFailed
	OutcomeSucceeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInconclusive:
		return "inconclusive"
	case OutcomeFailed:
		return "failed"
	case OutcomeSucceeded:
		return "succeeded"
	default:
		return "skipped"
	}
}

// MethodResult records one method's attempt within an acquisition.
type MethodResult struct {
	Method     string
	Outcome    Outcome
	Reason     string // Failure reason, empty on success
	Undersized bool   // Payload came back below the plausibility floor
}

// Attempt is the transient record of one acquisition run. It is logged to
// the journal but never persisted by the core pipeline itself.
type Attempt struct {
	IdentityKey string
	RequestID   string
	Methods     []MethodResult
	PayloadSize int64
	PayloadType string
	ElapsedMS   int64
	Succeeded   bool
	FinalError  string
}

// Progress is one telemetry notification emitted during live capture.
type Progress struct {
	RequestID string
	Percent   int
	SizeBytes int64
}

// FormatDuration renders seconds as H:MM:SS or M:SS. Returns "unknown" for
// zero or negative input.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return SizeUnknown
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
