// Package frame turns a detected preamble event into payload timing.
//
// Sampling a bit near its transition boundary is the dominant cause of
// demodulation errors, so alignment exists to flag that risk before any bit
// recovery is attempted. The package computes where the payload starts, how
// far that start sits inside a bit period, and how severe the resulting
// straddle would be.
package frame

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-framesync/detect"
	"github.com/cwbudde/algo-framesync/dsp/correlate"
	"github.com/cwbudde/algo-framesync/link"
)

// DataStartGuardSamples is the gap between the preamble's last correlated
// sample and the first payload sample. The source link used both 0 and 1 in
// different builds; 1 is the convention adopted here. Kept as a single named
// constant so deployments can tune it empirically.
const DataStartGuardSamples = 1

// alignedToleranceSamples is the absolute alignment error still reported as
// SeverityAligned.
const alignedToleranceSamples = 1

// ErrNegativeOffset is returned when an event lies before the buffer start.
var ErrNegativeOffset = errors.New("frame: event sample offset must not be negative")

// Severity grades the expected demodulation risk of an alignment.
type Severity int

const (
	// SeverityAligned: payload start falls on (or within one sample of) a
	// bit boundary.
	SeverityAligned Severity = iota

	// SeverityMinorOffset: off the boundary but outside the middle half of
	// the bit period.
	SeverityMinorOffset

	// SeveritySevereOffset: payload start falls in the middle half of the
	// bit period, where sampling straddles a bit transition.
	SeveritySevereOffset
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityAligned:
		return "aligned"
	case SeverityMinorOffset:
		return "minor-offset"
	case SeveritySevereOffset:
		return "severe-offset"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Alignment is the deterministic timing derived from one preamble event.
type Alignment struct {
	DataStartSample       int // first payload sample
	OffsetWithinBitPeriod int // DataStartSample mod bit period
	BitPeriodSamples      int
	AlignmentError        int // distance to the nearest bit boundary
	Severity              Severity
}

// Align computes payload timing for a preamble event under the given link
// parameters.
func Align(ev detect.Event, p link.Params) (Alignment, error) {
	if err := p.Validate(); err != nil {
		return Alignment{}, err
	}
	if ev.SampleOffset < 0 {
		return Alignment{}, fmt.Errorf("%w: %d", ErrNegativeOffset, ev.SampleOffset)
	}

	bitPeriod := p.BitPeriodSamples()
	dataStart := ev.SampleOffset + p.PreambleSamples + DataStartGuardSamples
	offset := dataStart % bitPeriod
	alignErr := offset
	if bitPeriod-offset < alignErr {
		alignErr = bitPeriod - offset
	}

	severity := SeverityMinorOffset
	switch {
	case alignErr <= alignedToleranceSamples:
		severity = SeverityAligned
	case 4*offset > bitPeriod && 4*offset < 3*bitPeriod:
		severity = SeveritySevereOffset
	}

	return Alignment{
		DataStartSample:       dataStart,
		OffsetWithinBitPeriod: offset,
		BitPeriodSamples:      bitPeriod,
		AlignmentError:        alignErr,
		Severity:              severity,
	}, nil
}

// Refine re-scores the template in a small neighborhood of an event and
// returns the event moved to the locally best offset. It corrects
// sub-bit-period detection error before Align; searchRadius is in samples.
func Refine(samples, template []float64, ev detect.Event, searchRadius int) (detect.Event, error) {
	if searchRadius < 0 {
		return ev, fmt.Errorf("frame: search radius must not be negative: %d", searchRadius)
	}
	lo := ev.SampleOffset - searchRadius
	if lo < 0 {
		lo = 0
	}
	hi := ev.SampleOffset + searchRadius
	if last := len(samples) - len(template); hi > last {
		hi = last
	}
	if hi < lo {
		return ev, correlate.ErrTemplateTooLong
	}

	scores, err := correlate.Sliding(samples[lo:hi+len(template)], template, correlate.ModeNCC)
	if err != nil {
		return ev, err
	}
	best := ev
	for _, s := range scores {
		if s.Value > best.Score {
			best = detect.Event{SampleOffset: lo + s.Offset, Score: s.Value, Kind: ev.Kind}
		}
	}
	return best, nil
}
