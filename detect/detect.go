// Package detect reduces a correlation score sequence to discrete preamble
// events.
//
// A candidate is a strict local maximum above the detection threshold.
// Candidates closer together than the merge window are collapsed to the
// single best one, so each physical preamble occurrence yields at most one
// event. Zero events is a valid outcome, not an error; callers should
// surface RelaxedThreshold as a tuning hint when it happens.
package detect

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-framesync/dsp/correlate"
)

// Errors returned by peak selection.
var (
	ErrInvalidSampleRate  = errors.New("detect: sample rate must be positive")
	ErrInvalidMergeWindow = errors.New("detect: merge window must not be negative")
	ErrGateLengthMismatch = errors.New("detect: power gate length differs from score length")
)

// Kind records which detection criterion produced an event.
type Kind int

const (
	// KindNCC marks an event selected on the correlation score alone.
	KindNCC Kind = iota

	// KindEnergyGated marks an event that additionally passed the
	// signal-power gate.
	KindEnergyGated
)

// Event is one detected preamble occurrence.
type Event struct {
	SampleOffset int     // offset of the correlation window start
	Score        float64 // score at the peak
	Kind         Kind
}

type config struct {
	gatePowers []float64
	gateFactor float64
}

// Option configures peak selection.
type Option func(*config)

// WithEnergyGate requires each candidate's score to exceed factor times the
// running signal power at its offset, and marks resulting events
// KindEnergyGated. powers must have one entry per score. The gate suppresses
// spurious correlation peaks inside loud non-preamble audio.
func WithEnergyGate(powers []float64, factor float64) Option {
	return func(c *config) {
		c.gatePowers = powers
		c.gateFactor = factor
	}
}

// cluster tracks the representative of the candidate group currently being
// accumulated. Merging is greedy and left-to-right: a new candidate joins
// while it lies within the merge window of the representative (not of the
// previous raw candidate), and replaces it only on a strictly higher score.
type cluster struct {
	rep Event
}

func (c *cluster) absorb(ev Event) {
	if ev.Score > c.rep.Score {
		c.rep = ev
	}
}

// Peaks selects preamble events from scores.
//
// The returned events are time-ordered and no two of them are closer than
// mergeWindowSec. An empty result with a nil error means no score qualified.
func Peaks(scores []correlate.Score, threshold, mergeWindowSec, sampleRate float64, opts ...Option) ([]Event, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if mergeWindowSec < 0 {
		return nil, ErrInvalidMergeWindow
	}
	cfg := config{gateFactor: 2}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.gatePowers != nil && len(cfg.gatePowers) != len(scores) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrGateLengthMismatch, len(cfg.gatePowers), len(scores))
	}

	kind := KindNCC
	if cfg.gatePowers != nil {
		kind = KindEnergyGated
	}

	var events []Event
	var current *cluster

	// Boundary indices never qualify: a strict local maximum needs both
	// neighbors.
	for i := 1; i < len(scores)-1; i++ {
		s := scores[i]
		if s.Value <= threshold {
			continue
		}
		if !(s.Value > scores[i-1].Value && s.Value > scores[i+1].Value) {
			continue
		}
		if cfg.gatePowers != nil && s.Value <= cfg.gateFactor*cfg.gatePowers[i] {
			continue
		}

		ev := Event{SampleOffset: s.Offset, Score: s.Value, Kind: kind}
		if current == nil {
			current = &cluster{rep: ev}
			continue
		}
		sep := float64(ev.SampleOffset-current.rep.SampleOffset) / sampleRate
		if sep < mergeWindowSec {
			current.absorb(ev)
		} else {
			events = append(events, current.rep)
			current = &cluster{rep: ev}
		}
	}
	if current != nil {
		events = append(events, current.rep)
	}
	return events, nil
}

// RelaxedThreshold returns the threshold a caller should suggest after an
// empty detection pass: 70 % of the highest observed score. Returns 0 for
// an empty score sequence.
func RelaxedThreshold(scores []correlate.Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	max := scores[0].Value
	for _, s := range scores[1:] {
		if s.Value > max {
			max = s.Value
		}
	}
	return 0.7 * max
}
