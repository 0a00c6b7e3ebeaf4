// Package diag compares a recovered bit sequence against ground truth and
// classifies the error pattern.
//
// The classifier is an advisory heuristic, not a certified root-cause
// oracle: early-concentrated errors suggest a frame-start offset,
// late-concentrated errors suggest clock drift, periodic errors suggest a
// systematic per-N-bits offset, and bursts suggest interference or dropout.
// All partition boundaries and windows are named, overridable options.
package diag

import (
	"gonum.org/v1/gonum/stat"
)

// Pattern classifies the spatial distribution of bit errors.
type Pattern int

const (
	// PatternNone: the sequences match over the compared length.
	PatternNone Pattern = iota

	// PatternEarlyConcentration: most errors in the first partition;
	// typical cause is a frame-start offset.
	PatternEarlyConcentration

	// PatternLateConcentration: most errors in the last partition; typical
	// cause is clock drift or a sample-rate mismatch.
	PatternLateConcentration

	// PatternPeriodic: near-constant gaps between errors; typical cause is
	// a systematic offset every N bits.
	PatternPeriodic

	// PatternBurst: errors clustered in short windows; typical cause is
	// interference or signal dropout.
	PatternBurst

	// PatternDistributed: errors spread without structure; typical cause is
	// noise or low SNR.
	PatternDistributed
)

// String returns the pattern name.
func (p Pattern) String() string {
	switch p {
	case PatternNone:
		return "none"
	case PatternEarlyConcentration:
		return "early-concentration"
	case PatternLateConcentration:
		return "late-concentration"
	case PatternPeriodic:
		return "periodic"
	case PatternBurst:
		return "burst"
	case PatternDistributed:
		return "distributed"
	default:
		return "unknown"
	}
}

// Report is the terminal artifact of one comparison.
type Report struct {
	TotalBits      int     // compared length (common prefix)
	ErrorPositions []int   // ascending indices where the sequences differ
	BitErrorRate   float64 // len(ErrorPositions) / TotalBits
	Pattern        Pattern
	LengthMismatch bool // sequences differed in length before truncation
	ExpectedBits   int  // original length of expected
	ActualBits     int  // original length of actual
}

// Classifier thresholds. Defaults come from the link's field-diagnosis
// practice; whether the partitions should scale with bit rate instead of
// being fixed fractions is an open tuning question.
type config struct {
	earlyFraction      float64 // first partition, fraction of total bits
	lateFraction       float64 // last partition, fraction of total bits
	concentrationRatio float64 // fraction of errors that marks a concentration
	periodicGapSpread  float64 // gap stddev / mean below this is periodic
	burstWindowBits    int     // window for burst scanning
	burstMinErrors     int     // errors within the window that make a burst
	minPatternErrors   int     // fewer errors than this is always distributed
}

func defaultConfig() config {
	return config{
		earlyFraction:      0.2,
		lateFraction:       0.2,
		concentrationRatio: 0.5,
		periodicGapSpread:  0.3,
		burstWindowBits:    10,
		burstMinErrors:     3,
		minPatternErrors:   2,
	}
}

// Option overrides a classifier threshold.
type Option func(*config)

// WithPartitions sets the early and late partition fractions.
func WithPartitions(early, late float64) Option {
	return func(c *config) {
		if early > 0 && late > 0 && early+late < 1 {
			c.earlyFraction = early
			c.lateFraction = late
		}
	}
}

// WithConcentrationRatio sets the error fraction that marks a concentration.
func WithConcentrationRatio(ratio float64) Option {
	return func(c *config) {
		if ratio > 0 && ratio < 1 {
			c.concentrationRatio = ratio
		}
	}
}

// WithPeriodicGapSpread sets the relative gap spread below which errors are
// classified as periodic.
func WithPeriodicGapSpread(spread float64) Option {
	return func(c *config) {
		if spread > 0 {
			c.periodicGapSpread = spread
		}
	}
}

// WithBurstWindow sets the burst scan window and the error count within it
// that constitutes a burst.
func WithBurstWindow(windowBits, minErrors int) Option {
	return func(c *config) {
		if windowBits > 0 && minErrors > 1 {
			c.burstWindowBits = windowBits
			c.burstMinErrors = minErrors
		}
	}
}

// Compare diagnoses actual against expected.
//
// The sequences are truncated to the shorter length and the mismatch is
// flagged in the report rather than treated as fatal. Compare is total: any
// two inputs yield a report.
func Compare(expected, actual []bool, opts ...Option) Report {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := min(len(expected), len(actual))
	report := Report{
		TotalBits:      n,
		LengthMismatch: len(expected) != len(actual),
		ExpectedBits:   len(expected),
		ActualBits:     len(actual),
	}

	for i := 0; i < n; i++ {
		if expected[i] != actual[i] {
			report.ErrorPositions = append(report.ErrorPositions, i)
		}
	}
	if n > 0 {
		report.BitErrorRate = float64(len(report.ErrorPositions)) / float64(n)
	}
	report.Pattern = classify(report.ErrorPositions, n, cfg)
	return report
}

func classify(errorPositions []int, totalBits int, cfg config) Pattern {
	count := len(errorPositions)
	if count == 0 {
		return PatternNone
	}
	if count < cfg.minPatternErrors {
		// A lone error carries no spatial structure.
		return PatternDistributed
	}

	earlyLimit := int(float64(totalBits) * cfg.earlyFraction)
	lateLimit := int(float64(totalBits) * (1 - cfg.lateFraction))
	var early, late int
	for _, pos := range errorPositions {
		if pos < earlyLimit {
			early++
		}
		if pos >= lateLimit {
			late++
		}
	}
	if float64(early) > float64(count)*cfg.concentrationRatio {
		return PatternEarlyConcentration
	}
	if float64(late) > float64(count)*cfg.concentrationRatio {
		return PatternLateConcentration
	}

	gaps := make([]float64, count-1)
	for i := 1; i < count; i++ {
		gaps[i-1] = float64(errorPositions[i] - errorPositions[i-1])
	}
	if len(gaps) > 0 {
		mean := stat.Mean(gaps, nil)
		spread := stat.StdDev(gaps, nil)
		if mean > 0 && spread < cfg.periodicGapSpread*mean {
			return PatternPeriodic
		}
	}

	if hasBurst(errorPositions, cfg.burstWindowBits, cfg.burstMinErrors) {
		return PatternBurst
	}
	return PatternDistributed
}

// hasBurst reports whether any window of windowBits consecutive bit
// positions contains at least minErrors errors.
func hasBurst(errorPositions []int, windowBits, minErrors int) bool {
	lo := 0
	for hi := range errorPositions {
		for errorPositions[hi]-errorPositions[lo] > windowBits {
			lo++
		}
		if hi-lo+1 >= minErrors {
			return true
		}
	}
	return false
}
