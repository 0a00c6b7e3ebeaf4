// Package link holds the timing constants of an acoustic data link.
//
// The constants are fixed per deployment and supplied by the caller; nothing
// in this module ever infers them from recorded audio.
package link

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by link parameter validation.
var (
	ErrInvalidSampleRate = errors.New("link: sample rate must be positive")
	ErrInvalidBitRate    = errors.New("link: bit rate must be positive")
	ErrBitRateTooHigh    = errors.New("link: bit rate must not exceed sample rate")
)

// Params describes the fixed timing of one link deployment.
type Params struct {
	SampleRate      float64 // audio sample rate in Hz
	BitRate         float64 // payload bit rate in bits/s
	PreambleSamples int     // preamble template length in samples
}

// Default returns the reference deployment: 44.1 kHz audio, 1000 bit/s,
// 440-sample chirp preamble.
func Default() Params {
	return Params{
		SampleRate:      44100,
		BitRate:         1000,
		PreambleSamples: 440,
	}
}

// Validate checks that the parameters describe a usable link.
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if p.BitRate <= 0 {
		return ErrInvalidBitRate
	}
	if p.BitRate > p.SampleRate {
		return ErrBitRateTooHigh
	}
	if p.PreambleSamples <= 0 {
		return fmt.Errorf("link: preamble length must be > 0: %d", p.PreambleSamples)
	}
	return nil
}

// BitPeriodSamples returns the number of samples spanning one bit,
// rounded to the nearest integer.
func (p Params) BitPeriodSamples() int {
	return int(math.Round(p.SampleRate / p.BitRate))
}

// SamplesToSeconds converts a sample count to seconds.
func (p Params) SamplesToSeconds(samples int) float64 {
	return float64(samples) / p.SampleRate
}

// SecondsToSamples converts a duration in seconds to a sample count,
// rounded to the nearest integer.
func (p Params) SecondsToSamples(seconds float64) int {
	return int(math.Round(seconds * p.SampleRate))
}
