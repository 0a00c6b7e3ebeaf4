// Package correlate scores a reference template against every offset of a
// sample buffer.
//
// The scorer is the first stage of preamble detection: it turns raw audio
// into a per-offset similarity sequence that the detect package then reduces
// to discrete events.
//
// # Modes
//
//   - ModeNCC: normalized cross-correlation. Each window's dot product is
//     divided by the product of the template and window L2 norms, bounding
//     scores to [-1, 1] and making detection independent of playback and
//     microphone gain.
//   - ModeRawDot: the plain dot product. Faster and useful when the channel
//     gain is controlled, but amplitude-sensitive.
//
// # Back-ends
//
// Sliding is the baseline: one dot product per offset with an incrementally
// maintained window energy, O(N·L) for N samples and template length L.
// SlidingFFT computes all dot products with a single FFT round trip and is
// preferred for long recordings; its scores match Sliding within a relative
// error of 1e-6.
//
// Both functions are pure and safe for concurrent use on disjoint inputs.
package correlate

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by the scorers.
var (
	ErrEmptyInput      = errors.New("correlate: empty sample buffer")
	ErrEmptyTemplate   = errors.New("correlate: empty template")
	ErrTemplateTooLong = errors.New("correlate: template longer than sample buffer")
)

// normEpsilon guards the NCC division on silent windows.
const normEpsilon = 1e-12

// energyRefreshInterval bounds floating-point drift of the running window
// energy: the energy is recomputed from scratch every this many offsets.
const energyRefreshInterval = 4096

// Mode selects the scoring definition.
type Mode int

const (
	// ModeNCC produces normalized cross-correlation scores in [-1, 1].
	ModeNCC Mode = iota

	// ModeRawDot produces unnormalized dot products.
	ModeRawDot
)

// Score is the similarity of the template to one window of the buffer.
// Energy and Dot are the raw ingredients of Value and are kept for
// diagnostic traces regardless of mode.
type Score struct {
	Offset int     // start sample of the window
	Value  float64 // NCC or raw dot product, depending on mode
	Energy float64 // sum of squares of the window
	Dot    float64 // dot product of window and template
}

func validate(samples, template []float64) error {
	if len(samples) == 0 {
		return ErrEmptyInput
	}
	if len(template) == 0 {
		return ErrEmptyTemplate
	}
	if len(template) > len(samples) {
		return fmt.Errorf("%w: %d > %d", ErrTemplateTooLong, len(template), len(samples))
	}
	return nil
}

// Sliding scores the template at every valid offset
// (offset + len(template) <= len(samples)) using direct dot products.
func Sliding(samples, template []float64, mode Mode) ([]Score, error) {
	if err := validate(samples, template); err != nil {
		return nil, err
	}

	l := len(template)
	n := len(samples) - l + 1
	normTemplate := math.Sqrt(floats.Dot(template, template))

	scores := make([]Score, n)
	energy := floats.Dot(samples[:l], samples[:l])
	for off := 0; off < n; off++ {
		if off > 0 {
			if off%energyRefreshInterval == 0 {
				energy = floats.Dot(samples[off:off+l], samples[off:off+l])
			} else {
				energy += samples[off+l-1]*samples[off+l-1] - samples[off-1]*samples[off-1]
			}
		}
		dot := floats.Dot(samples[off:off+l], template)
		scores[off] = finishScore(off, dot, energy, normTemplate, mode)
	}
	return scores, nil
}

// SlidingFFT scores the template at every valid offset using a single
// FFT-based correlation pass for the dot products. Output order and meaning
// are identical to Sliding; values agree within a relative error of 1e-6.
func SlidingFFT(samples, template []float64, mode Mode) ([]Score, error) {
	if err := validate(samples, template); err != nil {
		return nil, err
	}

	l := len(template)
	n := len(samples) - l + 1
	normTemplate := math.Sqrt(floats.Dot(template, template))

	fftSize := nextPowerOf2(len(samples) + l - 1)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("correlate: failed to create FFT plan: %w", err)
	}

	aPadded := make([]complex128, fftSize)
	bPadded := make([]complex128, fftSize)
	for i, v := range samples {
		aPadded[i] = complex(v, 0)
	}
	for i, v := range template {
		bPadded[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	bFreq := make([]complex128, fftSize)
	if err := plan.Forward(aFreq, aPadded); err != nil {
		return nil, fmt.Errorf("correlate: forward FFT failed: %w", err)
	}
	if err := plan.Forward(bFreq, bPadded); err != nil {
		return nil, fmt.Errorf("correlate: forward FFT failed: %w", err)
	}

	// Circular correlation: IFFT(A * conj(B)). With the buffers zero-padded
	// to at least len(samples)+l-1 the first n bins are the linear window
	// dot products.
	prodFreq := make([]complex128, fftSize)
	for i := range prodFreq {
		prodFreq[i] = aFreq[i] * complex(real(bFreq[i]), -imag(bFreq[i]))
	}
	prodTime := make([]complex128, fftSize)
	if err := plan.Inverse(prodTime, prodFreq); err != nil {
		return nil, fmt.Errorf("correlate: inverse FFT failed: %w", err)
	}

	scores := make([]Score, n)
	energy := floats.Dot(samples[:l], samples[:l])
	for off := 0; off < n; off++ {
		if off > 0 {
			if off%energyRefreshInterval == 0 {
				energy = floats.Dot(samples[off:off+l], samples[off:off+l])
			} else {
				energy += samples[off+l-1]*samples[off+l-1] - samples[off-1]*samples[off-1]
			}
		}
		scores[off] = finishScore(off, real(prodTime[off]), energy, normTemplate, mode)
	}
	return scores, nil
}

func finishScore(off int, dot, energy, normTemplate float64, mode Mode) Score {
	s := Score{Offset: off, Energy: energy, Dot: dot}
	switch mode {
	case ModeRawDot:
		s.Value = dot
	default:
		s.Value = dot / (normTemplate*math.Sqrt(math.Max(energy, 0)) + normEpsilon)
	}
	return s
}

// Values extracts the score values in offset order, for callers that only
// need the similarity sequence.
func Values(scores []Score) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s.Value
	}
	return out
}

// nextPowerOf2 returns the smallest power of two >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
