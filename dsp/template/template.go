// Package template generates the reference waveforms used for preamble
// detection.
//
// A template is a short, process-wide constant signal that the receiver
// slides across recorded audio. The link's preamble is a symmetric up-down
// linear chirp; a logarithmic sweep and a dual-tone burst are provided as
// alternatives for deployments with different acoustic channels.
//
// Templates are plain []float64 slices. They must not be mutated after
// construction; nothing in this module writes to a generated template.
package template

import (
	"errors"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by template generation.
var (
	ErrInvalidFrequency  = errors.New("template: frequency must be positive")
	ErrInvalidSampleRate = errors.New("template: sample rate must be positive")
	ErrInvalidLength     = errors.New("template: length must be positive")
	ErrFrequencyOrder    = errors.New("template: start frequency must be less than end frequency")
)

// Chirp describes a symmetric up-down linear chirp: the instantaneous
// frequency ramps from StartFreq to EndFreq over the first half of the
// template and back down over the second half. The symmetry gives the
// autocorrelation a single sharp peak, which is what makes the waveform a
// good sync marker.
type Chirp struct {
	StartFreq  float64 // ramp start in Hz
	EndFreq    float64 // ramp peak in Hz
	SampleRate float64 // sample rate in Hz
	Samples    int     // template length in samples
}

// Validate checks that the chirp parameters are valid.
func (c Chirp) Validate() error {
	if c.StartFreq <= 0 || c.EndFreq <= 0 {
		return ErrInvalidFrequency
	}
	if c.StartFreq >= c.EndFreq {
		return ErrFrequencyOrder
	}
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if c.Samples <= 0 {
		return ErrInvalidLength
	}
	return nil
}

// Generate creates the chirp waveform.
//
// The frequency profile is integrated with the trapezoidal rule to obtain
// the phase, so the waveform is continuous in both amplitude and frequency
// at the turn-around point.
func (c Chirp) Generate() ([]float64, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n := c.Samples
	half := n / 2
	freq := make([]float64, n)
	for i := 0; i < half; i++ {
		f := c.StartFreq + (c.EndFreq-c.StartFreq)*float64(i)/float64(half)
		freq[i] = f
		freq[n-1-i] = f
	}
	if n%2 == 1 {
		freq[half] = c.EndFreq
	}

	dt := 1.0 / c.SampleRate
	out := make([]float64, n)
	phase := 0.0
	out[0] = 0
	for i := 1; i < n; i++ {
		phase += 0.5 * (freq[i] + freq[i-1]) * 2 * math.Pi * dt
		out[i] = math.Sin(phase)
	}
	return out, nil
}

// LogSweep describes a logarithmic sine sweep. Each octave takes the same
// amount of time, so the per-octave energy is flat across the band.
type LogSweep struct {
	StartFreq  float64 // start frequency in Hz
	EndFreq    float64 // end frequency in Hz
	SampleRate float64 // sample rate in Hz
	Samples    int     // template length in samples
}

// Validate checks that the sweep parameters are valid.
func (s LogSweep) Validate() error {
	if s.StartFreq <= 0 || s.EndFreq <= 0 {
		return ErrInvalidFrequency
	}
	if s.StartFreq >= s.EndFreq {
		return ErrFrequencyOrder
	}
	if s.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if s.Samples <= 0 {
		return ErrInvalidLength
	}
	return nil
}

// Generate creates the logarithmic sweep.
//
// The instantaneous frequency increases exponentially from StartFreq to
// EndFreq:
//
//	f(t) = f1 * exp(t/T * ln(f2/f1))
//
// The phase integral gives:
//
//	x(t) = sin(2π * f1 * T / ln(f2/f1) * (exp(t/T * ln(f2/f1)) - 1))
func (s LogSweep) Generate() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	n := s.Samples
	T := float64(n) / s.SampleRate
	lnRatio := math.Log(s.EndFreq / s.StartFreq)

	out := make([]float64, n)
	for i := range out {
		t := float64(i) / s.SampleRate
		phase := 2 * math.Pi * s.StartFreq * T / lnRatio * (math.Exp(t/T*lnRatio) - 1)
		out[i] = math.Sin(phase)
	}
	return out, nil
}

// DualTone describes a two-tone burst, the simplest usable sync marker for
// narrowband channels where a wide chirp would be filtered away.
type DualTone struct {
	FreqA      float64 // first tone in Hz
	FreqB      float64 // second tone in Hz
	SampleRate float64 // sample rate in Hz
	Samples    int     // template length in samples
}

// Validate checks that the burst parameters are valid.
func (d DualTone) Validate() error {
	if d.FreqA <= 0 || d.FreqB <= 0 {
		return ErrInvalidFrequency
	}
	if d.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if d.Samples <= 0 {
		return ErrInvalidLength
	}
	return nil
}

// Generate creates the burst as the normalized sum of the two tones.
func (d DualTone) Generate() ([]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	stepA := 2 * math.Pi * d.FreqA / d.SampleRate
	stepB := 2 * math.Pi * d.FreqB / d.SampleRate
	out := make([]float64, d.Samples)
	for i := range out {
		out[i] = 0.5 * (math.Sin(stepA*float64(i)) + math.Sin(stepB*float64(i)))
	}
	return out, nil
}

// Taper applies a Hann taper in place. Tapering the template edges reduces
// correlation sidelobes from the abrupt on/off transitions at the cost of a
// slightly wider main peak.
func Taper(samples []float64) {
	n := len(samples)
	if n < 2 {
		return
	}
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	vecmath.MulBlockInPlace(samples, coeffs)
}
