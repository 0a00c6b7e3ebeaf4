package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// EmbedAt returns a buffer of the given length with the template copied in
// at offset and silence everywhere else. Samples that would fall past the
// end are dropped.
func EmbedAt(template []float64, length, offset int) []float64 {
	out := make([]float64, length)
	for i, v := range template {
		pos := offset + i
		if pos >= 0 && pos < length {
			out[pos] = v
		}
	}
	return out
}

// AddInPlace adds src into dst element-wise over the common length.
func AddInPlace(dst, src []float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// Scale returns a copy of the signal multiplied by gain.
func Scale(signal []float64, gain float64) []float64 {
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v * gain
	}
	return out
}

// Bits parses a string of '0'/'1' characters into a bit sequence.
// Any other character panics; this is a test helper, not a parser.
func Bits(s string) []bool {
	out := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			out[i] = true
		default:
			panic("testutil: bit string may only contain '0' and '1'")
		}
	}
	return out
}

// RandomBits generates a deterministic pseudo-random bit sequence.
func RandomBits(seed int64, length int) []bool {
	rng := rand.New(rand.NewSource(seed))
	out := make([]bool, length)
	for i := range out {
		out[i] = rng.Intn(2) == 1
	}
	return out
}
