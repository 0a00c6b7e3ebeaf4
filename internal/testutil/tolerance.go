package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxRelativeError returns the largest element-wise relative error between
// two slices, using the larger magnitude as the reference. Pairs where both
// values are below floor are skipped to avoid amplifying noise around zero.
// Returns an error if the slices differ in length.
func MaxRelativeError(a, b []float64, floor float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxErr := 0.0
	for i := range a {
		ref := math.Max(math.Abs(a[i]), math.Abs(b[i]))
		if ref < floor {
			continue
		}
		rel := math.Abs(a[i]-b[i]) / ref
		if rel > maxErr {
			maxErr = rel
		}
	}
	return maxErr, nil
}
