package diag

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-framesync/internal/testutil"
)

// flips returns a copy of bits with the given positions inverted.
func flips(bits []bool, positions ...int) []bool {
	out := append([]bool(nil), bits...)
	for _, p := range positions {
		out[p] = !out[p]
	}
	return out
}

func alternating(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = i%2 == 1
	}
	return out
}

func TestComparePerfectMatch(t *testing.T) {
	bits := testutil.RandomBits(1, 500)
	r := Compare(bits, bits)
	if r.Pattern != PatternNone {
		t.Errorf("pattern %v, want PatternNone", r.Pattern)
	}
	if r.BitErrorRate != 0 || len(r.ErrorPositions) != 0 {
		t.Errorf("clean comparison reported errors: %+v", r)
	}
	if r.LengthMismatch {
		t.Error("equal-length inputs flagged as mismatch")
	}
}

func TestCompareSingleFlippedBit(t *testing.T) {
	// A lone isolated error: no concentration, no periodicity, no burst.
	expected := alternating(100)
	actual := flips(expected, 3)

	r := Compare(expected, actual)
	if len(r.ErrorPositions) != 1 || r.ErrorPositions[0] != 3 {
		t.Fatalf("error positions %v, want [3]", r.ErrorPositions)
	}
	if math.Abs(r.BitErrorRate-0.01) > 1e-12 {
		t.Errorf("BER %v, want 0.01", r.BitErrorRate)
	}
	if r.Pattern != PatternDistributed {
		t.Errorf("pattern %v, want PatternDistributed", r.Pattern)
	}
}

func TestCompareEarlyConcentration(t *testing.T) {
	expected := testutil.RandomBits(2, 100)
	actual := flips(expected, 1, 5, 9, 13)

	r := Compare(expected, actual)
	if r.Pattern != PatternEarlyConcentration {
		t.Errorf("pattern %v, want PatternEarlyConcentration", r.Pattern)
	}
}

func TestCompareLateConcentration(t *testing.T) {
	expected := testutil.RandomBits(3, 100)
	actual := flips(expected, 85, 90, 95, 99)

	r := Compare(expected, actual)
	if r.Pattern != PatternLateConcentration {
		t.Errorf("pattern %v, want PatternLateConcentration", r.Pattern)
	}
}

func TestCompareLateBoundaryOddLength(t *testing.T) {
	// For 99 bits the late region starts at int(99*0.8) = 79, so an error
	// exactly on the boundary counts as late.
	expected := testutil.RandomBits(7, 99)
	actual := flips(expected, 79, 90)

	r := Compare(expected, actual)
	if r.Pattern != PatternLateConcentration {
		t.Errorf("pattern %v, want PatternLateConcentration", r.Pattern)
	}
}

func TestComparePeriodic(t *testing.T) {
	expected := testutil.RandomBits(4, 100)
	actual := flips(expected, 25, 35, 45, 55, 65, 75)

	r := Compare(expected, actual)
	if r.Pattern != PatternPeriodic {
		t.Errorf("pattern %v, want PatternPeriodic", r.Pattern)
	}
}

func TestCompareBurst(t *testing.T) {
	expected := testutil.RandomBits(5, 200)
	actual := flips(expected, 80, 81, 84)

	r := Compare(expected, actual)
	if r.Pattern != PatternBurst {
		t.Errorf("pattern %v, want PatternBurst", r.Pattern)
	}
}

func TestCompareDistributed(t *testing.T) {
	expected := testutil.RandomBits(6, 200)
	actual := flips(expected, 30, 50, 150)

	r := Compare(expected, actual)
	if r.Pattern != PatternDistributed {
		t.Errorf("pattern %v, want PatternDistributed", r.Pattern)
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	expected := testutil.RandomBits(7, 120)
	actual := append([]bool(nil), expected[:100]...)

	r := Compare(expected, actual)
	if !r.LengthMismatch {
		t.Fatal("length mismatch not flagged")
	}
	if r.TotalBits != 100 {
		t.Errorf("total bits %d, want truncated 100", r.TotalBits)
	}
	if r.ExpectedBits != 120 || r.ActualBits != 100 {
		t.Errorf("lengths %d/%d, want 120/100", r.ExpectedBits, r.ActualBits)
	}
	if r.Pattern != PatternNone {
		t.Errorf("pattern %v, want PatternNone over the common prefix", r.Pattern)
	}
}

func TestCompareEmptyInputs(t *testing.T) {
	r := Compare(nil, nil)
	if r.TotalBits != 0 || r.BitErrorRate != 0 || r.Pattern != PatternNone {
		t.Errorf("empty comparison: %+v", r)
	}
}

func TestCompareIsTotal(t *testing.T) {
	// Any pair of inputs must yield a classification.
	cases := [][2][]bool{
		{nil, testutil.RandomBits(8, 10)},
		{testutil.RandomBits(8, 10), nil},
		{testutil.RandomBits(9, 5000), testutil.RandomBits(10, 5000)},
	}
	for i, c := range cases {
		r := Compare(c[0], c[1])
		if r.Pattern.String() == "unknown" {
			t.Errorf("case %d: unclassified report %+v", i, r)
		}
	}
}

func TestCompareBurstWindowOption(t *testing.T) {
	expected := testutil.RandomBits(11, 400)
	// Three irregularly spaced errors over 38 bits: a burst only under a
	// widened window.
	actual := flips(expected, 100, 110, 138)

	r := Compare(expected, actual)
	if r.Pattern == PatternBurst {
		t.Fatalf("default window should not flag a 38-bit spread as burst")
	}
	r = Compare(expected, actual, WithBurstWindow(40, 3))
	if r.Pattern != PatternBurst {
		t.Errorf("pattern %v, want PatternBurst under 40-bit window", r.Pattern)
	}
}

func TestComparePartitionOption(t *testing.T) {
	expected := testutil.RandomBits(12, 100)
	// Errors at 25..31: outside the default 20% early partition, inside a
	// widened 40% one.
	actual := flips(expected, 25, 27, 29, 31)

	r := Compare(expected, actual, WithPartitions(0.4, 0.2))
	if r.Pattern != PatternEarlyConcentration {
		t.Errorf("pattern %v, want PatternEarlyConcentration with widened partition", r.Pattern)
	}
}

func TestPatternString(t *testing.T) {
	if PatternEarlyConcentration.String() != "early-concentration" {
		t.Errorf("got %q", PatternEarlyConcentration.String())
	}
	if Pattern(99).String() != "unknown" {
		t.Errorf("got %q", Pattern(99).String())
	}
}
