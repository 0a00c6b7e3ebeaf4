package diag_test

import (
	"fmt"

	"github.com/cwbudde/algo-framesync/diag"
)

func ExampleCompare() {
	expected := make([]bool, 100)
	actual := make([]bool, 100)
	copy(actual, expected)

	// Corrupt a cluster of bits near the start of the sequence.
	for _, pos := range []int{1, 5, 9, 13} {
		actual[pos] = !actual[pos]
	}

	r := diag.Compare(expected, actual)
	fmt.Printf("errors: %d of %d\n", len(r.ErrorPositions), r.TotalBits)
	fmt.Printf("bit error rate: %.2f\n", r.BitErrorRate)
	fmt.Printf("pattern: %s\n", r.Pattern)

	// Output:
	// errors: 4 of 100
	// bit error rate: 0.04
	// pattern: early-concentration
}
