package detect_test

import (
	"fmt"

	"github.com/cwbudde/algo-framesync/detect"
	"github.com/cwbudde/algo-framesync/dsp/correlate"
)

func ExamplePeaks() {
	// Two well separated correlation peaks with some noise around them.
	values := []float64{0.1, 0.2, 0.9, 0.3, 0.1, 0.15, 0.8, 0.2}
	scores := make([]correlate.Score, len(values))
	for i, v := range values {
		scores[i] = correlate.Score{Offset: i, Value: v}
	}

	// 3 ms merge window at 1 kHz keeps the peaks distinct.
	events, _ := detect.Peaks(scores, 0.5, 0.003, 1000)
	for _, ev := range events {
		fmt.Printf("peak at sample %d, score %.2f\n", ev.SampleOffset, ev.Score)
	}

	// Output:
	// peak at sample 2, score 0.90
	// peak at sample 6, score 0.80
}

func ExampleRelaxedThreshold() {
	values := []float64{0.1, 0.2, 0.35, 0.3, 0.1}
	scores := make([]correlate.Score, len(values))
	for i, v := range values {
		scores[i] = correlate.Score{Offset: i, Value: v}
	}

	events, _ := detect.Peaks(scores, 0.5, 0.01, 1000)
	if len(events) == 0 {
		fmt.Printf("nothing above 0.5, retry with %.3f\n", detect.RelaxedThreshold(scores))
	}

	// Output:
	// nothing above 0.5, retry with 0.245
}
