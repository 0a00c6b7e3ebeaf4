package frame

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-framesync/detect"
	"github.com/cwbudde/algo-framesync/dsp/template"
	"github.com/cwbudde/algo-framesync/internal/testutil"
	"github.com/cwbudde/algo-framesync/link"
)

// eventForDataStart builds an event whose alignment lands on
// dataStart = base + rem, with the default link (bit period 44 samples,
// preamble 440, one-sample guard).
func eventForDataStart(rem int) detect.Event {
	// 484 is a bit-period multiple; offset 43 maps to dataStart 484.
	return detect.Event{SampleOffset: 43 + rem, Score: 0.9}
}

func TestAlignSeverity(t *testing.T) {
	p := link.Default() // bit period 44

	tests := []struct {
		name       string
		rem        int // desired dataStart mod bitPeriod
		wantErrVal int
		want       Severity
	}{
		{name: "exact boundary", rem: 0, wantErrVal: 0, want: SeverityAligned},
		{name: "one sample late", rem: 1, wantErrVal: 1, want: SeverityAligned},
		{name: "one sample early", rem: 43, wantErrVal: 1, want: SeverityAligned},
		{name: "minor early side", rem: 4, wantErrVal: 4, want: SeverityMinorOffset},
		{name: "minor late side", rem: 42, wantErrVal: 2, want: SeverityMinorOffset},
		{name: "quarter period", rem: 11, wantErrVal: 11, want: SeverityMinorOffset},
		{name: "just past quarter", rem: 12, wantErrVal: 12, want: SeveritySevereOffset},
		{name: "half period", rem: 22, wantErrVal: 22, want: SeveritySevereOffset},
		{name: "just before three quarters", rem: 32, wantErrVal: 12, want: SeveritySevereOffset},
		{name: "three quarters", rem: 33, wantErrVal: 11, want: SeverityMinorOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Align(eventForDataStart(tt.rem), p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.BitPeriodSamples != 44 {
				t.Fatalf("bit period %d, want 44", a.BitPeriodSamples)
			}
			if a.OffsetWithinBitPeriod != tt.rem {
				t.Fatalf("offset within bit period %d, want %d", a.OffsetWithinBitPeriod, tt.rem)
			}
			if a.AlignmentError != tt.wantErrVal {
				t.Errorf("alignment error %d, want %d", a.AlignmentError, tt.wantErrVal)
			}
			if a.Severity != tt.want {
				t.Errorf("severity %v, want %v", a.Severity, tt.want)
			}
		})
	}
}

func TestAlignDataStart(t *testing.T) {
	p := link.Default()
	a, err := Align(detect.Event{SampleOffset: 1000}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1000 + p.PreambleSamples + DataStartGuardSamples
	if a.DataStartSample != want {
		t.Errorf("data start %d, want %d", a.DataStartSample, want)
	}
}

func TestAlignRoundTrip(t *testing.T) {
	// Constructing an event whose data start is a bit-period multiple must
	// always yield SeverityAligned.
	p := link.Default()
	bitPeriod := p.BitPeriodSamples()
	for k := 12; k < 20; k++ {
		off := k*bitPeriod - p.PreambleSamples - DataStartGuardSamples
		a, err := Align(detect.Event{SampleOffset: off}, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.DataStartSample%bitPeriod != 0 {
			t.Fatalf("k=%d: data start %d not a bit-period multiple", k, a.DataStartSample)
		}
		if a.Severity != SeverityAligned {
			t.Errorf("k=%d: severity %v, want SeverityAligned", k, a.Severity)
		}
	}
}

func TestAlignValidation(t *testing.T) {
	if _, err := Align(detect.Event{SampleOffset: -1}, link.Default()); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("got %v, want ErrNegativeOffset", err)
	}
	if _, err := Align(detect.Event{}, link.Params{}); err == nil {
		t.Error("expected error for invalid link params")
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityAligned.String() != "aligned" {
		t.Errorf("got %q", SeverityAligned.String())
	}
	if SeveritySevereOffset.String() != "severe-offset" {
		t.Errorf("got %q", SeveritySevereOffset.String())
	}
}

func TestRefineFindsTrueOffset(t *testing.T) {
	tpl, err := template.Chirp{StartFreq: 1000, EndFreq: 5000, SampleRate: 44100, Samples: 440}.Generate()
	if err != nil {
		t.Fatalf("failed to generate template: %v", err)
	}
	samples := testutil.EmbedAt(tpl, 4000, 1000)

	// Detection came in five samples early.
	ev := detect.Event{SampleOffset: 995, Score: 0.2}
	refined, err := Refine(samples, tpl, ev, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refined.SampleOffset != 1000 {
		t.Errorf("refined offset %d, want 1000", refined.SampleOffset)
	}
	if math.Abs(refined.Score-1.0) > 1e-9 {
		t.Errorf("refined score %v, want ~1.0", refined.Score)
	}
}

func TestRefineKeepsBetterOriginal(t *testing.T) {
	tpl, err := template.Chirp{StartFreq: 1000, EndFreq: 5000, SampleRate: 44100, Samples: 440}.Generate()
	if err != nil {
		t.Fatalf("failed to generate template: %v", err)
	}
	samples := make([]float64, 2000)

	// Silence everywhere: nothing in the neighborhood beats the event's
	// recorded score.
	ev := detect.Event{SampleOffset: 700, Score: 0.5}
	refined, err := Refine(samples, tpl, ev, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refined != ev {
		t.Errorf("refined %+v, want unchanged event", refined)
	}
}

func TestRefineNegativeRadius(t *testing.T) {
	if _, err := Refine(make([]float64, 100), make([]float64, 10), detect.Event{}, -1); err == nil {
		t.Error("expected error for negative radius")
	}
}
