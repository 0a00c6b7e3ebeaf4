// Command linkdiag runs the acoustic-link detection and integrity stages
// over recorded artifacts.
//
// Usage:
//
//	linkdiag [flags] detect
//	linkdiag [flags] verify
//	linkdiag [flags] compare
//
// detect scores a recording (or loads a precomputed trace), selects
// preamble peaks and prints their frame alignment. verify checks the CRC
// trailer of a recovered frame. compare diagnoses a recovered bit sequence
// against ground truth.
//
// Examples:
//
//	linkdiag -samples recording.csv -out ncc.csv detect
//	linkdiag -trace ncc.csv -threshold 0.5 detect
//	linkdiag -frame frame.txt verify
//	linkdiag -expected input.txt -actual output.txt compare
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-framesync/crc8"
	"github.com/cwbudde/algo-framesync/detect"
	"github.com/cwbudde/algo-framesync/diag"
	"github.com/cwbudde/algo-framesync/dsp/correlate"
	"github.com/cwbudde/algo-framesync/dsp/template"
	"github.com/cwbudde/algo-framesync/frame"
	"github.com/cwbudde/algo-framesync/link"
	"github.com/cwbudde/algo-framesync/trace"
)

// profile is the YAML deployment profile. Zero values fall back to the
// reference link.
type profile struct {
	SampleRate      float64 `yaml:"sample_rate"`
	BitRate         float64 `yaml:"bit_rate"`
	PreambleSamples int     `yaml:"preamble_samples"`
	ChirpStartFreq  float64 `yaml:"chirp_start_freq"`
	ChirpEndFreq    float64 `yaml:"chirp_end_freq"`
	Threshold       float64 `yaml:"threshold"`
	MergeWindowSec  float64 `yaml:"merge_window_sec"`
	CRCPoly         int     `yaml:"crc_poly"`
}

func defaultProfile() profile {
	p := link.Default()
	return profile{
		SampleRate:      p.SampleRate,
		BitRate:         p.BitRate,
		PreambleSamples: p.PreambleSamples,
		ChirpStartFreq:  1000,
		ChirpEndFreq:    5000,
		Threshold:       0.4,
		MergeWindowSec:  0.1,
		CRCPoly:         int(crc8.DefaultPoly),
	}
}

func loadProfile(path string) (profile, error) {
	p := defaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

func (p profile) link() link.Params {
	return link.Params{
		SampleRate:      p.SampleRate,
		BitRate:         p.BitRate,
		PreambleSamples: p.PreambleSamples,
	}
}

func main() {
	configPath := flag.String("config", "", "YAML link profile")
	samplesPath := flag.String("samples", "", "recorded sample buffer (CSV or whitespace)")
	tracePath := flag.String("trace", "", "precomputed correlation trace")
	outPath := flag.String("out", "", "write the correlation trace here (detect with -samples)")
	framePath := flag.String("frame", "", "recovered frame bit file, payload plus CRC trailer")
	expectedPath := flag.String("expected", "", "ground-truth bit file")
	actualPath := flag.String("actual", "", "recovered bit file")
	threshold := flag.Float64("threshold", 0, "detection threshold (overrides profile)")
	useFFT := flag.Bool("fft", false, "use the FFT correlation back-end")
	rawDot := flag.Bool("rawdot", false, "score with raw dot products instead of NCC")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: linkdiag [flags] detect|verify|compare\n\n")
		fmt.Fprintf(os.Stderr, "Runs the acoustic-link detection and integrity stages over recorded artifacts.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	prof, err := loadProfile(*configPath)
	if err != nil {
		fatal(err)
	}
	if *threshold != 0 {
		prof.Threshold = *threshold
	}

	switch flag.Arg(0) {
	case "detect":
		err = runDetect(prof, *samplesPath, *tracePath, *outPath, *useFFT, *rawDot)
	case "verify":
		err = runVerify(prof, *framePath)
	case "compare":
		err = runCompare(*expectedPath, *actualPath)
	default:
		fmt.Fprintf(os.Stderr, "linkdiag: unknown command %q\n", flag.Arg(0))
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "linkdiag: %v\n", err)
	os.Exit(1)
}

func runDetect(prof profile, samplesPath, tracePath, outPath string, useFFT, rawDot bool) error {
	params := prof.link()
	if err := params.Validate(); err != nil {
		return err
	}

	var scores []correlate.Score
	switch {
	case samplesPath != "":
		var err error
		scores, err = scoreRecording(prof, samplesPath, useFFT, rawDot)
		if err != nil {
			return err
		}
	case tracePath != "":
		f, err := os.Open(tracePath)
		if err != nil {
			return err
		}
		defer f.Close()
		rows, err := trace.ReadRows(f)
		if err != nil {
			return err
		}
		scores = trace.Scores(rows)
	default:
		return fmt.Errorf("detect needs -samples or -trace")
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.WriteScores(f, scores, 4); err != nil {
			return err
		}
	}

	events, err := detect.Peaks(scores, prof.Threshold, prof.MergeWindowSec, params.SampleRate)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("no preamble found above threshold %.3f\n", prof.Threshold)
		fmt.Printf("suggested relaxed threshold: %.4f\n", detect.RelaxedThreshold(scores))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tSAMPLE\tTIME\tSCORE\tDATA START\tBIT OFFSET\tSEVERITY")
	for i, ev := range events {
		a, err := frame.Align(ev, params)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%.3fs\t%.4f\t%d\t%d/%d\t%s\n",
			i+1, ev.SampleOffset, params.SamplesToSeconds(ev.SampleOffset), ev.Score,
			a.DataStartSample, a.OffsetWithinBitPeriod, a.BitPeriodSamples, a.Severity)
	}
	return w.Flush()
}

func scoreRecording(prof profile, samplesPath string, useFFT, rawDot bool) ([]correlate.Score, error) {
	f, err := os.Open(samplesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := trace.ReadSamples(f)
	if err != nil {
		return nil, err
	}

	tpl, err := template.Chirp{
		StartFreq:  prof.ChirpStartFreq,
		EndFreq:    prof.ChirpEndFreq,
		SampleRate: prof.SampleRate,
		Samples:    prof.PreambleSamples,
	}.Generate()
	if err != nil {
		return nil, err
	}

	mode := correlate.ModeNCC
	if rawDot {
		mode = correlate.ModeRawDot
	}
	if useFFT {
		return correlate.SlidingFFT(samples, tpl, mode)
	}
	return correlate.Sliding(samples, tpl, mode)
}

func runVerify(prof profile, framePath string) error {
	if framePath == "" {
		return fmt.Errorf("verify needs -frame")
	}
	f, err := os.Open(framePath)
	if err != nil {
		return err
	}
	defer f.Close()
	bits, err := trace.ReadBits(f)
	if err != nil {
		return err
	}

	ok, computed, received, err := crc8.Verify(bits, uint8(prof.CRCPoly))
	if err != nil {
		return err
	}
	fmt.Printf("payload bits: %d\n", len(bits)-8)
	fmt.Printf("computed CRC: 0x%02X\n", computed)
	fmt.Printf("received CRC: 0x%02X\n", received)
	if !ok {
		fmt.Println("integrity: FAIL")
		os.Exit(1)
	}
	fmt.Println("integrity: OK")
	return nil
}

func runCompare(expectedPath, actualPath string) error {
	if expectedPath == "" || actualPath == "" {
		return fmt.Errorf("compare needs -expected and -actual")
	}
	expected, err := readBitsFile(expectedPath)
	if err != nil {
		return err
	}
	actual, err := readBitsFile(actualPath)
	if err != nil {
		return err
	}

	r := diag.Compare(expected, actual)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total bits\t%d\n", r.TotalBits)
	fmt.Fprintf(w, "bit errors\t%d\n", len(r.ErrorPositions))
	fmt.Fprintf(w, "bit error rate\t%.4f\n", r.BitErrorRate)
	fmt.Fprintf(w, "pattern\t%s\n", r.Pattern)
	if r.LengthMismatch {
		fmt.Fprintf(w, "length mismatch\t%d vs %d\n", r.ExpectedBits, r.ActualBits)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := len(r.ErrorPositions); n > 0 {
		limit := n
		if limit > 10 {
			limit = 10
		}
		fmt.Printf("first error positions: %v\n", r.ErrorPositions[:limit])
	}
	return nil
}

func readBitsFile(path string) ([]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return trace.ReadBits(f)
}
