package analysis

import (
	"math"
	"testing"

	"github.com/justyntemme/auv3go/pkg/dsp/filter"
)

func TestMeasureResponseIdentity(t *testing.T) {
	resp, err := MeasureResponse(func(in, out []float32) {
		copy(out, in)
	}, 44100, 1024)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range resp.Magnitudes {
		if math.Abs(m-1) > 1e-9 {
			t.Fatalf("bin %d: got %v, want 1", i, m)
		}
	}
}

func TestMeasureResponseRejectsBadSizes(t *testing.T) {
	if _, err := MeasureResponse(func(in, out []float32) {}, 44100, 1000); err != ErrInvalidFFTSize {
		t.Fatalf("got %v, want ErrInvalidFFTSize", err)
	}
	if _, err := MeasureResponse(func(in, out []float32) {}, 0, 1024); err != ErrInvalidSampleRate {
		t.Fatalf("got %v, want ErrInvalidSampleRate", err)
	}
}

// The measured spectrum of the biquad should match its analytic magnitude
// response away from the bin edges.
func TestMeasuredResponseMatchesAnalytic(t *testing.T) {
	const (
		sampleRate = 44100.0
		fftSize    = 8192
		cutoff     = 1000.0
		resonance  = 0.0
	)
	nyquist := sampleRate / 2

	f := filter.NewLowPass()
	f.CalculateParams(cutoff/nyquist, resonance, 1)

	resp, err := MeasureResponse(func(in, out []float32) {
		f.Apply([][]float32{in}, [][]float32{out}, len(in))
	}, sampleRate, fftSize)
	if err != nil {
		t.Fatal(err)
	}

	freqs := []float64{100, 500, 1000, 2000, 5000, 10000}
	analytic := make([]float64, len(freqs))
	f.Magnitudes(freqs, 1/nyquist, analytic)

	for i, freq := range freqs {
		measured := resp.MagnitudeAt(freq)
		if math.Abs(measured-analytic[i]) > 1e-3 {
			t.Errorf("%v Hz: measured %v, analytic %v", freq, measured, analytic[i])
		}
	}
}

func TestMagnitudeAtClamps(t *testing.T) {
	r := &MeasuredResponse{SampleRate: 44100, Magnitudes: []float64{2, 1, 0.5}}
	if got := r.MagnitudeAt(-10); got != 2 {
		t.Errorf("below range: got %v, want 2", got)
	}
	if got := r.MagnitudeAt(1e6); got != 0.5 {
		t.Errorf("above Nyquist: got %v, want 0.5", got)
	}
	mid := r.MagnitudeAt(44100.0 / 4)
	if math.Abs(mid-1) > 1e-9 {
		t.Errorf("midpoint: got %v, want 1", mid)
	}
}

func TestMagnitudeDBAtFloor(t *testing.T) {
	r := &MeasuredResponse{SampleRate: 44100, Magnitudes: []float64{0, 0}}
	if got := r.MagnitudeDBAt(100); got != -160 {
		t.Errorf("got %v, want -160", got)
	}
}
