package filter

import (
	"math"
	"testing"
)

// directCoefficients computes the expected design for a cutoff given as a
// fraction of Nyquist and a resonance in dB.
func directCoefficients(frequency, resonance float64) Coefficients {
	r := math.Pow(10.0, 0.05*-resonance)
	k := 0.5 * r * math.Sin(math.Pi*frequency)
	c1 := (1.0 - k) / (1.0 + k)
	c2 := (1.0 + c1) * math.Cos(math.Pi*frequency)
	c3 := (1.0 + c1 - c2) * 0.25
	return Coefficients{c3, 2 * c3, c3, -c2, c1}
}

func TestCalculateParamsDesign(t *testing.T) {
	f := NewLowPass()

	// 400 Hz at 44.1 kHz, 20 dB resonance.
	freq := 400.0 / 22050.0
	f.CalculateParams(freq, 20, 2)

	want := directCoefficients(freq, 20)
	if f.Target() != want {
		t.Errorf("coefficients mismatch:\n got %v\nwant %v", f.Target(), want)
	}
}

func TestCalculateParamsIdempotent(t *testing.T) {
	f := NewLowPass()
	f.CalculateParams(0.05, 10, 2)

	coeffsBefore := f.Target()
	currentBefore := f.current
	stateBefore := &f.x1[0]

	f.CalculateParams(0.05, 10, 2)

	if f.Target() != coeffsBefore || f.current != currentBefore {
		t.Error("repeated call changed coefficient state")
	}
	if &f.x1[0] != stateBefore {
		t.Error("repeated call reallocated per-channel state")
	}
}

func TestCalculateParamsChannelChangeResetsState(t *testing.T) {
	f := NewLowPass()
	f.CalculateParams(0.05, 10, 2)

	// Dirty the state.
	in := [][]float32{make([]float32, 8), make([]float32, 8)}
	in[0][0] = 1
	f.Apply(in, in, 8)

	f.CalculateParams(0.05, 10, 4)
	if f.ChannelCount() != 4 {
		t.Fatalf("expected 4 channels, got %d", f.ChannelCount())
	}
	for ch := 0; ch < 4; ch++ {
		if f.x1[ch] != 0 || f.y1[ch] != 0 {
			t.Error("channel change must zero the delay history")
		}
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	f := NewLowPass()
	f.CalculateParams(0.05, 10, 2)
	state := &f.x1[0]

	f.Invalidate()
	f.CalculateParams(0.05, 10, 2)

	if &f.x1[0] == state {
		t.Error("invalidated engine should rebuild channel state")
	}
}

func TestApplyMatchesDirectEvaluation(t *testing.T) {
	const frames = 512
	freq := 400.0 / 22050.0

	f := NewLowPass()
	f.CalculateParams(freq, 20, 2)

	ins := [][]float32{make([]float32, frames), make([]float32, frames)}
	outs := [][]float32{make([]float32, frames), make([]float32, frames)}
	for ch := range ins {
		for i := range ins[ch] {
			ins[ch][i] = float32(math.Sin(2 * math.Pi * float64(i) / 64.0))
		}
	}

	f.Apply(ins, outs, frames)

	// Direct biquad recursion with the coefficients computed once.
	c := directCoefficients(freq, 20)
	for ch := range ins {
		var x1, x2, y1, y2 float64
		for i := 0; i < frames; i++ {
			x0 := float64(ins[ch][i])
			y0 := c[B0]*x0 + c[B1]*x1 + c[B2]*x2 - c[A1]*y1 - c[A2]*y2
			x2, x1 = x1, x0
			y2, y1 = y1, y0
			if math.Abs(float64(outs[ch][i])-y0) > 1e-6 {
				t.Fatalf("ch %d sample %d: got %g want %g", ch, i, outs[ch][i], y0)
			}
		}
	}
}

func TestApplyInPlace(t *testing.T) {
	const frames = 256
	freq := 1000.0 / 22050.0

	shared := NewLowPass()
	shared.CalculateParams(freq, 6, 1)
	disjoint := NewLowPass()
	disjoint.CalculateParams(freq, 6, 1)

	src := make([]float32, frames)
	for i := range src {
		src[i] = float32(math.Sin(2*math.Pi*float64(i)/32.0)) * 0.5
	}

	inPlace := [][]float32{append([]float32(nil), src...)}
	shared.Apply(inPlace, inPlace, frames)

	in := [][]float32{append([]float32(nil), src...)}
	out := [][]float32{make([]float32, frames)}
	disjoint.Apply(in, out, frames)

	for i := 0; i < frames; i++ {
		if inPlace[0][i] != out[0][i] {
			t.Fatalf("sample %d: in-place %g != disjoint %g", i, inPlace[0][i], out[0][i])
		}
	}
}

func TestApplyZeroChannels(t *testing.T) {
	f := NewLowPass()
	f.Apply(nil, nil, 64) // no channels configured: must not panic
}

func TestApplySanitizesBadValues(t *testing.T) {
	f := NewLowPass()
	f.CalculateParams(0.05, 10, 1)

	nan := float32(math.NaN())
	in := [][]float32{{nan, nan, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}}
	out := [][]float32{make([]float32, 8)}
	f.Apply(in, out, 8)

	for i, v := range out[0] {
		if i >= 2 && math.IsNaN(float64(v)) {
			t.Fatalf("NaN escaped the recursion at sample %d", i)
		}
	}
	if f.y1[0] != f.y1[0] || f.y2[0] != f.y2[0] {
		t.Error("delay history holds NaN after sanitization")
	}
}

func TestConvergenceReachesTarget(t *testing.T) {
	f := NewLowPass()
	f.SetConvergence(DefaultRate, DefaultThreshold)
	f.CalculateParams(0.02, 6, 1)

	first := f.current

	// Same channel count, new cutoff: becomes a target, not a snap.
	f.CalculateParams(0.4, 6, 1)
	if f.current != first {
		t.Fatal("new coefficients must not snap in convergence mode")
	}

	in := [][]float32{make([]float32, 2048)}
	out := [][]float32{make([]float32, 2048)}
	f.Apply(in, out, 2048)

	if f.current != f.target {
		t.Errorf("coefficients did not converge: %v vs %v", f.current, f.target)
	}
}

func TestMagnitudesLowPassShape(t *testing.T) {
	const sampleRate = 44100.0
	nyquist := sampleRate / 2
	inverseNyquist := 1 / nyquist

	f := NewLowPass()
	f.CalculateParams(400/nyquist, 0, 2)

	freqs := []float64{0, nyquist / 2, nyquist}
	mags := make([]float64, len(freqs))
	f.Magnitudes(freqs, inverseNyquist, mags)

	if math.Abs(mags[0]-1) > 0.01 {
		t.Errorf("DC magnitude should be near unity, got %f", mags[0])
	}
	if mags[1] >= mags[0] {
		t.Errorf("magnitude should fall above cutoff: %f >= %f", mags[1], mags[0])
	}
	if mags[2] >= mags[1] {
		t.Errorf("magnitude should keep falling toward Nyquist: %f >= %f", mags[2], mags[1])
	}
}

func TestMagnitudesDB(t *testing.T) {
	const nyquist = 22050.0

	f := NewLowPass()
	f.CalculateParams(400/nyquist, 0, 2)

	freqs := []float64{0, nyquist}
	mags := make([]float64, 2)
	f.MagnitudesDB(freqs, 1/nyquist, mags)

	if math.Abs(mags[0]) > 0.1 {
		t.Errorf("DC response should be near 0 dB, got %f", mags[0])
	}
	if mags[1] >= -20 {
		t.Errorf("Nyquist response of a 400 Hz low-pass should be strongly attenuated, got %f", mags[1])
	}
}

func TestMagnitudesClampSingularity(t *testing.T) {
	const (
		nyquist = 22050.0
		freq    = 100.0
	)

	f := NewLowPass()
	// Degenerate design on purpose: a pole on the unit circle at freq, so
	// the denominator vanishes at the evaluation point.
	theta := math.Pi * freq / nyquist
	f.target = Coefficients{A1: -2 * math.Cos(theta), A2: 1, B0: 1}

	mags := make([]float64, 1)
	f.Magnitudes([]float64{freq}, 1/nyquist, mags)
	if mags[0] != 1 {
		t.Errorf("singular magnitude should clamp to 1, got %f", mags[0])
	}

	f.MagnitudesDB([]float64{freq}, 1/nyquist, mags)
	if mags[0] != 0 {
		t.Errorf("singular magnitude should clamp to 0 dB, got %f", mags[0])
	}
}

func TestMagnitudesExactZeroIsNotClamped(t *testing.T) {
	const nyquist = 22050.0

	// A zero numerator is a legitimate response, not a singularity: the
	// linear magnitude stays 0 and the decibel variant hits its floor.
	f := NewLowPass()
	f.target = Coefficients{A2: 0.5}

	mags := make([]float64, 1)
	f.Magnitudes([]float64{100}, 1/nyquist, mags)
	if mags[0] != 0 {
		t.Errorf("zero numerator should yield magnitude 0, got %f", mags[0])
	}

	f.MagnitudesDB([]float64{100}, 1/nyquist, mags)
	if mags[0] != floorDB {
		t.Errorf("zero magnitude should floor at %v dB, got %f", floorDB, mags[0])
	}
}
