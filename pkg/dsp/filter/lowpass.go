// Package filter provides digital signal processing filters
package filter

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Coefficient indices into a Coefficients set.
const (
	B0 = iota
	B1
	B2
	A1
	A2
)

// Coefficients holds one biquad coefficient set {b0,b1,b2,a1,a2} with a0
// normalized to 1.
type Coefficients [5]float64

// LowPass is a resonant low-pass biquad shared across channels. Coefficient
// updates are memoized on (frequency, resonance, channel count), and new
// coefficient sets can either snap into place or converge gradually toward a
// target to keep rapid changes click-free regardless of where they come from.
//
// Direct Form I with per-channel state; processing is in-place safe.
type LowPass struct {
	current Coefficients
	target  Coefficients

	// Target convergence: each frame moves the active set rate of the way
	// toward the target; once every coefficient is within threshold the set
	// snaps exactly. A rate >= 1 installs new coefficients immediately.
	rate      float64
	threshold float64

	// Memoization keys for CalculateParams.
	lastFrequency float64
	lastResonance float64
	lastChannels  int

	// Per-channel delay history, rebuilt only on channel count changes.
	x1, x2, y1, y2 []float64
}

// Default convergence settings for gradual coefficient updates.
const (
	DefaultRate      = 0.4
	DefaultThreshold = 0.05
)

// NewLowPass creates a low-pass engine that snaps new coefficients into
// place immediately. Use SetConvergence to enable gradual updates.
func NewLowPass() *LowPass {
	return &LowPass{
		rate:          1,
		threshold:     0,
		lastFrequency: -1,
		lastResonance: 1e10,
	}
}

// SetConvergence configures gradual coefficient interpolation. rate is the
// per-frame fraction of the remaining distance to cover (>= 1 snaps),
// threshold the distance at which the target is considered reached.
func (f *LowPass) SetConvergence(rate, threshold float64) {
	f.rate = rate
	f.threshold = threshold
}

// ChannelCount returns the channel count of the last CalculateParams call.
func (f *LowPass) ChannelCount() int {
	return f.lastChannels
}

// Reset clears the per-channel delay history.
func (f *LowPass) Reset() {
	for i := range f.x1 {
		f.x1[i] = 0
		f.x2[i] = 0
		f.y1[i] = 0
		f.y2[i] = 0
	}
}

// Invalidate forces the next CalculateParams call to recompute even with
// unchanged inputs. Call after a format change.
func (f *LowPass) Invalidate() {
	f.lastFrequency = -1
	f.lastResonance = 1e10
	f.lastChannels = 0
}

// CalculateParams computes the filter coefficients for the given cutoff
// (as a fraction of Nyquist) and resonance (dB). Unchanged inputs are a
// no-op. A channel count change rebuilds the per-channel state and installs
// the coefficients directly; otherwise they become the convergence target.
// Out-of-range inputs are not rejected: the math degrades instead of the
// audio thread crashing.
func (f *LowPass) CalculateParams(frequency, resonance float64, channelCount int) {
	if frequency == f.lastFrequency && resonance == f.lastResonance && channelCount == f.lastChannels {
		return
	}

	r := math.Pow(10.0, 0.05*-resonance)
	k := 0.5 * r * math.Sin(math.Pi*frequency)
	c1 := (1.0 - k) / (1.0 + k)
	c2 := (1.0 + c1) * math.Cos(math.Pi*frequency)
	c3 := (1.0 + c1 - c2) * 0.25

	coeffs := Coefficients{c3, 2.0 * c3, c3, -c2, c1}

	if channelCount != f.lastChannels {
		f.x1 = make([]float64, channelCount)
		f.x2 = make([]float64, channelCount)
		f.y1 = make([]float64, channelCount)
		f.y2 = make([]float64, channelCount)
		f.current = coeffs
		f.target = coeffs
	} else if f.rate >= 1 {
		f.current = coeffs
		f.target = coeffs
	} else {
		f.target = coeffs
	}

	f.lastFrequency = frequency
	f.lastResonance = resonance
	f.lastChannels = channelCount
}

// Target returns the most recently computed coefficient set.
func (f *LowPass) Target() Coefficients {
	return f.target
}

// Apply filters frameCount frames of every channel. ins and outs must hold
// at least ChannelCount() channels of frameCount samples each; outs[c] may
// alias ins[c] for in-place operation. Zero channels is a no-op.
func (f *LowPass) Apply(ins, outs [][]float32, frameCount int) {
	channels := f.lastChannels
	if channels == 0 {
		return
	}
	if len(ins) < channels {
		channels = len(ins)
	}
	if len(outs) < channels {
		channels = len(outs)
	}

	if f.current == f.target {
		for ch := 0; ch < channels; ch++ {
			f.applyChannel(f.current, ch, ins[ch], outs[ch], frameCount)
		}
		return
	}

	// Converging toward a new target: coefficients advance one step per
	// frame, identically for all channels.
	for i := 0; i < frameCount; i++ {
		f.stepTowardTarget()
		c := f.current
		for ch := 0; ch < channels; ch++ {
			outs[ch][i] = f.processSample(c, ch, ins[ch][i])
		}
	}
}

func (f *LowPass) applyChannel(c Coefficients, ch int, in, out []float32, frameCount int) {
	x1 := f.x1[ch]
	x2 := f.x2[ch]
	y1 := f.y1[ch]
	y2 := f.y2[ch]

	for i := 0; i < frameCount; i++ {
		x0 := sanitize(float64(in[i]))
		y0 := c[B0]*x0 + c[B1]*x1 + c[B2]*x2 - c[A1]*y1 - c[A2]*y2
		y0 = sanitize(y0)

		x2 = x1
		x1 = x0
		y2 = y1
		y1 = y0

		out[i] = float32(y0)
	}

	f.x1[ch] = x1
	f.x2[ch] = x2
	f.y1[ch] = y1
	f.y2[ch] = y2
}

func (f *LowPass) processSample(c Coefficients, ch int, in float32) float32 {
	x0 := sanitize(float64(in))
	y0 := c[B0]*x0 + c[B1]*f.x1[ch] + c[B2]*f.x2[ch] - c[A1]*f.y1[ch] - c[A2]*f.y2[ch]
	y0 = sanitize(y0)

	f.x2[ch] = f.x1[ch]
	f.x1[ch] = x0
	f.y2[ch] = f.y1[ch]
	f.y1[ch] = y0

	return float32(y0)
}

func (f *LowPass) stepTowardTarget() {
	done := true
	for i := range f.current {
		delta := f.target[i] - f.current[i]
		if math.Abs(delta) <= f.threshold {
			f.current[i] = f.target[i]
			continue
		}
		f.current[i] += delta * f.rate
		done = false
	}
	if done {
		f.current = f.target
	}
}

// Magnitudes evaluates the filter's frequency response magnitude at the
// given frequencies (Hz). inverseNyquist is 1 / (sampleRate / 2). The
// result is linear magnitude; degenerate values clamp to 1. Non-real-time:
// meant for display, not the render thread.
func (f *LowPass) Magnitudes(frequencies []float64, inverseNyquist float64, magnitudes []float64) {
	n := len(frequencies)
	if len(magnitudes) < n {
		n = len(magnitudes)
	}
	if n == 0 {
		return
	}

	scratch := make([]float64, 6*n)
	numRe := scratch[0*n : 1*n]
	numIm := scratch[1*n : 2*n]
	denRe := scratch[2*n : 3*n]
	denIm := scratch[3*n : 4*n]
	numMag := scratch[4*n : 5*n]
	denMag := scratch[5*n : 6*n]

	c := f.target
	for i := 0; i < n; i++ {
		theta := math.Pi * frequencies[i] * inverseNyquist
		zRe := math.Cos(theta)
		zIm := math.Sin(theta)

		numRe[i] = c[B0]*(zRe*zRe-zIm*zIm) + c[B1]*zRe + c[B2]
		numIm[i] = 2.0*c[B0]*zRe*zIm + c[B1]*zIm
		denRe[i] = zRe*zRe - zIm*zIm + c[A1]*zRe + c[A2]
		denIm[i] = 2.0*zRe*zIm + c[A1]*zIm
	}

	vecmath.Magnitude(numMag, numRe, numIm)
	vecmath.Magnitude(denMag, denRe, denIm)

	for i := 0; i < n; i++ {
		m := numMag[i] / denMag[i]
		if badMagnitude(m) {
			m = 1.0
		}
		magnitudes[i] = m
	}
}

// floorDB bounds the decibel conversion; an exactly-zero magnitude (a
// transfer-function zero on the unit circle) maps here instead of -Inf.
const floorDB = -160.0

// MagnitudesDB is Magnitudes converted to decibels, with degenerate values
// clamped to 0 dB before the logarithm and true zeros floored at floorDB.
func (f *LowPass) MagnitudesDB(frequencies []float64, inverseNyquist float64, magnitudes []float64) {
	f.Magnitudes(frequencies, inverseNyquist, magnitudes)
	n := len(frequencies)
	if len(magnitudes) < n {
		n = len(magnitudes)
	}
	for i := 0; i < n; i++ {
		m := magnitudes[i]
		if badMagnitude(m) {
			magnitudes[i] = 0
			continue
		}
		if m <= 0 {
			magnitudes[i] = floorDB
			continue
		}
		db := 20.0 * math.Log10(m)
		if db < floorDB {
			db = floorDB
		}
		magnitudes[i] = db
	}
}

// sanitize clamps NaN, infinite, huge or denormal recursion values to zero
// so a single bad sample cannot feed back forever.
func sanitize(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	abs := math.Abs(v)
	if abs > 1e15 {
		return 0
	}
	if abs != 0 && abs < 1e-15 {
		return 0
	}
	return v
}

func badMagnitude(m float64) bool {
	if m != m || math.IsInf(m, 0) {
		return true
	}
	abs := math.Abs(m)
	return abs > 1e15 || (abs != 0 && abs < 1e-15)
}
