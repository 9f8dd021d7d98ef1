// Package analysis provides off-line measurement helpers for audio
// processors. Nothing here is meant for the render thread.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Errors returned by response measurement.
var (
	ErrInvalidFFTSize    = errors.New("analysis: fft size must be a positive power of two")
	ErrInvalidSampleRate = errors.New("analysis: sample rate must be positive")
)

// ProcessFunc renders one block: it fills out with the processed version of
// in. Both slices hold the same number of samples.
type ProcessFunc func(in, out []float32)

// MeasuredResponse holds the magnitude response measured from an impulse.
type MeasuredResponse struct {
	SampleRate float64
	// Magnitudes holds linear magnitude per bin for bins [0 .. fftSize/2].
	Magnitudes []float64
}

// MeasureResponse captures the impulse response of a linear processor and
// returns its magnitude spectrum. fftSize must be a power of two; the
// impulse response is truncated (or zero padded) to that length.
func MeasureResponse(process ProcessFunc, sampleRate float64, fftSize int) (*MeasuredResponse, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, ErrInvalidFFTSize
	}

	impulse := make([]float32, fftSize)
	impulse[0] = 1
	response := make([]float32, fftSize)
	process(impulse, response)

	inData := make([]complex128, fftSize)
	for i, v := range response {
		inData[i] = complex(float64(v), 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1
	mags := make([]float64, bins)
	for i := 0; i < bins; i++ {
		mags[i] = cmplx.Abs(out[i])
	}

	return &MeasuredResponse{SampleRate: sampleRate, Magnitudes: mags}, nil
}

// MagnitudeAt returns the measured linear magnitude at the given frequency,
// linearly interpolated between bins. Frequencies beyond Nyquist clamp to
// the last bin.
func (r *MeasuredResponse) MagnitudeAt(freqHz float64) float64 {
	if len(r.Magnitudes) == 0 {
		return 0
	}
	nyquist := r.SampleRate / 2
	pos := freqHz / nyquist * float64(len(r.Magnitudes)-1)
	if pos <= 0 {
		return r.Magnitudes[0]
	}
	if pos >= float64(len(r.Magnitudes)-1) {
		return r.Magnitudes[len(r.Magnitudes)-1]
	}
	lo := int(pos)
	frac := pos - float64(lo)
	return r.Magnitudes[lo]*(1-frac) + r.Magnitudes[lo+1]*frac
}

// MagnitudeDBAt is MagnitudeAt in decibels, with a -160 dB floor.
func (r *MeasuredResponse) MagnitudeDBAt(freqHz float64) float64 {
	m := r.MagnitudeAt(freqHz)
	if m <= 0 {
		return -160
	}
	db := 20 * math.Log10(m)
	if db < -160 {
		return -160
	}
	return db
}
