package param

import (
	"math"
	"sync/atomic"
)

// Ramper is a single-producer/single-consumer parameter value cell with
// linear ramping. The control thread publishes new values with SetPending;
// the render thread alone starts ramps and steps along them. Neither side
// ever blocks or allocates.
//
// Only the render thread may call StartRamp, Step, GetAndStep, StepBy and
// Reset. SetPending and Pending are safe from any thread.
type Ramper struct {
	// Written by the control thread, read by the render thread.
	pendingBits   atomic.Uint64
	changeCounter atomic.Int32

	// Render-thread state.
	lastUpdateCounter int32
	offset            float64
	slope             float64
	samplesRemaining  uint32
	rampingDisabled   bool
}

// NewRamper creates a ramper holding the given initial value.
func NewRamper(value float64) *Ramper {
	r := &Ramper{}
	r.pendingBits.Store(math.Float64bits(value))
	r.setImmediate(value)
	return r
}

// SetPending stores a new target value and bumps the change counter. The
// render thread picks the change up at its next segment boundary.
func (r *Ramper) SetPending(value float64) {
	r.pendingBits.Store(math.Float64bits(value))
	r.changeCounter.Add(1)
}

// Pending returns the last value set, regardless of ramping state.
func (r *Ramper) Pending() float64 {
	return math.Float64frombits(r.pendingBits.Load())
}

// Immediate returns the value currently in effect on the render thread,
// accounting for any in-progress ramp.
func (r *Ramper) Immediate() float64 {
	return r.Current()
}

// Current returns the ramped value. Once no samples remain it is exactly
// the pending value.
func (r *Ramper) Current() float64 {
	return r.slope*float64(r.samplesRemaining) + r.offset
}

// IsRamping reports whether a ramp is in progress.
func (r *Ramper) IsRamping() bool {
	return r.samplesRemaining != 0
}

// EnableRamping toggles ramping. When disabled, StartRamp snaps straight to
// the pending value.
func (r *Ramper) EnableRamping(enabled bool) {
	r.rampingDisabled = !enabled
}

// StartRamp begins ramping toward the pending value over duration samples
// if the pending value changed since the last call. A zero duration snaps
// immediately. Returns true if a ramp is in progress afterwards.
func (r *Ramper) StartRamp(duration uint32) bool {
	counter := r.changeCounter.Load()
	if r.lastUpdateCounter != counter {
		r.lastUpdateCounter = counter
		if r.rampingDisabled {
			duration = 0
		}
		r.startRamp(duration)
	}
	return r.samplesRemaining != 0
}

// Step advances one sample along the ramp.
func (r *Ramper) Step() {
	if r.samplesRemaining != 0 {
		r.samplesRemaining--
	}
}

// GetAndStep returns the current ramped value and advances one sample.
func (r *Ramper) GetAndStep() float64 {
	if r.samplesRemaining == 0 {
		return r.Pending()
	}
	value := r.Current()
	r.samplesRemaining--
	return value
}

// StepBy advances the ramp by frameCount samples.
func (r *Ramper) StepBy(frameCount uint32) {
	if frameCount >= r.samplesRemaining {
		r.samplesRemaining = 0
	} else {
		r.samplesRemaining -= frameCount
	}
}

// Reset collapses any ramp onto the pending value and rearms the change
// counter. Call when rendering is stopped, never mid-render.
func (r *Ramper) Reset() {
	r.setImmediate(r.Pending())
	r.changeCounter.Store(0)
	r.lastUpdateCounter = 0
}

func (r *Ramper) setImmediate(value float64) {
	r.offset = value
	r.slope = 0
	r.samplesRemaining = 0
}

func (r *Ramper) startRamp(duration uint32) {
	pending := r.Pending()
	if duration == 0 {
		r.setImmediate(pending)
		return
	}
	r.slope = (r.Current() - pending) / float64(duration)
	r.samplesRemaining = duration
	r.offset = pending
}
