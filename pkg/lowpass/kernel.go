// Package lowpass implements a resonant low-pass audio effect kernel with
// sample-accurate parameter automation.
package lowpass

import (
	"github.com/justyntemme/auv3go/pkg/dsp/filter"
	"github.com/justyntemme/auv3go/pkg/framework/bus"
	"github.com/justyntemme/auv3go/pkg/framework/debug"
	"github.com/justyntemme/auv3go/pkg/framework/event"
	"github.com/justyntemme/auv3go/pkg/framework/param"
	"github.com/justyntemme/auv3go/pkg/midi"
)

// Parameter addresses.
const (
	AddressCutoff    uint32 = 0
	AddressResonance uint32 = 1
)

// Defaults matching the kernel's construction state.
const (
	DefaultCutoff     = 400.0
	DefaultResonance  = 20.0
	DefaultSampleRate = 44100.0
	defaultChannels   = 2
)

// Kernel is the render-side heart of the effect: two ramped parameters
// feeding a biquad coefficient engine. It implements event.Kernel, so an
// event.Processor can drive it with sample-accurate automation.
//
// Smoothing is driven by the parameter ramps alone; the coefficient engine
// runs in snap mode so changes are never smoothed twice.
type Kernel struct {
	cutoff    *param.Ramper
	resonance *param.Ramper
	filter    *filter.LowPass
	params    *param.Registry

	sampleRate       float64
	nyquistFrequency float64
	nyquistPeriod    float64
	channelCount     int

	// Ramp duration applied to changes arriving outside events (control
	// thread writes, MIDI). Zero snaps at the next segment boundary.
	defaultRampFrames uint32

	// Scratch output used to keep the filter history advancing in bypass.
	bypassScratch bus.Buffers

	midiControl bool
	log         *debug.Logger
}

// NewKernel creates a kernel with the default cutoff, resonance and stereo
// format.
func NewKernel() *Kernel {
	k := &Kernel{
		cutoff:    param.NewRamper(DefaultCutoff),
		resonance: param.NewRamper(DefaultResonance),
		filter:    filter.NewLowPass(),
		params:    param.NewRegistry(),
		log:       debug.Discard(),
	}

	k.params.Add(
		param.New(AddressCutoff, "Cutoff").
			Range(12, 20000).
			Default(DefaultCutoff).
			Unit("Hz").
			Formatter(param.FrequencyFormatter, param.FrequencyParser).
			Build(),
		param.New(AddressResonance, "Resonance").
			Range(-20, 40).
			Default(DefaultResonance).
			Unit("dB").
			Formatter(param.DecibelFormatter, param.DecibelParser).
			Build(),
	)

	k.setFormat(DefaultSampleRate, defaultChannels)
	k.filter.CalculateParams(DefaultCutoff*k.nyquistPeriod, DefaultResonance, defaultChannels)
	return k
}

// SetLogger installs a logger used on non-real-time paths.
func (k *Kernel) SetLogger(log *debug.Logger) {
	if log == nil {
		log = debug.Discard()
	}
	k.log = log
}

// SetDefaultRamp sets the ramp duration, in frames, applied to parameter
// changes that do not carry their own (control thread and MIDI writes).
func (k *Kernel) SetDefaultRamp(frames uint32) {
	k.defaultRampFrames = frames
}

// SetMIDIControl enables mapping of MIDI CC 74/71 onto cutoff/resonance.
func (k *Kernel) SetMIDIControl(enabled bool) {
	k.midiControl = enabled
}

// Parameters returns the control-plane parameter descriptions.
func (k *Kernel) Parameters() *param.Registry {
	return k.params
}

// SampleRate returns the configured sample rate.
func (k *Kernel) SampleRate() float64 {
	return k.sampleRate
}

// ChannelCount returns the configured channel count.
func (k *Kernel) ChannelCount() int {
	return k.channelCount
}

// NyquistPeriod returns 1 / (sampleRate / 2), the cutoff normalization
// factor.
func (k *Kernel) NyquistPeriod() float64 {
	return k.nyquistPeriod
}

func (k *Kernel) setFormat(sampleRate float64, channelCount int) {
	k.sampleRate = sampleRate
	k.nyquistFrequency = 0.5 * sampleRate
	k.nyquistPeriod = 1.0 / k.nyquistFrequency
	k.channelCount = channelCount
}

// AllocateRenderResources prepares the kernel for rendering with the given
// format. Any ramps collapse onto their pending values, the filter history
// is zeroed, and coefficients are recomputed unconditionally. Call only
// while rendering is stopped.
func (k *Kernel) AllocateRenderResources(sampleRate float64, channelCount, maxFrames int) {
	k.log.Info("allocate render resources: rate=%.0f channels=%d maxFrames=%d",
		sampleRate, channelCount, maxFrames)

	k.setFormat(sampleRate, channelCount)
	k.cutoff.Reset()
	k.resonance.Reset()

	k.filter.Invalidate()
	k.filter.CalculateParams(k.cutoff.Current()*k.nyquistPeriod, k.resonance.Current(), channelCount)
	k.filter.Reset()

	k.bypassScratch = make(bus.Buffers, channelCount)
	for ch := range k.bypassScratch {
		k.bypassScratch[ch] = make([]float32, maxFrames)
	}
}

// DeallocateRenderResources releases rendering state.
func (k *Kernel) DeallocateRenderResources() {
	k.log.Info("deallocate render resources")
	k.bypassScratch = nil
}

// SetParameterValue stores a new pending value for the addressed parameter.
// Callable from any thread; the render thread applies it at its next
// segment boundary using the default ramp. Unknown addresses are ignored.
func (k *Kernel) SetParameterValue(address uint32, value float64) {
	switch address {
	case AddressCutoff:
		k.cutoff.SetPending(value)
	case AddressResonance:
		k.resonance.SetPending(value)
	}
}

// ParameterValue returns the pending (UI-facing) value of the addressed
// parameter, or 0 for unknown addresses.
func (k *Kernel) ParameterValue(address uint32) float64 {
	switch address {
	case AddressCutoff:
		return k.cutoff.Pending()
	case AddressResonance:
		return k.resonance.Pending()
	default:
		return 0
	}
}

// ImmediateParameterValue returns the value currently in effect on the
// render thread, accounting for any in-progress ramp.
func (k *Kernel) ImmediateParameterValue(address uint32) float64 {
	switch address {
	case AddressCutoff:
		return k.cutoff.Immediate()
	case AddressResonance:
		return k.resonance.Immediate()
	default:
		return 0
	}
}

// OnParameterEvent implements event.Kernel. It runs on the render thread at
// the event's exact sample offset, so the ramp starts right away.
func (k *Kernel) OnParameterEvent(ev *event.ParameterEvent) {
	r := k.ramper(ev.Address)
	if r == nil {
		return
	}
	r.SetPending(ev.Value)
	r.StartRamp(ev.RampDurationFrames)
}

// OnMIDIEvent implements event.Kernel. With MIDI control enabled, CC 74
// (brightness) drives cutoff and CC 71 (harmonic intensity) drives
// resonance across each parameter's full range. Everything else is ignored.
func (k *Kernel) OnMIDIEvent(ev *event.MIDIEvent) {
	if !k.midiControl {
		return
	}
	msg := midi.Message{Data: ev.Data, Length: ev.Length}
	if !msg.IsControlChange() {
		return
	}

	var address uint32
	switch msg.Controller() {
	case midi.CCBrightness:
		address = AddressCutoff
	case midi.CCHarmonicIntensity:
		address = AddressResonance
	default:
		return
	}

	p := k.params.Get(address)
	r := k.ramper(address)
	if p == nil || r == nil {
		return
	}
	r.SetPending(p.Denormalize(midi.Normalized(msg.Value())))
	r.StartRamp(k.defaultRampFrames)
}

// RenderSegment implements event.Kernel: one contiguous run of frames with
// the parameter values in effect right now. The cutoff and resonance hold
// one effective value per segment; their ramps then advance by the segment
// length.
func (k *Kernel) RenderSegment(ins, outs bus.Buffers, frameCount int) {
	cutoff, resonance := k.segmentValues(frameCount)
	k.filter.CalculateParams(cutoff*k.nyquistPeriod, resonance, len(ins))
	k.filter.Apply(ins, outs, frameCount)
}

// BypassSegment implements event.Kernel. Ramps, coefficients and the filter
// delay history advance exactly as they would have when rendering, so that
// leaving bypass produces no discontinuity.
func (k *Kernel) BypassSegment(ins bus.Buffers, frameCount int) {
	cutoff, resonance := k.segmentValues(frameCount)
	k.filter.CalculateParams(cutoff*k.nyquistPeriod, resonance, len(ins))

	if len(k.bypassScratch) < len(ins) {
		return
	}
	for ch := range ins {
		k.bypassScratch[ch] = k.bypassScratch[ch][:frameCount]
	}
	k.filter.Apply(ins, k.bypassScratch[:len(ins)], frameCount)
}

func (k *Kernel) segmentValues(frameCount int) (cutoff, resonance float64) {
	k.cutoff.StartRamp(k.defaultRampFrames)
	k.resonance.StartRamp(k.defaultRampFrames)

	cutoff = k.cutoff.Current()
	resonance = k.resonance.Current()

	k.cutoff.StepBy(uint32(frameCount))
	k.resonance.StepBy(uint32(frameCount))
	return cutoff, resonance
}

func (k *Kernel) ramper(address uint32) *param.Ramper {
	switch address {
	case AddressCutoff:
		return k.cutoff
	case AddressResonance:
		return k.resonance
	}
	return nil
}

// Magnitudes evaluates the filter's linear magnitude response at the given
// frequencies (Hz). Non-real-time; meant for response displays.
func (k *Kernel) Magnitudes(frequencies []float64) []float64 {
	out := make([]float64, len(frequencies))
	k.filter.Magnitudes(frequencies, k.nyquistPeriod, out)
	return out
}

// MagnitudesDB is Magnitudes in decibels, clamped to 0 dB on degenerate
// values.
func (k *Kernel) MagnitudesDB(frequencies []float64) []float64 {
	out := make([]float64, len(frequencies))
	k.filter.MagnitudesDB(frequencies, k.nyquistPeriod, out)
	return out
}
