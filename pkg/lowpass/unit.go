package lowpass

import (
	"github.com/justyntemme/auv3go/pkg/framework/bus"
	"github.com/justyntemme/auv3go/pkg/framework/event"
	"github.com/justyntemme/auv3go/pkg/framework/param"
)

// Unit packages a Kernel with its event processor behind the surface a host
// wrapper talks to: parameter access, bypass, render-resource lifecycle and
// the render entry points.
type Unit struct {
	kernel *Kernel
	proc   *event.Processor[*Kernel]
}

// New creates a unit with default settings.
func New() *Unit {
	k := NewKernel()
	return &Unit{
		kernel: k,
		proc:   event.NewProcessor(k),
	}
}

// Kernel exposes the underlying kernel.
func (u *Unit) Kernel() *Kernel {
	return u.kernel
}

// Parameters returns the parameter descriptions.
func (u *Unit) Parameters() *param.Registry {
	return u.kernel.Parameters()
}

// SetParameter stores a new parameter value from the control thread.
func (u *Unit) SetParameter(address uint32, value float64) {
	u.kernel.SetParameterValue(address, value)
}

// Parameter returns the pending value of a parameter.
func (u *Unit) Parameter(address uint32) float64 {
	return u.kernel.ParameterValue(address)
}

// SetBypass switches pass-through mode.
func (u *Unit) SetBypass(bypass bool) {
	u.proc.SetBypass(bypass)
}

// Bypassed reports the current bypass mode.
func (u *Unit) Bypassed() bool {
	return u.proc.Bypassed()
}

// Magnitudes returns the linear magnitude response at the given frequencies.
func (u *Unit) Magnitudes(frequencies []float64) []float64 {
	return u.kernel.Magnitudes(frequencies)
}

// AllocateRenderResources prepares kernel and processor for rendering with
// the given format. Call only while rendering is stopped.
func (u *Unit) AllocateRenderResources(sampleRate float64, channelCount, maxFrames int) {
	u.kernel.AllocateRenderResources(sampleRate, channelCount, maxFrames)
	u.proc.StartProcessing(channelCount, maxFrames)
}

// DeallocateRenderResources releases rendering state.
func (u *Unit) DeallocateRenderResources() {
	u.proc.StopProcessing()
	u.kernel.DeallocateRenderResources()
}

// Process pulls input and renders one host callback's worth of audio,
// interleaving the given events. A nil channel in output selects in-place
// rendering on the pulled input.
func (u *Unit) Process(timestamp int64, frameCount int, output bus.Buffers, events *event.Event, pull bus.PullFunc) error {
	return u.proc.ProcessAndRender(timestamp, frameCount, output, events, pull)
}

// Render drives the kernel directly from caller-supplied buffers, without
// an upstream pull. Useful for offline rendering and tests.
func (u *Unit) Render(timestamp int64, frameCount int, input, output bus.Buffers, events *event.Event) {
	u.proc.Render(timestamp, frameCount, input, output, events)
}
