package event

import (
	"sync/atomic"

	"github.com/justyntemme/auv3go/pkg/framework/bus"
)

// Kernel is the set of hooks a processor drives. Implementations run on the
// render thread and must not block, lock or allocate.
type Kernel interface {
	// RenderSegment renders frameCount frames with the parameter values in
	// effect right now. ins and outs hold one slice per channel; they may
	// alias for in-place processing.
	RenderSegment(ins, outs bus.Buffers, frameCount int)

	// BypassSegment advances time-dependent state (ramps, coefficient
	// targets, filter history) for frameCount frames without producing
	// output. Keeping the bookkeeping identical to RenderSegment is what
	// makes leaving bypass click-free.
	BypassSegment(ins bus.Buffers, frameCount int)

	// OnParameterEvent applies a scheduled parameter change. Unknown
	// addresses are ignored.
	OnParameterEvent(ev *ParameterEvent)

	// OnMIDIEvent handles a raw MIDI message. Implementations are free to
	// ignore it.
	OnMIDIEvent(ev *MIDIEvent)
}

// Processor fragments each render call into sub-segments bounded by scheduled
// events and dispatches them to a kernel. The type parameter gives static
// dispatch to the kernel hooks.
//
// A single render thread calls ProcessAndRender or Render; SetBypass may be
// called from any thread.
type Processor[K Kernel] struct {
	kernel K

	input    bus.InputBuffer
	ins      bus.Buffers // per-segment scratch views
	outs     bus.Buffers
	bypassed atomic.Bool
}

// NewProcessor creates a processor around the given kernel.
func NewProcessor[K Kernel](kernel K) *Processor[K] {
	return &Processor[K]{kernel: kernel}
}

// Kernel returns the wrapped kernel.
func (p *Processor[K]) Kernel() K {
	return p.kernel
}

// StartProcessing sizes the internal input buffer and segment views for the
// given channel count and maximum frames per render call. Call only while
// rendering is stopped.
func (p *Processor[K]) StartProcessing(channelCount, maxFrames int) {
	p.input.SetFormat(channelCount, maxFrames)
	p.ins = make(bus.Buffers, channelCount)
	p.outs = make(bus.Buffers, channelCount)
}

// StopProcessing releases the resources acquired by StartProcessing.
func (p *Processor[K]) StopProcessing() {
	p.input.Release()
	p.ins = nil
	p.outs = nil
}

// SetBypass enables or disables pass-through mode.
func (p *Processor[K]) SetBypass(bypass bool) {
	p.bypassed.Store(bypass)
}

// Bypassed returns the current bypass mode.
func (p *Processor[K]) Bypassed() bool {
	return p.bypassed.Load()
}

// ProcessAndRender pulls frameCount frames of upstream audio, then renders
// them into output, interleaving the given event list. A nil channel slice
// in output selects in-place operation on the pulled input buffer. A pull
// failure aborts the call before any rendering; internal state stays clean
// for the next call.
func (p *Processor[K]) ProcessAndRender(timestamp int64, frameCount int, output bus.Buffers, events *Event, pull bus.PullFunc) error {
	input, err := p.input.PullInput(pull, timestamp, frameCount, 0)
	if err != nil {
		return err
	}

	for ch := range output {
		if output[ch] == nil && ch < len(input) {
			output[ch] = input[ch]
		}
	}

	p.Render(timestamp, frameCount, input, output, events)
	return nil
}

// Render fragments frameCount frames into segments bounded by event
// timestamps. Every event fires at exactly the sample offset it was
// scheduled for: rendering never runs past a due event and never applies
// one early. Coincident events are applied in list order.
func (p *Processor[K]) Render(timestamp int64, frameCount int, input, output bus.Buffers, events *Event) {
	inPlace := output.Aliases(input)
	now := timestamp
	framesRemaining := frameCount
	ev := events

	for framesRemaining > 0 {
		if ev == nil {
			p.renderFrames(input, output, framesRemaining, frameCount-framesRemaining, inPlace)
			return
		}

		segmentFrames := int(ev.SampleTime - now)
		if segmentFrames < 0 {
			segmentFrames = 0
		}
		if segmentFrames > framesRemaining {
			segmentFrames = framesRemaining
		}
		if segmentFrames > 0 {
			p.renderFrames(input, output, segmentFrames, frameCount-framesRemaining, inPlace)
			framesRemaining -= segmentFrames
			now += int64(segmentFrames)
		}

		// now == timestamp+frameCount here means the remaining events sit at
		// or past the buffer end; they belong to the next render call.
		if framesRemaining == 0 {
			return
		}
		ev = p.applyEventsUntil(now, ev)
	}
}

func (p *Processor[K]) applyEventsUntil(now int64, ev *Event) *Event {
	for ev != nil && ev.SampleTime <= now {
		switch ev.Type {
		case TypeParameter, TypeParameterRamp:
			p.kernel.OnParameterEvent(&ev.Parameter)
		case TypeMIDI:
			p.kernel.OnMIDIEvent(&ev.MIDI)
		}
		ev = ev.Next
	}
	return ev
}

func (p *Processor[K]) renderFrames(input, output bus.Buffers, frames, offset int, inPlace bool) {
	channels := len(input)
	if len(output) > channels {
		channels = len(output)
	}
	p.ensureViews(channels)

	for ch := range input {
		p.ins[ch] = input[ch][offset : offset+frames]
	}

	if p.bypassed.Load() {
		if !inPlace {
			// Only views for the current input channels are fresh; entries
			// beyond len(input) may hold segments from an earlier call.
			for ch := range output {
				if ch < len(input) {
					copy(output[ch][offset:offset+frames], p.ins[ch])
				}
			}
		}
		p.kernel.BypassSegment(p.ins[:len(input)], frames)
		return
	}

	for ch := range output {
		p.outs[ch] = output[ch][offset : offset+frames]
	}
	p.kernel.RenderSegment(p.ins[:len(input)], p.outs[:len(output)], frames)
}

// ensureViews only allocates when the channel count outgrows the views set
// up by StartProcessing, which can happen solely on a format change.
func (p *Processor[K]) ensureViews(channelCount int) {
	if len(p.ins) < channelCount {
		p.ins = make(bus.Buffers, channelCount)
	}
	if len(p.outs) < channelCount {
		p.outs = make(bus.Buffers, channelCount)
	}
}
