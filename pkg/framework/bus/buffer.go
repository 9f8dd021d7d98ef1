// Package bus provides multichannel sample buffers for the render path.
package bus

import (
	"errors"
	"fmt"
)

// Errors reported by the input pull path.
var (
	// ErrNoConnection means no pull function was supplied for the render call.
	ErrNoConnection = errors.New("bus: no input connection")
	// ErrTooManyFrames means the host asked for more frames than were allocated.
	ErrTooManyFrames = errors.New("bus: frame count exceeds allocated capacity")
)

// Buffers is a borrowed view over parallel channel slices. All channels hold
// the same number of frames. A view's lifetime never exceeds one render call.
type Buffers [][]float32

// ChannelCount returns the number of channels in the view.
func (b Buffers) ChannelCount() int {
	return len(b)
}

// Frames returns the per-channel frame count.
func (b Buffers) Frames() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Slice returns a sub-view starting at offset and spanning frames samples.
// Bounds are checked by the runtime through the slice expressions.
func (b Buffers) Slice(offset, frames int) Buffers {
	out := make(Buffers, len(b))
	for ch := range b {
		out[ch] = b[ch][offset : offset+frames]
	}
	return out
}

// Clear zeroes every channel.
func (b Buffers) Clear() {
	for ch := range b {
		for i := range b[ch] {
			b[ch][i] = 0
		}
	}
}

// CopyFrom copies matching channels from src, skipping aliased channels.
func (b Buffers) CopyFrom(src Buffers) {
	n := len(b)
	if len(src) < n {
		n = len(src)
	}
	for ch := 0; ch < n; ch++ {
		if len(b[ch]) > 0 && len(src[ch]) > 0 && &b[ch][0] == &src[ch][0] {
			continue
		}
		copy(b[ch], src[ch])
	}
}

// Aliases reports whether b and other share the same backing storage for
// every channel. Computed once per render call, never per sample.
func (b Buffers) Aliases(other Buffers) bool {
	if len(b) != len(other) {
		return false
	}
	for ch := range b {
		if len(b[ch]) == 0 || len(other[ch]) == 0 {
			if len(b[ch]) != len(other[ch]) {
				return false
			}
			continue
		}
		if &b[ch][0] != &other[ch][0] {
			return false
		}
	}
	return true
}

// PullFunc obtains frameCount frames of upstream audio for the given bus and
// writes them into dst. It runs on the render thread and must not block.
type PullFunc func(timestamp int64, frameCount int, busNumber int, dst Buffers) error

// InputBuffer owns pre-allocated multichannel storage used to hold samples
// pulled from an upstream node. Allocation happens only in SetFormat, never
// during rendering.
type InputBuffer struct {
	storage   Buffers
	view      Buffers // re-sliced per call, no allocation on the render path
	maxFrames int
}

// SetFormat allocates storage for the given channel count and maximum frame
// count. Call only while rendering is stopped.
func (ib *InputBuffer) SetFormat(channelCount, maxFrames int) {
	ib.storage = make(Buffers, channelCount)
	ib.view = make(Buffers, channelCount)
	for ch := range ib.storage {
		ib.storage[ch] = make([]float32, maxFrames)
		ib.view[ch] = ib.storage[ch][:0]
	}
	ib.maxFrames = maxFrames
}

// Release frees the allocated storage.
func (ib *InputBuffer) Release() {
	ib.storage = nil
	ib.view = nil
	ib.maxFrames = 0
}

// ChannelCount returns the allocated channel count.
func (ib *InputBuffer) ChannelCount() int {
	return len(ib.storage)
}

// MaxFrames returns the allocated per-channel capacity.
func (ib *InputBuffer) MaxFrames() int {
	return ib.maxFrames
}

// Buffers returns the view holding the most recently pulled frames.
func (ib *InputBuffer) Buffers() Buffers {
	return ib.view
}

// PullInput fills the internal storage with frameCount frames from pull.
// On error the buffer is marked empty and the error is returned unchanged
// so the caller can propagate it to the host. Allocation-free.
func (ib *InputBuffer) PullInput(pull PullFunc, timestamp int64, frameCount, busNumber int) (Buffers, error) {
	if pull == nil {
		ib.markEmpty()
		return nil, ErrNoConnection
	}
	if frameCount > ib.maxFrames {
		ib.markEmpty()
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFrames, frameCount, ib.maxFrames)
	}

	for ch := range ib.storage {
		ib.view[ch] = ib.storage[ch][:frameCount]
	}
	if err := pull(timestamp, frameCount, busNumber, ib.view); err != nil {
		ib.markEmpty()
		return nil, err
	}
	return ib.view, nil
}

func (ib *InputBuffer) markEmpty() {
	for ch := range ib.view {
		ib.view[ch] = ib.storage[ch][:0]
	}
}
