// Command lpfdemo plays a signal source through the low-pass filter unit
// and sweeps the cutoff so the filter is audible. It doubles as a smoke
// test for the whole render path outside a plugin host.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/auv3go/pkg/dsp/source"
	"github.com/justyntemme/auv3go/pkg/framework/bus"
	"github.com/justyntemme/auv3go/pkg/framework/debug"
	"github.com/justyntemme/auv3go/pkg/framework/event"
	"github.com/justyntemme/auv3go/pkg/lowpass"
)

const (
	sampleRate   = 44100
	channelCount = 2
	blockFrames  = 512
)

func main() {
	var (
		wave      = flag.String("wave", "saw", "source waveform: saw, sine or noise")
		freq      = flag.Float64("freq", 110, "source frequency in Hz (saw and sine)")
		resonance = flag.Float64("resonance", 10, "filter resonance in dB")
		duration  = flag.Duration("duration", 8*time.Second, "playback duration")
		sweepLow  = flag.Float64("sweep-low", 200, "sweep low cutoff in Hz")
		sweepHigh = flag.Float64("sweep-high", 8000, "sweep high cutoff in Hz")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	log := debug.Default()
	if *verbose {
		log.SetLevel(debug.LogLevelDebug)
	}

	src, err := newSource(*wave, *freq)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	unit := lowpass.New()
	unit.SetParameter(lowpass.AddressResonance, *resonance)
	unit.AllocateRenderResources(sampleRate, channelCount, blockFrames)
	defer unit.DeallocateRenderResources()

	stream := &filterStream{
		unit:      unit,
		src:       src,
		sweepLow:  *sweepLow,
		sweepHigh: *sweepHigh,
		// One full up-and-down sweep every four seconds.
		sweepFrames: 4 * sampleRate,
		log:         log,
	}
	stream.allocate()

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
		BufferSize:   100 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "audio init:", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(stream)
	log.Info("playing %s through low-pass, cutoff %g-%g Hz, resonance %g dB",
		*wave, *sweepLow, *sweepHigh, *resonance)
	player.Play()
	time.Sleep(*duration)
	if err := player.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "player close:", err)
	}
}

func newSource(wave string, freq float64) (source.Source, error) {
	switch wave {
	case "saw":
		return source.NewSaw(sampleRate, freq, 0.4), nil
	case "sine":
		return source.NewSine(sampleRate, freq, 0.4), nil
	case "noise":
		return source.NewNoise(0, 0.25), nil
	}
	return nil, fmt.Errorf("unknown waveform %q", wave)
}

// filterStream renders blocks on demand for the audio player. Each Read
// pulls one block from the source, schedules the next cutoff sweep point
// as a ramped parameter event and hands the block to the filter unit.
type filterStream struct {
	unit *lowpass.Unit
	src  source.Source
	log  *debug.Logger

	sweepLow    float64
	sweepHigh   float64
	sweepFrames int64

	timestamp int64
	mono      []float32
	input     bus.Buffers
	output    bus.Buffers
	pending   []byte
}

func (s *filterStream) allocate() {
	s.mono = make([]float32, blockFrames)
	s.input = make(bus.Buffers, channelCount)
	s.output = make(bus.Buffers, channelCount)
	for ch := range s.input {
		s.input[ch] = make([]float32, blockFrames)
		s.output[ch] = make([]float32, blockFrames)
	}
	s.pending = make([]byte, 0, blockFrames*channelCount*4)
}

// cutoff returns the sweep target at the given sample time: a triangle
// sweep between sweepLow and sweepHigh, exponential in frequency so the
// motion sounds even across octaves.
func (s *filterStream) cutoff(at int64) float64 {
	pos := float64(at%s.sweepFrames) / float64(s.sweepFrames)
	tri := 2 * pos
	if tri > 1 {
		tri = 2 - tri
	}
	return s.sweepLow * math.Pow(s.sweepHigh/s.sweepLow, tri)
}

func (s *filterStream) renderBlock() {
	s.src.Fill(s.mono)
	for ch := range s.input {
		copy(s.input[ch], s.mono)
	}

	ev := &event.Event{
		SampleTime: s.timestamp,
		Type:       event.TypeParameterRamp,
		Parameter: event.ParameterEvent{
			Address:            lowpass.AddressCutoff,
			Value:              s.cutoff(s.timestamp + blockFrames),
			RampDurationFrames: blockFrames,
		},
	}
	s.unit.Render(s.timestamp, blockFrames, s.input, s.output, ev)
	s.timestamp += blockFrames

	s.pending = s.pending[:0]
	var scratch [4]byte
	for i := range blockFrames {
		for ch := range s.output {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(s.output[ch][i]))
			s.pending = append(s.pending, scratch[:]...)
		}
	}
}

func (s *filterStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		s.renderBlock()
		s.log.Debug("rendered block at %d, cutoff %.1f Hz",
			s.timestamp, s.cutoff(s.timestamp))
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

var _ io.Reader = (*filterStream)(nil)
