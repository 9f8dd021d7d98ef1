// Package source provides test and demo signal generators. They feed the
// filter unit in the demo program and serve as broadband stimuli in tests.
package source

import "math"

// Source produces successive blocks of mono samples.
type Source interface {
	// Fill writes the next len(buf) samples into buf.
	Fill(buf []float32)
}

// Sine is a fixed-amplitude sine generator.
type Sine struct {
	amplitude float64
	phase     float64
	phaseInc  float64
	rate      float64
}

// NewSine returns a sine source at the given frequency.
func NewSine(sampleRate, freqHz, amplitude float64) *Sine {
	s := &Sine{amplitude: amplitude, rate: sampleRate}
	s.SetFrequency(freqHz)
	return s
}

// SetFrequency changes the oscillator frequency without resetting phase.
func (s *Sine) SetFrequency(freqHz float64) {
	s.phaseInc = freqHz / s.rate
}

func (s *Sine) Fill(buf []float32) {
	for i := range buf {
		buf[i] = float32(s.amplitude * math.Sin(2*math.Pi*s.phase))
		s.phase += s.phaseInc
		if s.phase >= 1 {
			s.phase -= math.Floor(s.phase)
		}
	}
}

// Saw is a naive sawtooth generator. It aliases above a few kHz, which is
// fine for feeding a low-pass demo where the harmonics are the point.
type Saw struct {
	amplitude float64
	phase     float64
	phaseInc  float64
}

// NewSaw returns a sawtooth source at the given frequency.
func NewSaw(sampleRate, freqHz, amplitude float64) *Saw {
	return &Saw{amplitude: amplitude, phaseInc: freqHz / sampleRate}
}

func (s *Saw) Fill(buf []float32) {
	for i := range buf {
		buf[i] = float32(s.amplitude * (2*s.phase - 1))
		s.phase += s.phaseInc
		if s.phase >= 1 {
			s.phase -= 1
		}
	}
}

// Noise is a white noise generator backed by an xorshift64 PRNG. It is
// deterministic for a given seed, which keeps tests repeatable.
type Noise struct {
	amplitude float64
	state     uint64
}

// NewNoise returns a white noise source. A zero seed is replaced with a
// fixed nonzero default since xorshift cannot leave the zero state.
func NewNoise(seed uint64, amplitude float64) *Noise {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Noise{amplitude: amplitude, state: seed}
}

func (n *Noise) next() uint64 {
	x := n.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	n.state = x
	return x
}

func (n *Noise) Fill(buf []float32) {
	for i := range buf {
		// Map the top 24 bits onto [-1, 1).
		v := float64(n.next()>>40)/float64(1<<23) - 1
		buf[i] = float32(n.amplitude * v)
	}
}
