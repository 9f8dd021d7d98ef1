package source

import (
	"math"
	"testing"
)

func TestSineFrequency(t *testing.T) {
	const (
		rate = 48000.0
		freq = 1000.0
	)
	s := NewSine(rate, freq, 1)
	buf := make([]float32, 48000)
	s.Fill(buf)

	// Count zero crossings; a 1 kHz sine over one second has 2000.
	crossings := 0
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] < 0) != (buf[i] < 0) {
			crossings++
		}
	}
	if crossings < 1998 || crossings > 2002 {
		t.Errorf("zero crossings: got %d, want ~2000", crossings)
	}
}

func TestSineAmplitude(t *testing.T) {
	s := NewSine(44100, 440, 0.5)
	buf := make([]float32, 4096)
	s.Fill(buf)
	var peak float32
	for _, v := range buf {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	if peak > 0.5+1e-6 || peak < 0.49 {
		t.Errorf("peak: got %v, want ~0.5", peak)
	}
}

func TestSawRange(t *testing.T) {
	s := NewSaw(44100, 220, 1)
	buf := make([]float32, 4096)
	s.Fill(buf)
	for i, v := range buf {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoise(42, 1)
	b := NewNoise(42, 1)
	bufA := make([]float32, 512)
	bufB := make([]float32, 512)
	a.Fill(bufA)
	b.Fill(bufB)
	for i := range bufA {
		if bufA[i] != bufB[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, bufA[i], bufB[i])
		}
	}
}

func TestNoiseRangeAndZeroSeed(t *testing.T) {
	n := NewNoise(0, 0.8)
	buf := make([]float32, 8192)
	n.Fill(buf)
	var sum float64
	for i, v := range buf {
		if v < -0.8 || v >= 0.8 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
		sum += float64(v)
	}
	if mean := sum / float64(len(buf)); math.Abs(mean) > 0.05 {
		t.Errorf("mean: got %v, want near 0", mean)
	}
}
