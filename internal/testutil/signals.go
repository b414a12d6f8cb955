// Package testutil holds test helpers shared by the host packages:
// deterministic signals, buffer builders and tolerance checks.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-host/timeline"
)

// Sine generates a sine wave starting at phase 0.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise with a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at pos. Out-of-range positions give silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Buffer builds a timeline buffer from equal-length channel slices, failing
// t when they differ.
func Buffer(t testing.TB, channels ...[]float64) *timeline.Buffer {
	t.Helper()
	buf, err := timeline.FromChannels(channels)
	if err != nil {
		t.Fatalf("testutil.Buffer: %v", err)
	}
	return buf
}
