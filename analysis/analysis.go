// Package analysis summarizes rendered audio: per-channel peak and RMS
// levels and the dominant frequency of the channel mix.
package analysis

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-host/timeline"
)

// maxFrameSize caps the transform length used for the dominant frequency.
const maxFrameSize = 1 << 16

// ChannelStats holds the levels of one channel.
type ChannelStats struct {
	Peak float64
	RMS  float64
}

// PeakDB returns the peak in dBFS, -Inf for silence.
func (c ChannelStats) PeakDB() float64 { return toDB(c.Peak) }

// RMSDB returns the RMS level in dBFS, -Inf for silence.
func (c ChannelStats) RMSDB() float64 { return toDB(c.RMS) }

// Summary describes a rendered buffer.
type Summary struct {
	Frames     int
	Seconds    float64
	Channels   []ChannelStats
	DominantHz float64
}

// Peak returns the largest channel peak.
func (s Summary) Peak() float64 {
	peak := 0.0
	for _, c := range s.Channels {
		peak = math.Max(peak, c.Peak)
	}
	return peak
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	out := fmt.Sprintf("%d frames (%.3fs), dominant %.1f Hz", s.Frames, s.Seconds, s.DominantHz)
	for i, c := range s.Channels {
		out += fmt.Sprintf("; ch%d peak %.1f dBFS rms %.1f dBFS", i, c.PeakDB(), c.RMSDB())
	}
	return out
}

// Summarize measures buf. The dominant frequency is 0 when sampleRate is
// not positive or the buffer is too short or silent.
func Summarize(buf *timeline.Buffer, sampleRate float64) (Summary, error) {
	if buf == nil {
		return Summary{}, fmt.Errorf("analysis: nil buffer")
	}

	s := Summary{Frames: buf.Frames(), Channels: make([]ChannelStats, buf.Channels())}
	if sampleRate > 0 {
		s.Seconds = float64(buf.Frames()) / sampleRate
	}
	if buf.Frames() == 0 {
		return s, nil
	}

	squares := make([]float64, buf.Frames())
	for ch := range s.Channels {
		x := buf.Channel(ch)
		vecmath.MulBlock(squares, x, x)

		var sum, peak float64
		for i, sq := range squares {
			sum += sq
			peak = math.Max(peak, math.Abs(x[i]))
		}
		s.Channels[ch] = ChannelStats{Peak: peak, RMS: math.Sqrt(sum / float64(len(squares)))}
	}

	if sampleRate > 0 && buf.Channels() > 0 {
		hz, err := dominantFrequency(buf, sampleRate)
		if err != nil {
			return Summary{}, err
		}
		s.DominantHz = hz
	}
	return s, nil
}

// dominantFrequency finds the strongest bin of a Hann-windowed frame taken
// from the start of the channel mix, refined by parabolic interpolation.
func dominantFrequency(buf *timeline.Buffer, sampleRate float64) (float64, error) {
	n := 1
	for n*2 <= buf.Frames() && n*2 <= maxFrameSize {
		n *= 2
	}
	if n < 4 {
		return 0, nil
	}

	mix := make([]float64, n)
	for ch := 0; ch < buf.Channels(); ch++ {
		vecmath.AddBlockInPlace(mix, buf.Channel(ch)[:n])
	}
	window := hann(n)
	vecmath.MulBlockInPlace(mix, window)

	in := make([]complex128, n)
	for i, v := range mix {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, fmt.Errorf("analysis: fft plan %d: %w", n, err)
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return 0, fmt.Errorf("analysis: fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := 0; k < bins; k++ {
		re[k], im[k] = real(out[k]), imag(out[k])
	}
	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	best := 0
	for k := 1; k < bins; k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	if best == 0 || power[best] == 0 {
		return 0, nil
	}

	pos := float64(best)
	if best > 0 && best < bins-1 {
		a, b, c := power[best-1], power[best], power[best+1]
		if d := a - 2*b + c; d != 0 {
			pos += 0.5 * (a - c) / d
		}
	}
	return pos * sampleRate / float64(n), nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func toDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
