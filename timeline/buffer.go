package timeline

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Buffer is a fixed channels x frames block of float64 samples.
// Dimensions never change after construction.
type Buffer struct {
	channels [][]float64
	frames   int
}

// NewBuffer returns a zero-filled Buffer.
func NewBuffer(channels, frames int) (*Buffer, error) {
	if channels < 0 {
		return nil, fmt.Errorf("buffer channels must be >= 0: %d", channels)
	}
	if frames < 0 {
		return nil, fmt.Errorf("buffer frames must be >= 0: %d", frames)
	}

	// One backing array keeps the channels contiguous.
	backing := make([]float64, channels*frames)
	b := &Buffer{channels: make([][]float64, channels), frames: frames}
	for ch := range b.channels {
		b.channels[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return b, nil
}

// MustBuffer is like NewBuffer but panics on invalid dimensions.
func MustBuffer(channels, frames int) *Buffer {
	b, err := NewBuffer(channels, frames)
	if err != nil {
		panic("timeline: " + err.Error())
	}
	return b
}

// FromChannels wraps existing channel slices without copying. All slices
// must share the same length.
func FromChannels(data [][]float64) (*Buffer, error) {
	frames := 0
	if len(data) > 0 {
		frames = len(data[0])
	}
	for ch, s := range data {
		if len(s) != frames {
			return nil, fmt.Errorf("channel %d has %d frames, want %d", ch, len(s), frames)
		}
	}
	return &Buffer{channels: data, frames: frames}, nil
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.channels)
}

// Frames returns the number of frames per channel.
func (b *Buffer) Frames() int {
	return b.frames
}

// Channel returns the samples of channel ch. Mutations are visible
// through the Buffer.
func (b *Buffer) Channel(ch int) []float64 {
	return b.channels[ch]
}

// Clear sets every sample to 0.
func (b *Buffer) Clear() {
	for _, s := range b.channels {
		clear(s)
	}
}

// ClearRange zeroes n frames starting at start on every channel.
// The range is clamped to the buffer.
func (b *Buffer) ClearRange(start, n int) {
	start, end := clampRange(start, start+n, b.frames)
	for _, s := range b.channels {
		clear(s[start:end])
	}
}

// ClearChannel zeroes one channel.
func (b *Buffer) ClearChannel(ch int) {
	clear(b.channels[ch])
}

// CopyFrom copies n frames of channel srcCh of src starting at srcStart into
// channel dstCh of b starting at dstStart. The count is truncated to what
// both sides can hold; the number of copied frames is returned.
func (b *Buffer) CopyFrom(dstCh, dstStart int, src *Buffer, srcCh, srcStart, n int) int {
	if n <= 0 || dstStart < 0 || srcStart < 0 {
		return 0
	}
	if dstStart+n > b.frames {
		n = b.frames - dstStart
	}
	if srcStart+n > src.frames {
		n = src.frames - srcStart
	}
	if n <= 0 {
		return 0
	}
	return copy(b.channels[dstCh][dstStart:dstStart+n], src.channels[srcCh][srcStart:srcStart+n])
}

// AddFrom mixes n frames of src into b with the same truncation rules as
// CopyFrom.
func (b *Buffer) AddFrom(dstCh, dstStart int, src *Buffer, srcCh, srcStart, n int) int {
	if n <= 0 || dstStart < 0 || srcStart < 0 {
		return 0
	}
	if dstStart+n > b.frames {
		n = b.frames - dstStart
	}
	if srcStart+n > src.frames {
		n = src.frames - srcStart
	}
	if n <= 0 {
		return 0
	}
	vecmath.AddBlockInPlace(b.channels[dstCh][dstStart:dstStart+n], src.channels[srcCh][srcStart:srcStart+n])
	return n
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := MustBuffer(len(b.channels), b.frames)
	for ch, s := range b.channels {
		copy(out.channels[ch], s)
	}
	return out
}

func clampRange(start, end, limit int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > limit {
		end = limit
	}
	if end < start {
		end = start
	}
	return start, end
}
