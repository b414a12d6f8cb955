package fileio

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"

	"github.com/cwbudde/algo-host/timeline"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xfffe
)

// AudioInfo describes a decoded audio file.
type AudioInfo struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Frames     int
}

// ReadAudio decodes a PCM WAV file into a buffer with the file's channel
// count. Samples are scaled to [-1, 1).
func (s *Store) ReadAudio(ctx context.Context, location string) (*timeline.Buffer, AudioInfo, error) {
	data, err := s.download(ctx, location)
	if err != nil {
		return nil, AudioInfo{}, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w: not a WAV file", location, ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w: WAV format tag %d", location, ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w", location, err)
	}

	info := AudioInfo{
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
		Channels:   int(dec.NumChans),
	}
	if info.Channels <= 0 {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w: %d channels", location, ErrUnsupportedFormat, info.Channels)
	}
	if err := checkBitDepth(info.BitDepth); err != nil {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w", location, err)
	}
	info.Frames = len(pcm.Data) / info.Channels

	buf, err := timeline.NewBuffer(info.Channels, info.Frames)
	if err != nil {
		return nil, AudioInfo{}, fmt.Errorf("decode %s: %w", location, err)
	}
	scale, offset := pcmScale(info.BitDepth)
	for i := 0; i < info.Frames; i++ {
		for ch := 0; ch < info.Channels; ch++ {
			buf.Channel(ch)[i] = float64(pcm.Data[i*info.Channels+ch]-offset) / scale
		}
	}

	return buf, info, nil
}

// WriteAudio encodes buf as PCM WAV, replacing location. Samples are
// clamped to the representable range.
func (s *Store) WriteAudio(ctx context.Context, location string, buf *timeline.Buffer, sampleRate, bitDepth int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("write %s: sample rate must be > 0: %d", location, sampleRate)
	}
	if err := checkBitDepth(bitDepth); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	if buf == nil || buf.Channels() == 0 {
		return fmt.Errorf("write %s: no channels to write", location)
	}

	channels, frames := buf.Channels(), buf.Frames()
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, channels*frames),
		SourceBitDepth: bitDepth,
	}
	scale, offset := pcmScale(bitDepth)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			pcm.Data[i*channels+ch] = quantize(buf.Channel(ch)[i], scale, offset)
		}
	}

	// The encoder patches the RIFF and data chunk sizes on Close.
	out := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, wavFormatPCM)
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("encode %s: %w", location, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", location, err)
	}

	return s.uploadFrom(ctx, location, out.BytesReader())
}

func checkBitDepth(bits int) error {
	switch bits {
	case 8, 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bits)
}

// pcmScale returns the full-scale divisor and the zero offset of a PCM
// word size. 8-bit WAV is unsigned.
func pcmScale(bits int) (float64, int) {
	scale := math.Ldexp(1, bits-1)
	if bits == 8 {
		return scale, 128
	}
	return scale, 0
}

func quantize(v, scale float64, offset int) int {
	if math.IsNaN(v) {
		v = 0
	}
	q := math.Round(v * scale)
	q = math.Max(-scale, math.Min(scale-1, q))
	return int(q) + offset
}
