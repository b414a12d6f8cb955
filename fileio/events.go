package fileio

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-host/timeline"
)

type tickedMessage struct {
	tick  uint64
	track int
	msg   midi.Message
}

// ReadEvents decodes a Standard MIDI File into a sequence. Events of all
// tracks are merged; tick times go through the file's tempo map (120 BPM
// until the first tempo event, see smf.SMF.TimeAt) and become sample
// offsets int(sampleRate*seconds).
func (s *Store) ReadEvents(ctx context.Context, location string, sampleRate float64) (*timeline.Sequence, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("read %s: sample rate must be > 0: %f", location, sampleRate)
	}

	data, err := s.download(ctx, location)
	if err != nil {
		return nil, err
	}

	file, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}

	if ticks, ok := file.TimeFormat.(smf.MetricTicks); !ok || ticks == 0 {
		return nil, fmt.Errorf("decode %s: %w: time format %v", location, ErrUnsupportedFormat, file.TimeFormat)
	}

	var messages []tickedMessage
	for t, track := range file.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			messages = append(messages, tickedMessage{tick: abs, track: t, msg: midi.Message(ev.Message)})
		}
	}

	// Stable by tick; equal ticks keep track order then file order.
	slices.SortStableFunc(messages, func(a, b tickedMessage) int {
		switch {
		case a.tick < b.tick:
			return -1
		case a.tick > b.tick:
			return 1
		}
		return a.track - b.track
	})

	seq := timeline.NewSequence(len(messages))
	for _, m := range messages {
		offset := int(sampleRate * float64(file.TimeAt(int64(m.tick))) / 1e6)
		if err := seq.Add(offset, m.msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", location, err)
		}
	}
	return seq, nil
}
