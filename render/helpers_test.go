package render

import (
	"time"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// recordingUnit scales its input and remembers what every block received.
type recordingUnit struct {
	unit.Base

	gain        float64
	fill        float64
	blockFrames []int
	blockEvents [][]int
}

func newRecordingUnit(in, out int) *recordingUnit {
	return &recordingUnit{Base: unit.NewBase(unit.SimpleLayout(in, out), nil), gain: 1}
}

func (r *recordingUnit) Name() string { return "recording" }

func (r *recordingUnit) Process(buf *timeline.Buffer, events *timeline.Sequence) {
	r.blockFrames = append(r.blockFrames, buf.Frames())

	offsets := make([]int, 0, events.Len())
	for _, ev := range events.Events() {
		offsets = append(offsets, ev.Offset)
	}
	r.blockEvents = append(r.blockEvents, offsets)

	for ch := 0; ch < buf.Channels(); ch++ {
		s := buf.Channel(ch)
		for i := range s {
			s[i] = s[i]*r.gain + r.fill
		}
	}
}

func (r *recordingUnit) State() ([]byte, error) { return nil, nil }

func (r *recordingUnit) SetState([]byte) error { return nil }

type countingObserver struct {
	blocks   int
	finished int
	frames   int
	mode     Mode
}

func (c *countingObserver) BlockRendered(mode Mode, _ int, _ time.Duration) {
	c.mode = mode
	c.blocks++
}

func (c *countingObserver) RenderFinished(_ Mode, _ int, frames int) {
	c.finished++
	c.frames = frames
}
