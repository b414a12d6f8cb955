package render

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-host/internal/logging"
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// ErrInvalidConfig is returned when a render is requested with settings or
// a unit that violate the engine contract. Nothing is allocated or
// processed in that case.
var ErrInvalidConfig = errors.New("invalid render configuration")

// eventOutputChannels is the fixed channel count of an event-driven render.
const eventOutputChannels = 2

// Engine renders units offline. The zero value is not usable; set
// SampleRate and BlockSize or use New.
type Engine struct {
	SampleRate  float64
	BlockSize   int
	TailSeconds int

	Logger   *slog.Logger
	Observer Observer
}

// New returns an Engine with default settings and opts applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// TailFrames returns the tail length in frames.
func (e *Engine) TailFrames() int {
	return int(math.Ceil(e.SampleRate * float64(e.TailSeconds)))
}

// NumBlocks returns ceil((frames + tail) / blockSize).
func (e *Engine) NumBlocks(frames int) int {
	if e.BlockSize <= 0 {
		return 0
	}
	total := frames + e.TailFrames()
	return (total + e.BlockSize - 1) / e.BlockSize
}

// RenderAudio processes in through u and returns a buffer with the input's
// channel count and NumBlocks(in.Frames())*BlockSize frames. The unit must
// already be prepared for the engine's sample rate and block size.
func (e *Engine) RenderAudio(u unit.Unit, in *timeline.Buffer) (*timeline.Buffer, error) {
	if err := e.validate(u); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: nil input buffer", ErrInvalidConfig)
	}

	unitChannels := unit.ProcessChannels(u)
	inChannels := in.Channels()
	if inChannels == 0 {
		return nil, fmt.Errorf("%w: input has no channels", ErrInvalidConfig)
	}
	if inChannels > unitChannels {
		return nil, fmt.Errorf("%w: input has %d channels, unit %q processes %d",
			ErrInvalidConfig, inChannels, u.Name(), unitChannels)
	}

	numBlocks := e.NumBlocks(in.Frames())
	totalFrames := numBlocks * e.BlockSize

	padded := timeline.MustBuffer(inChannels, totalFrames)
	for ch := 0; ch < inChannels; ch++ {
		padded.CopyFrom(ch, 0, in, ch, 0, in.Frames())
	}
	out := timeline.MustBuffer(inChannels, totalFrames)

	block := timeline.MustBuffer(unitChannels, e.BlockSize)
	events := timeline.NewSequence(0)

	u.SetNonRealtime(true)
	log := e.logger()
	log.Debug("audio render started",
		"unit", u.Name(),
		"input_frames", in.Frames(),
		"channels", inChannels,
		"unit_channels", unitChannels,
		"blocks", numBlocks,
	)

	for i := 0; i < numBlocks; i++ {
		start := i * e.BlockSize

		block.Clear()
		for ch := 0; ch < inChannels; ch++ {
			block.CopyFrom(ch, 0, padded, ch, start, e.BlockSize)
		}
		events.Clear()

		began := time.Now()
		u.Process(block, events)
		e.blockRendered(ModeAudio, i, time.Since(began))

		for ch := 0; ch < inChannels; ch++ {
			out.CopyFrom(ch, start, block, ch, 0, e.BlockSize)
		}
	}

	e.finished(ModeAudio, numBlocks, totalFrames)
	log.Debug("audio render finished", "unit", u.Name(), "frames", totalFrames)

	return out, nil
}

// RenderEvents drives an instrument-style unit with seq and returns a
// stereo buffer. Each event is delivered to exactly one block with its
// offset rebased to the block start.
func (e *Engine) RenderEvents(u unit.Unit, seq *timeline.Sequence) (*timeline.Buffer, error) {
	if err := e.validate(u); err != nil {
		return nil, err
	}
	if seq == nil {
		seq = timeline.NewSequence(0)
	}

	lastOffset := seq.LastOffset()
	numBlocks := e.NumBlocks(lastOffset)
	if seq.Len() > 0 && lastOffset >= numBlocks*e.BlockSize {
		// The last event sits exactly on the end of the computed range.
		numBlocks++
	}
	totalFrames := numBlocks * e.BlockSize

	unitChannels := unit.ProcessChannels(u)
	copyChannels := min(eventOutputChannels, unitChannels)

	out := timeline.MustBuffer(eventOutputChannels, totalFrames)
	block := timeline.MustBuffer(unitChannels, e.BlockSize)
	blockEvents := timeline.NewSequence(0)
	cursor := seq.Cursor()

	u.SetNonRealtime(true)
	log := e.logger()
	log.Debug("event render started",
		"unit", u.Name(),
		"events", seq.Len(),
		"last_offset", lastOffset,
		"blocks", numBlocks,
	)

	for i := 0; i < numBlocks; i++ {
		start := i * e.BlockSize
		end := start + e.BlockSize

		if dropped := drainBlock(cursor, start, end, blockEvents); dropped > 0 {
			log.Warn("events before block start dropped", "unit", u.Name(), "block", i, "count", dropped)
		}
		block.Clear()

		began := time.Now()
		u.Process(block, blockEvents)
		e.blockRendered(ModeEvents, i, time.Since(began))

		for ch := 0; ch < copyChannels; ch++ {
			out.CopyFrom(ch, start, block, ch, 0, e.BlockSize)
		}
	}

	if rest := cursor.Remaining(); rest > 0 {
		log.Warn("events left undelivered", "unit", u.Name(), "count", rest)
	}

	e.finished(ModeEvents, numBlocks, totalFrames)
	log.Debug("event render finished", "unit", u.Name(), "frames", totalFrames)

	return out, nil
}

// drainBlock replaces dst with every event of c whose offset lies in
// [start, end), rebased to start. Later events stay in the cursor. Events
// before start are consumed without delivery and counted.
func drainBlock(c *timeline.Cursor, start, end int, dst *timeline.Sequence) (dropped int) {
	dst.Clear()
	for {
		ev, ok := c.Peek()
		if !ok || ev.Offset >= end {
			return dropped
		}
		c.Next()
		if ev.Offset < start {
			dropped++
			continue
		}
		_ = dst.Add(ev.Offset-start, ev.Message)
	}
}

func (e *Engine) validate(u unit.Unit) error {
	if e.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be > 0: %d", ErrInvalidConfig, e.BlockSize)
	}
	if e.SampleRate <= 0 || math.IsNaN(e.SampleRate) || math.IsInf(e.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidConfig, e.SampleRate)
	}
	if e.TailSeconds < 0 {
		return fmt.Errorf("%w: tail seconds must be >= 0: %d", ErrInvalidConfig, e.TailSeconds)
	}
	if u == nil {
		return fmt.Errorf("%w: nil unit", ErrInvalidConfig)
	}
	if unit.ProcessChannels(u) == 0 {
		return fmt.Errorf("%w: unit %q reports no channels", ErrInvalidConfig, u.Name())
	}
	return nil
}

func (e *Engine) blockRendered(mode Mode, index int, elapsed time.Duration) {
	if e.Observer != nil {
		e.Observer.BlockRendered(mode, index, elapsed)
	}
}

func (e *Engine) finished(mode Mode, blocks, frames int) {
	if e.Observer != nil {
		e.Observer.RenderFinished(mode, blocks, frames)
	}
}

func (e *Engine) logger() *slog.Logger {
	return logging.OrNop(e.Logger)
}
