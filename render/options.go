package render

import (
	"log/slog"
	"time"
)

// Default engine settings.
const (
	DefaultSampleRate = 44100.0
	DefaultBlockSize  = 512
)

// Mode names the kind of render for observers.
type Mode string

// Render modes.
const (
	ModeAudio  Mode = "audio"
	ModeEvents Mode = "events"
)

// Observer receives progress notifications. Implementations must be cheap;
// they run inside the block loop.
type Observer interface {
	BlockRendered(mode Mode, index int, elapsed time.Duration)
	RenderFinished(mode Mode, blocks, frames int)
}

// Option mutates an Engine.
type Option func(*Engine)

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(e *Engine) {
		e.SampleRate = sampleRate
	}
}

// WithBlockSize sets the processing block size in frames.
func WithBlockSize(blockSize int) Option {
	return func(e *Engine) {
		e.BlockSize = blockSize
	}
}

// WithTailSeconds sets the silent tail appended after the input.
func WithTailSeconds(seconds int) Option {
	return func(e *Engine) {
		e.TailSeconds = seconds
	}
}

// WithLogger sets the logger used for render progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = logger
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.Observer = o
	}
}
