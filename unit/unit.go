package unit

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-host/timeline"
)

// ErrLayoutUnsupported is returned by SetBusLayout when a unit cannot run
// with the requested layout. The unit keeps its previous layout.
var ErrLayoutUnsupported = errors.New("bus layout not supported")

// Unit is a stateful block processor. Process receives a buffer whose
// channel count is max(NumInputChannels, NumOutputChannels): inputs arrive in
// the leading channels and outputs are written over them in place. Events
// are both the incoming MIDI for the block and, for units that produce MIDI,
// the outgoing MIDI once Process returns.
//
// Units are not safe for concurrent use.
type Unit interface {
	Name() string

	NumInputChannels() int
	NumOutputChannels() int
	AcceptsMIDI() bool
	ProducesMIDI() bool

	BusLayout() BusLayout
	SetBusLayout(layout BusLayout) error

	Prepare(sampleRate float64, blockSize int) error
	Process(buf *timeline.Buffer, events *timeline.Sequence)

	State() ([]byte, error)
	SetState(data []byte) error

	SetNonRealtime(nonRealtime bool)
}

// ProcessChannels returns the channel count of the buffer a unit expects.
func ProcessChannels(u Unit) int {
	return max(u.NumInputChannels(), u.NumOutputChannels())
}

// Base implements the bookkeeping part of Unit. Embedders supply Name,
// Process, State and SetState, and may override any other method.
type Base struct {
	// Supports decides whether a layout can be applied. Nil accepts all.
	Supports func(BusLayout) bool

	MIDIIn  bool
	MIDIOut bool

	layout      BusLayout
	sampleRate  float64
	blockSize   int
	nonRealtime bool
}

// NewBase returns a Base with the given default layout.
func NewBase(layout BusLayout, supports func(BusLayout) bool) Base {
	return Base{Supports: supports, layout: layout.Clone()}
}

// NumInputChannels implements Unit.
func (b *Base) NumInputChannels() int { return b.layout.NumInputChannels() }

// NumOutputChannels implements Unit.
func (b *Base) NumOutputChannels() int { return b.layout.NumOutputChannels() }

// AcceptsMIDI implements Unit.
func (b *Base) AcceptsMIDI() bool { return b.MIDIIn }

// ProducesMIDI implements Unit.
func (b *Base) ProducesMIDI() bool { return b.MIDIOut }

// BusLayout implements Unit.
func (b *Base) BusLayout() BusLayout { return b.layout.Clone() }

// SetBusLayout implements Unit.
func (b *Base) SetBusLayout(layout BusLayout) error {
	if b.Supports != nil && !b.Supports(layout) {
		return fmt.Errorf("%w: in=%v out=%v", ErrLayoutUnsupported, layout.Inputs, layout.Outputs)
	}
	b.layout = layout.Clone()
	return nil
}

// Prepare implements Unit by recording the play configuration.
func (b *Base) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("prepare sample rate must be > 0: %f", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("prepare block size must be > 0: %d", blockSize)
	}
	b.sampleRate = sampleRate
	b.blockSize = blockSize
	return nil
}

// SampleRate returns the prepared sample rate, 0 before Prepare.
func (b *Base) SampleRate() float64 { return b.sampleRate }

// BlockSize returns the prepared block size, 0 before Prepare.
func (b *Base) BlockSize() int { return b.blockSize }

// SetNonRealtime implements Unit.
func (b *Base) SetNonRealtime(nonRealtime bool) { b.nonRealtime = nonRealtime }

// NonRealtime reports the flag set by SetNonRealtime.
func (b *Base) NonRealtime() bool { return b.nonRealtime }
