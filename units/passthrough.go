package units

import (
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// Passthrough leaves audio and MIDI untouched.
type Passthrough struct {
	unit.Base
}

// NewPassthrough returns a stereo passthrough that also forwards MIDI.
func NewPassthrough() *Passthrough {
	p := &Passthrough{Base: unit.NewBase(unit.SimpleLayout(2, 2), unit.MonoOrStereoInOut)}
	p.MIDIIn = true
	p.MIDIOut = true
	return p
}

// Name implements unit.Unit.
func (p *Passthrough) Name() string { return TypePassthrough }

// Process implements unit.Unit.
func (p *Passthrough) Process(*timeline.Buffer, *timeline.Sequence) {}

// State implements unit.Unit. Passthrough has no parameters.
func (p *Passthrough) State() ([]byte, error) { return []byte("{}"), nil }

// SetState implements unit.Unit. Any JSON value is accepted.
func (p *Passthrough) SetState(data []byte) error {
	var v any
	return unmarshalState(TypePassthrough, data, &v)
}
