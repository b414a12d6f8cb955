package units

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// TransposeParams is the JSON state of Transpose.
type TransposeParams struct {
	Semitones int `json:"semitones"`
}

// Transpose shifts note-on and note-off keys. Notes pushed outside 0..127
// are dropped; all other messages and the audio pass through unchanged.
type Transpose struct {
	unit.Base

	params  TransposeParams
	scratch []timeline.Event
}

// NewTranspose returns a MIDI effect with a stereo audio pass-through.
func NewTranspose() *Transpose {
	t := &Transpose{Base: unit.NewBase(unit.SimpleLayout(2, 2), unit.MonoOrStereoInOut)}
	t.MIDIIn = true
	t.MIDIOut = true
	return t
}

// Name implements unit.Unit.
func (t *Transpose) Name() string { return TypeTranspose }

// Semitones returns the shift.
func (t *Transpose) Semitones() int { return t.params.Semitones }

// SetSemitones sets the shift, limited to +-48.
func (t *Transpose) SetSemitones(n int) error {
	if err := checkRange(TypeTranspose, "semitones", float64(n), -48, 48); err != nil {
		return err
	}
	t.params.Semitones = n
	return nil
}

// Process implements unit.Unit.
func (t *Transpose) Process(_ *timeline.Buffer, events *timeline.Sequence) {
	if t.params.Semitones == 0 || events.Len() == 0 {
		return
	}

	t.scratch = append(t.scratch[:0], events.Events()...)
	events.Clear()

	for _, ev := range t.scratch {
		msg, ok := t.shift(ev.Message)
		if !ok {
			continue
		}
		_ = events.Add(ev.Offset, msg)
	}
}

func (t *Transpose) shift(msg midi.Message) (midi.Message, bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		k, ok := t.key(key)
		if !ok {
			return nil, false
		}
		return midi.NoteOn(channel, k, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		k, ok := t.key(key)
		if !ok {
			return nil, false
		}
		return midi.NoteOff(channel, k), true
	}
	return msg, true
}

func (t *Transpose) key(key uint8) (uint8, bool) {
	k := int(key) + t.params.Semitones
	if k < 0 || k > 127 {
		return 0, false
	}
	return uint8(k), true
}

// State implements unit.Unit.
func (t *Transpose) State() ([]byte, error) {
	return marshalState(TypeTranspose, t.params)
}

// SetState implements unit.Unit.
func (t *Transpose) SetState(data []byte) error {
	p := t.params
	if err := unmarshalState(TypeTranspose, data, &p); err != nil {
		return err
	}
	return t.SetSemitones(p.Semitones)
}
