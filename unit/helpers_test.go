package unit

import (
	"errors"

	"github.com/cwbudde/algo-host/timeline"
)

// stubUnit records the calls the loader makes.
type stubUnit struct {
	Base

	name     string
	state    []byte
	stateErr error
}

func newStubUnit(name string) *stubUnit {
	return &stubUnit{
		Base: NewBase(SimpleLayout(2, 2), MonoOrStereoInOut),
		name: name,
	}
}

func (s *stubUnit) Name() string { return s.name }

func (s *stubUnit) Process(_ *timeline.Buffer, _ *timeline.Sequence) {}

func (s *stubUnit) State() ([]byte, error) { return s.state, nil }

func (s *stubUnit) SetState(data []byte) error {
	if s.stateErr != nil {
		return s.stateErr
	}
	s.state = append([]byte(nil), data...)
	return nil
}

var errStubFactory = errors.New("stub factory failure")

func testRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("stub", func(_ Descriptor) (Unit, error) {
		return newStubUnit("stub"), nil
	})
	r.MustRegister("broken", func(_ Descriptor) (Unit, error) {
		return nil, errStubFactory
	})
	r.MustRegister("picky", func(_ Descriptor) (Unit, error) {
		u := newStubUnit("picky")
		u.stateErr = errors.New("bad state")
		return u, nil
	})
	r.MustRegister("synth", func(_ Descriptor) (Unit, error) {
		u := &stubUnit{Base: NewBase(SimpleLayout(0, 2), MonoOrStereoOut), name: "synth"}
		u.MIDIIn = true
		return u, nil
	})

	return r
}
