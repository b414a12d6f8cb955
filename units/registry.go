package units

import (
	"sync"

	"github.com/cwbudde/algo-host/unit"
)

// Registered unit type names.
const (
	TypeGain        = "gain"
	TypeDelay       = "delay"
	TypeReverb      = "reverb"
	TypeSineSynth   = "sine-synth"
	TypeTranspose   = "transpose"
	TypePassthrough = "passthrough"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *unit.Registry
)

// DefaultRegistry returns the process-wide registry holding every built-in
// unit. It is built on first use and must not be modified afterwards.
func DefaultRegistry() *unit.Registry {
	defaultOnce.Do(func() {
		r := unit.NewRegistry()
		RegisterDefaults(r)
		defaultRegistry = r
	})
	return defaultRegistry
}

// RegisterDefaults registers all built-in units into r.
func RegisterDefaults(r *unit.Registry) {
	r.MustRegister(TypeGain, func(unit.Descriptor) (unit.Unit, error) {
		return NewGain(), nil
	})
	r.MustRegister(TypeDelay, func(unit.Descriptor) (unit.Unit, error) {
		return NewDelay(), nil
	})
	r.MustRegister(TypeReverb, func(unit.Descriptor) (unit.Unit, error) {
		return NewReverb(), nil
	})
	r.MustRegister(TypeSineSynth, func(unit.Descriptor) (unit.Unit, error) {
		return NewSineSynth(), nil
	})
	r.MustRegister(TypeTranspose, func(unit.Descriptor) (unit.Unit, error) {
		return NewTranspose(), nil
	})
	r.MustRegister(TypePassthrough, func(unit.Descriptor) (unit.Unit, error) {
		return NewPassthrough(), nil
	})
}
