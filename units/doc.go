// Package units provides the processing units that ship with the host and
// the default registry the loader and graph builder resolve against.
//
// Units:
//   - gain: static gain in dB with a per-block ramp on changes.
//   - delay: feedback delay with dry/wet mix, per channel.
//   - reverb: Schroeder/Freeverb-style comb and allpass reverb, per channel.
//   - sine-synth: polyphonic sine instrument driven by MIDI notes.
//   - transpose: MIDI effect that shifts note numbers.
//   - passthrough: identity unit.
//
// Every unit exports and imports its parameters as a JSON state blob and
// accepts mono or stereo layouts.
package units
