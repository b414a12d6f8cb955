// Package render drives a processing unit block by block over a finite,
// zero-padded timeline and collects its output.
//
// Two entry points exist. RenderAudio feeds an input buffer through an
// effect-style unit; RenderEvents feeds a MIDI sequence to an
// instrument-style unit. Both append a whole-second tail of silence so
// reverbs, delays and release envelopes can decay, and both always produce
// an output whose length is an exact multiple of the block size.
package render
