// Package timeline provides the in-memory representations a render works
// on: a rectangular multichannel sample Buffer and an ordered Sequence of
// timestamped MIDI events with a forward-only Cursor.
//
// Offsets are expressed in samples relative to the origin of the buffer or
// block that the sequence accompanies.
package timeline
