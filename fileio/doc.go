// Package fileio reads and writes the files a render consumes and produces:
// PCM WAV audio and Standard MIDI Files.
//
// All access goes through an afs.Service, so locations may be local paths,
// file:// URLs or any other scheme afs supports (mem:// in tests).
package fileio
