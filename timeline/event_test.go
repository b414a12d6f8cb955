package timeline

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestSequenceOrdering(t *testing.T) {
	t.Parallel()

	s := NewSequence(0)
	s.MustAdd(10, midi.NoteOn(0, 60, 100))
	s.MustAdd(5, midi.NoteOn(0, 61, 100))
	s.MustAdd(10, midi.NoteOff(0, 60))
	s.MustAdd(0, midi.NoteOn(0, 62, 100))
	s.MustAdd(5, midi.NoteOff(0, 61))

	wantOffsets := []int{0, 5, 5, 10, 10}
	if s.Len() != len(wantOffsets) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if got := s.At(i).Offset; got != want {
			t.Fatalf("event %d offset = %d, want %d", i, got, want)
		}
	}

	// Ties keep insertion order.
	var ch, key, vel uint8
	if !s.At(1).Message.GetNoteOn(&ch, &key, &vel) || key != 61 {
		t.Fatalf("event 1 = %v, want note on 61", s.At(1))
	}
	if !s.At(4).Message.GetNoteOff(&ch, &key, &vel) || key != 60 {
		t.Fatalf("event 4 = %v, want note off 60", s.At(4))
	}

	if s.LastOffset() != 10 {
		t.Fatalf("LastOffset() = %d, want 10", s.LastOffset())
	}
}

func TestSequenceRejectsNegativeOffset(t *testing.T) {
	t.Parallel()

	s := NewSequence(1)
	if err := s.Add(-1, midi.NoteOn(0, 60, 1)); err == nil {
		t.Fatal("expected error for negative offset")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestCursorIsForwardOnly(t *testing.T) {
	t.Parallel()

	s := NewSequence(3)
	for _, off := range []int{0, 600, 1200} {
		s.MustAdd(off, midi.NoteOn(0, 60, 100))
	}

	c := s.Cursor()
	if ev, ok := c.Peek(); !ok || ev.Offset != 0 {
		t.Fatalf("Peek() = %v, %v", ev, ok)
	}

	var got []int
	for {
		ev, ok := c.Next()
		if !ok {
			break
		}
		got = append(got, ev.Offset)
	}

	if len(got) != 3 || got[0] != 0 || got[1] != 600 || got[2] != 1200 {
		t.Fatalf("cursor produced %v", got)
	}
	if c.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", c.Remaining())
	}
	if _, ok := c.Next(); ok {
		t.Fatal("exhausted cursor produced an event")
	}
}

func TestSequenceMerge(t *testing.T) {
	t.Parallel()

	a := NewSequence(0)
	a.MustAdd(4, midi.NoteOn(0, 60, 100))

	b := NewSequence(0)
	b.MustAdd(0, midi.NoteOn(0, 62, 100))
	b.MustAdd(8, midi.NoteOn(0, 64, 100))

	a.Merge(b, -2)

	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (event shifted below 0 dropped)", a.Len())
	}
	if a.At(0).Offset != 4 || a.At(1).Offset != 6 {
		t.Fatalf("offsets = %d, %d; want 4, 6", a.At(0).Offset, a.At(1).Offset)
	}

	a.Clear()
	if a.Len() != 0 {
		t.Fatal("Clear() left events behind")
	}
}
