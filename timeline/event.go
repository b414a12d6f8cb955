package timeline

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
)

// Event is a MIDI message at a sample offset.
type Event struct {
	Offset  int
	Message midi.Message
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%d: %s", e.Offset, e.Message)
}

// Sequence is an ordered collection of events. Events are kept sorted by
// offset; events sharing an offset keep their insertion order.
type Sequence struct {
	events []Event
}

// NewSequence returns an empty sequence with room for n events.
func NewSequence(n int) *Sequence {
	if n < 0 {
		n = 0
	}
	return &Sequence{events: make([]Event, 0, n)}
}

// Add inserts msg at offset after every event already at that offset.
func (s *Sequence) Add(offset int, msg midi.Message) error {
	if offset < 0 {
		return fmt.Errorf("event offset must be >= 0: %d", offset)
	}
	ev := Event{Offset: offset, Message: msg}

	n := len(s.events)
	if n == 0 || s.events[n-1].Offset <= offset {
		s.events = append(s.events, ev)
		return nil
	}

	i := sort.Search(n, func(i int) bool { return s.events[i].Offset > offset })
	s.events = append(s.events, Event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = ev
	return nil
}

// MustAdd is like Add but panics on a negative offset.
func (s *Sequence) MustAdd(offset int, msg midi.Message) {
	if err := s.Add(offset, msg); err != nil {
		panic("timeline: " + err.Error())
	}
}

// Merge adds every event of other, shifted by delta samples. Events that
// would land before 0 are dropped.
func (s *Sequence) Merge(other *Sequence, delta int) {
	if other == nil {
		return
	}
	for _, ev := range other.events {
		if ev.Offset+delta < 0 {
			continue
		}
		_ = s.Add(ev.Offset+delta, ev.Message)
	}
}

// Len returns the number of events.
func (s *Sequence) Len() int {
	return len(s.events)
}

// At returns the i-th event.
func (s *Sequence) At(i int) Event {
	return s.events[i]
}

// Events returns the events in order. The slice must not be modified.
func (s *Sequence) Events() []Event {
	return s.events
}

// LastOffset returns the offset of the last event, or 0 when empty.
func (s *Sequence) LastOffset() int {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Offset
}

// Clear removes all events, keeping capacity.
func (s *Sequence) Clear() {
	s.events = s.events[:0]
}

// Cursor returns a forward-only cursor positioned before the first event.
func (s *Sequence) Cursor() *Cursor {
	return &Cursor{seq: s}
}

// Cursor walks a Sequence once, in order.
type Cursor struct {
	seq *Sequence
	pos int
}

// Peek returns the next event without consuming it.
func (c *Cursor) Peek() (Event, bool) {
	if c.pos >= len(c.seq.events) {
		return Event{}, false
	}
	return c.seq.events[c.pos], true
}

// Next consumes and returns the next event.
func (c *Cursor) Next() (Event, bool) {
	ev, ok := c.Peek()
	if ok {
		c.pos++
	}
	return ev, ok
}

// Remaining returns how many events have not been consumed.
func (c *Cursor) Remaining() int {
	return len(c.seq.events) - c.pos
}
