package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
	"github.com/cwbudde/algo-host/units"
)

func conn(src NodeID, sch int, dst NodeID, dch int) Connection {
	return Connection{Source: Endpoint{src, sch}, Dest: Endpoint{dst, dch}}
}

func mustNode(t *testing.T, g *Graph, id NodeID) *Node {
	t.Helper()
	n, err := g.AddNode(units.NewPassthrough(), id)
	if err != nil {
		t.Fatalf("AddNode(%d) error = %v", id, err)
	}
	return n
}

func TestAddNodeIDs(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 5)
	n := mustNode(t, g, 0)
	if n.ID != 6 {
		t.Errorf("fresh id = %d, want 6", n.ID)
	}
	if _, err := g.AddNode(units.NewGain(), 5); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("AddNode(dup) error = %v, want ErrDuplicateNode", err)
	}
	if _, err := g.AddNode(nil, 0); err == nil {
		t.Error("AddNode(nil) expected error")
	}

	b, err := g.AddBoundary(RoleAudioIn)
	if err != nil {
		t.Fatalf("AddBoundary() error = %v", err)
	}
	if b.ID != 7 {
		t.Errorf("boundary id = %d, want 7", b.ID)
	}
	if _, err := g.AddBoundary(RoleAudioIn); !errors.Is(err, ErrDuplicateBoundary) {
		t.Errorf("AddBoundary(dup) error = %v", err)
	}
	if id, ok := g.Boundary(RoleAudioIn); !ok || id != 7 {
		t.Errorf("Boundary(AudioIn) = %d, %v", id, ok)
	}
	if _, ok := g.Boundary(RoleMIDIOut); ok {
		t.Error("Boundary(MIDIOut) unexpectedly present")
	}
}

func TestReserveIDs(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 2)
	g.ReserveIDs(9)
	g.ReserveIDs(4)
	b, err := g.AddBoundary(RoleAudioOut)
	if err != nil {
		t.Fatalf("AddBoundary() error = %v", err)
	}
	if b.ID != 10 {
		t.Errorf("boundary id = %d, want 10", b.ID)
	}
}

func TestAddConnectionRules(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 1)
	mustNode(t, g, 2)
	mustNode(t, g, 3)

	tests := []struct {
		name string
		c    Connection
		want bool
	}{
		{"ok", conn(1, 0, 2, 0), true},
		{"duplicate", conn(1, 0, 2, 0), false},
		{"second channel", conn(1, 1, 2, 1), true},
		{"chain", conn(2, 0, 3, 0), true},
		{"self loop", conn(2, 0, 2, 1), false},
		{"cycle", conn(3, 0, 1, 0), false},
		{"negative", conn(1, -1, 3, 0), false},
		{"audio to midi", conn(1, 0, 3, MIDIChannel), false},
		{"midi", conn(1, MIDIChannel, 3, MIDIChannel), true},
		{"dangling", conn(9, 0, 1, 0), true},
	}
	for _, tc := range tests {
		if got := g.AddConnection(tc.c); got != tc.want {
			t.Errorf("%s: AddConnection(%v) = %v, want %v", tc.name, tc.c, got, tc.want)
		}
	}
}

func TestRemoveIllegalConnections(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 1)
	if _, err := g.AddNode(units.NewGain(), 2); err != nil {
		t.Fatal(err)
	}

	g.AddConnection(conn(1, 0, 2, 0))
	g.AddConnection(conn(1, 1, 2, 1))
	g.AddConnection(conn(1, 2, 2, 0))                     // source channel out of range
	g.AddConnection(conn(1, MIDIChannel, 2, MIDIChannel)) // gain takes no MIDI
	g.AddConnection(conn(4, 0, 2, 0))                     // dangling

	if removed := g.RemoveIllegalConnections(); removed != 3 {
		t.Errorf("RemoveIllegalConnections() = %d, want 3", removed)
	}

	want := []Connection{conn(1, 0, 2, 0), conn(1, 1, 2, 1)}
	if diff := cmp.Diff(want, g.Connections()); diff != "" {
		t.Errorf("Connections() mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveNodeDropsConnections(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 1)
	mustNode(t, g, 2)
	mustNode(t, g, 3)
	g.AddConnection(conn(1, 0, 2, 0))
	g.AddConnection(conn(2, 0, 3, 0))
	g.AddConnection(conn(1, 1, 3, 1))

	if !g.RemoveNode(2) {
		t.Fatal("RemoveNode(2) = false")
	}
	if g.RemoveNode(2) {
		t.Error("second RemoveNode(2) = true")
	}
	if diff := cmp.Diff([]Connection{conn(1, 1, 3, 1)}, g.Connections()); diff != "" {
		t.Errorf("Connections() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoleNames(t *testing.T) {
	t.Parallel()

	for _, role := range BoundaryRoles {
		got, ok := RoleForName(role.String())
		if !ok || got != role {
			t.Errorf("RoleForName(%q) = %v, %v", role.String(), got, ok)
		}
	}
	if _, ok := RoleForName("MIDIOutput"); ok {
		t.Error("RoleForName(MIDIOutput) matched")
	}
}

func TestSetBusLayoutResizesBoundaries(t *testing.T) {
	t.Parallel()

	g := New()
	in, _ := g.AddBoundary(RoleAudioIn)
	out, _ := g.AddBoundary(RoleAudioOut)
	if in.Unit.NumOutputChannels() != 2 || out.Unit.NumInputChannels() != 2 {
		t.Fatal("boundaries not stereo by default")
	}

	if err := g.SetBusLayout(unit.SimpleLayout(1, 1)); err != nil {
		t.Fatalf("SetBusLayout(mono) error = %v", err)
	}
	if in.Unit.NumOutputChannels() != 1 || out.Unit.NumInputChannels() != 1 {
		t.Error("boundaries did not follow mono layout")
	}

	if err := g.SetBusLayout(unit.SimpleLayout(1, 2)); err == nil {
		t.Error("SetBusLayout(mono->stereo) expected error")
	}
	if g.NumInputChannels() != 1 {
		t.Errorf("layout changed after refusal: in=%d", g.NumInputChannels())
	}
}

func TestProcessSumsAndRoutes(t *testing.T) {
	t.Parallel()

	g := New()
	in, _ := g.AddBoundary(RoleAudioIn)
	out, _ := g.AddBoundary(RoleAudioOut)
	a := mustNode(t, g, 0)
	b := mustNode(t, g, 0)

	// in.L -> a.L, in.L -> b.L, a.L + b.L -> out.L; in.R -> out.R directly.
	g.AddConnection(conn(in.ID, 0, a.ID, 0))
	g.AddConnection(conn(in.ID, 0, b.ID, 0))
	g.AddConnection(conn(a.ID, 0, out.ID, 0))
	g.AddConnection(conn(b.ID, 0, out.ID, 0))
	g.AddConnection(conn(in.ID, 1, out.ID, 1))

	if err := g.Prepare(1000, 4); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	buf := timeline.MustBuffer(2, 4)
	for i := range 4 {
		buf.Channel(0)[i] = 0.25
		buf.Channel(1)[i] = float64(i)
	}
	g.Process(buf, timeline.NewSequence(0))

	if diff := cmp.Diff([]float64{0.5, 0.5, 0.5, 0.5}, buf.Channel(0)); diff != "" {
		t.Errorf("left mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1, 2, 3}, buf.Channel(1)); diff != "" {
		t.Errorf("right mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessWithoutOutputIsSilent(t *testing.T) {
	t.Parallel()

	g := New()
	in, _ := g.AddBoundary(RoleAudioIn)
	a := mustNode(t, g, 0)
	g.AddConnection(conn(in.ID, 0, a.ID, 0))
	if err := g.Prepare(1000, 4); err != nil {
		t.Fatal(err)
	}

	buf := timeline.MustBuffer(2, 4)
	buf.Channel(0)[0] = 1
	seq := timeline.NewSequence(1)
	seq.MustAdd(0, midi.NoteOn(0, 60, 100))
	g.Process(buf, seq)

	if buf.Channel(0)[0] != 0 {
		t.Error("audio leaked without an Audio Out node")
	}
	if seq.Len() != 0 {
		t.Error("MIDI leaked without a MIDI Out node")
	}
}

func TestProcessMIDIChain(t *testing.T) {
	t.Parallel()

	g := New()
	midiIn, _ := g.AddBoundary(RoleMIDIIn)
	midiOut, _ := g.AddBoundary(RoleMIDIOut)
	audioOut, _ := g.AddBoundary(RoleAudioOut)

	tr := units.NewTranspose()
	if err := tr.SetSemitones(7); err != nil {
		t.Fatal(err)
	}
	trNode, _ := g.AddNode(tr, 0)
	synth, _ := g.AddNode(units.NewSineSynth(), 0)

	for _, c := range []Connection{
		conn(midiIn.ID, MIDIChannel, trNode.ID, MIDIChannel),
		conn(trNode.ID, MIDIChannel, synth.ID, MIDIChannel),
		conn(trNode.ID, MIDIChannel, midiOut.ID, MIDIChannel),
		conn(synth.ID, 0, audioOut.ID, 0),
		conn(synth.ID, 1, audioOut.ID, 1),
	} {
		if !g.AddConnection(c) {
			t.Fatalf("AddConnection(%v) = false", c)
		}
	}
	if removed := g.RemoveIllegalConnections(); removed != 0 {
		t.Fatalf("RemoveIllegalConnections() = %d, want 0", removed)
	}
	if err := g.Prepare(8000, 64); err != nil {
		t.Fatal(err)
	}

	buf := timeline.MustBuffer(2, 64)
	seq := timeline.NewSequence(1)
	seq.MustAdd(3, midi.NoteOn(0, 60, 100))
	g.Process(buf, seq)

	if seq.Len() != 1 {
		t.Fatalf("output events = %d, want 1", seq.Len())
	}
	var ch, key, vel uint8
	if ev := seq.At(0); ev.Offset != 3 || !ev.Message.GetNoteOn(&ch, &key, &vel) || key != 67 {
		t.Errorf("output event = %v, want note 67 at 3", ev)
	}

	var energy float64
	for _, v := range buf.Channel(1) {
		energy += v * v
	}
	if energy == 0 {
		t.Error("synth output did not reach the graph output")
	}
}

func TestProcessOrderFollowsConnections(t *testing.T) {
	t.Parallel()

	g := New()
	mustNode(t, g, 9)
	mustNode(t, g, 3)
	mustNode(t, g, 5)
	g.AddConnection(conn(9, 0, 3, 0))
	g.AddConnection(conn(3, 0, 5, 0))

	s := g.compile(8)
	var order []NodeID
	for _, st := range s.steps {
		order = append(order, st.node.ID)
	}
	if diff := cmp.Diff([]NodeID{9, 3, 5}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnpreparedProcessIsSilent(t *testing.T) {
	t.Parallel()

	g := New()
	buf := timeline.MustBuffer(2, 4)
	buf.Channel(0)[1] = 1
	g.Process(buf, timeline.NewSequence(0))
	if buf.Channel(0)[1] != 0 {
		t.Error("unprepared graph passed audio")
	}
}
