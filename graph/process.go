package graph

import (
	"slices"

	"github.com/cwbudde/algo-host/timeline"
)

// schedule is a compiled processing order with per-node work buffers.
type schedule struct {
	frames int
	steps  []*step
	byID   map[NodeID]*step

	audioOut *step
	midiOut  *step
}

type step struct {
	node *Node
	buf  *timeline.Buffer
	seq  *timeline.Sequence

	audioIn []Connection
	midiIn  []Connection
}

// compile orders the nodes topologically (Kahn's algorithm, lowest id
// first among ready nodes) and allocates their buffers.
func (g *Graph) compile(frames int) *schedule {
	s := &schedule{frames: frames, byID: make(map[NodeID]*step, len(g.nodes))}

	indegree := make(map[NodeID]int, len(g.nodes))
	outgoing := make(map[NodeID][]NodeID, len(g.nodes))
	for id, n := range g.nodes {
		indegree[id] = 0
		s.byID[id] = &step{
			node: n,
			buf:  timeline.MustBuffer(processChannels(n), frames),
			seq:  timeline.NewSequence(0),
		}
	}

	seenEdge := make(map[[2]NodeID]bool)
	for _, c := range g.Connections() {
		src, dst := s.byID[c.Source.Node], s.byID[c.Dest.Node]
		if src == nil || dst == nil {
			continue
		}
		if c.IsMIDI() {
			dst.midiIn = append(dst.midiIn, c)
		} else {
			dst.audioIn = append(dst.audioIn, c)
		}
		edge := [2]NodeID{c.Source.Node, c.Dest.Node}
		if !seenEdge[edge] {
			seenEdge[edge] = true
			outgoing[c.Source.Node] = append(outgoing[c.Source.Node], c.Dest.Node)
			indegree[c.Dest.Node]++
		}
	}

	var ready []NodeID
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		st := s.byID[id]
		s.steps = append(s.steps, st)
		switch st.node.Role {
		case RoleAudioOut:
			s.audioOut = st
		case RoleMIDIOut:
			s.midiOut = st
		}

		for _, next := range outgoing[id] {
			indegree[next]--
			if indegree[next] == 0 {
				i, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, i, next)
			}
		}
	}

	if len(s.steps) != len(g.nodes) {
		g.logger.Warn("graph contains a cycle; nodes on it are not processed",
			"nodes", len(g.nodes), "scheduled", len(s.steps))
	}

	return s
}

func processChannels(n *Node) int {
	return max(n.Unit.NumInputChannels(), n.Unit.NumOutputChannels())
}

func (s *schedule) run(g *Graph, buf *timeline.Buffer, events *timeline.Sequence) {
	for _, st := range s.steps {
		st.buf.Clear()
		st.seq.Clear()

		switch st.node.Role {
		case RoleAudioIn:
			channels := min(st.buf.Channels(), g.NumInputChannels(), buf.Channels())
			for ch := 0; ch < channels; ch++ {
				st.buf.CopyFrom(ch, 0, buf, ch, 0, s.frames)
			}
			continue
		case RoleMIDIIn:
			st.seq.Merge(events, 0)
			continue
		}

		s.gather(st)

		if st.node.Role == RoleProcessor {
			st.node.Unit.Process(st.buf, st.seq)
		}
	}

	buf.Clear()
	if out := s.audioOut; out != nil {
		channels := min(out.buf.Channels(), g.NumOutputChannels(), buf.Channels())
		for ch := 0; ch < channels; ch++ {
			buf.CopyFrom(ch, 0, out.buf, ch, 0, s.frames)
		}
	}

	events.Clear()
	if out := s.midiOut; out != nil {
		events.Merge(out.seq, 0)
	}
}

// gather sums incoming audio per destination channel and merges incoming
// MIDI in offset order.
func (s *schedule) gather(st *step) {
	inputs := st.node.Unit.NumInputChannels()
	for _, c := range st.audioIn {
		src := s.byID[c.Source.Node]
		if c.Dest.Channel >= inputs || c.Source.Channel >= src.buf.Channels() {
			continue
		}
		st.buf.AddFrom(c.Dest.Channel, 0, src.buf, c.Source.Channel, 0, s.frames)
	}
	for _, c := range st.midiIn {
		st.seq.Merge(s.byID[c.Source.Node].seq, 0)
	}
}
