package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/cwbudde/algo-host/internal/logging"
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

var (
	// ErrDuplicateNode is returned when a node id is already taken.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrDuplicateBoundary is returned when a boundary role already has a node.
	ErrDuplicateBoundary = errors.New("boundary role already present")
)

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for pruning and scheduling messages.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// Graph is a set of nodes and the connections between them. It is not safe
// for concurrent use.
type Graph struct {
	unit.Base

	logger *slog.Logger

	nodes  map[NodeID]*Node
	conns  map[Connection]struct{}
	lastID NodeID

	sched *schedule
}

// New returns an empty graph with stereo buses.
func New(opts ...Option) *Graph {
	g := &Graph{
		Base:   unit.NewBase(unit.SimpleLayout(2, 2), supportsGraphLayout),
		logger: logging.NewNop(),
		nodes:  make(map[NodeID]*Node),
		conns:  make(map[Connection]struct{}),
	}
	g.MIDIIn = true
	g.MIDIOut = true
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// supportsGraphLayout accepts mono or stereo with matching directions.
func supportsGraphLayout(l unit.BusLayout) bool {
	return unit.MonoOrStereoInOut(l)
}

// AddNode inserts u under id. An id of 0 picks the next free id.
func (g *Graph) AddNode(u unit.Unit, id NodeID) (*Node, error) {
	if u == nil {
		return nil, errors.New("graph: add node: nil unit")
	}
	return g.insert(&Node{Unit: u, Role: RoleProcessor}, id)
}

// AddPlaceholder inserts a node standing in for a boundary role until the
// boundary itself is wired. Its channel counts mirror that boundary.
func (g *Graph) AddPlaceholder(stands Role, id NodeID) (*Node, error) {
	if !stands.IsBoundary() {
		return nil, fmt.Errorf("graph: placeholder for non-boundary role %v", stands)
	}
	u := newIOUnit(stands, g.NumInputChannels(), g.NumOutputChannels())
	return g.insert(&Node{Unit: u, Role: RolePlaceholder, Stands: stands}, id)
}

// AddBoundary inserts the boundary node for role under a fresh id.
func (g *Graph) AddBoundary(role Role) (*Node, error) {
	if !role.IsBoundary() {
		return nil, fmt.Errorf("graph: %v is not a boundary role", role)
	}
	if _, ok := g.Boundary(role); ok {
		return nil, fmt.Errorf("graph: %w: %v", ErrDuplicateBoundary, role)
	}
	u := newIOUnit(role, g.NumInputChannels(), g.NumOutputChannels())
	return g.insert(&Node{Unit: u, Role: role}, 0)
}

// ReserveIDs makes fresh ids start above id. Ids already handed out are
// unaffected.
func (g *Graph) ReserveIDs(id NodeID) {
	g.lastID = max(g.lastID, id)
}

func (g *Graph) insert(n *Node, id NodeID) (*Node, error) {
	if id == 0 {
		id = g.lastID + 1
	}
	if _, ok := g.nodes[id]; ok {
		return nil, fmt.Errorf("graph: %w: %d", ErrDuplicateNode, id)
	}
	n.ID = id
	g.nodes[id] = n
	g.lastID = max(g.lastID, id)
	g.sched = nil
	return n, nil
}

// RemoveNode deletes a node and every connection touching it.
func (g *Graph) RemoveNode(id NodeID) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	for c := range g.conns {
		if c.Source.Node == id || c.Dest.Node == id {
			delete(g.conns, c)
		}
	}
	g.sched = nil
	return true
}

// Node returns the node with id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Boundary returns the id of the boundary node for role.
func (g *Graph) Boundary(role Role) (NodeID, bool) {
	for id, n := range g.nodes {
		if n.Role == role && role.IsBoundary() {
			return id, true
		}
	}
	return 0, false
}

// AddConnection adds c. It refuses negative channels, audio/MIDI mismatches,
// self loops, exact duplicates and connections that would close a cycle.
// Connections to missing nodes are accepted and left for
// RemoveIllegalConnections.
func (g *Graph) AddConnection(c Connection) bool {
	if c.Source.Channel < 0 || c.Dest.Channel < 0 {
		return false
	}
	if c.Source.IsMIDI() != c.Dest.IsMIDI() {
		return false
	}
	if c.Source.Node == c.Dest.Node {
		return false
	}
	if _, ok := g.conns[c]; ok {
		return false
	}
	if g.reaches(c.Dest.Node, c.Source.Node) {
		return false
	}
	g.conns[c] = struct{}{}
	g.sched = nil
	return true
}

// RemoveConnection deletes c.
func (g *Graph) RemoveConnection(c Connection) bool {
	if _, ok := g.conns[c]; !ok {
		return false
	}
	delete(g.conns, c)
	g.sched = nil
	return true
}

// reaches reports whether a path of connections leads from src to dst.
func (g *Graph) reaches(src, dst NodeID) bool {
	seen := map[NodeID]bool{src: true}
	stack := []NodeID{src}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == dst {
			return true
		}
		for c := range g.conns {
			if c.Source.Node == id && !seen[c.Dest.Node] {
				seen[c.Dest.Node] = true
				stack = append(stack, c.Dest.Node)
			}
		}
	}
	return false
}

// Connections returns all connections in a stable order.
func (g *Graph) Connections() []Connection {
	out := slices.Collect(maps.Keys(g.conns))
	slices.SortFunc(out, compareConnections)
	return out
}

// NumConnections returns the connection count.
func (g *Graph) NumConnections() int { return len(g.conns) }

// IsLegal reports whether both ends of c exist and can carry it.
func (g *Graph) IsLegal(c Connection) bool {
	src, dst := g.nodes[c.Source.Node], g.nodes[c.Dest.Node]
	if src == nil || dst == nil {
		return false
	}
	if c.Source.IsMIDI() != c.Dest.IsMIDI() {
		return false
	}
	if c.IsMIDI() {
		return src.Unit.ProducesMIDI() && dst.Unit.AcceptsMIDI()
	}
	return c.Source.Channel >= 0 && c.Source.Channel < src.Unit.NumOutputChannels() &&
		c.Dest.Channel >= 0 && c.Dest.Channel < dst.Unit.NumInputChannels()
}

// RemoveIllegalConnections drops every connection IsLegal refuses and
// returns how many were removed.
func (g *Graph) RemoveIllegalConnections() int {
	removed := 0
	for _, c := range g.Connections() {
		if g.IsLegal(c) {
			continue
		}
		delete(g.conns, c)
		removed++
		g.logger.Debug("removed illegal connection", "connection", c.String())
	}
	if removed > 0 {
		g.sched = nil
	}
	return removed
}

// Name implements unit.Unit.
func (g *Graph) Name() string { return "graph" }

// SetBusLayout implements unit.Unit. Audio boundary and placeholder nodes
// follow the new channel counts.
func (g *Graph) SetBusLayout(layout unit.BusLayout) error {
	if err := g.Base.SetBusLayout(layout); err != nil {
		return err
	}
	in, out := g.NumInputChannels(), g.NumOutputChannels()
	for _, n := range g.nodes {
		io, ok := n.Unit.(*ioUnit)
		if !ok {
			continue
		}
		_ = io.Base.SetBusLayout(ioLayout(io.role, in, out))
	}
	g.sched = nil
	return nil
}

// SetNonRealtime implements unit.Unit and forwards the flag to every node.
func (g *Graph) SetNonRealtime(nonRealtime bool) {
	g.Base.SetNonRealtime(nonRealtime)
	for _, n := range g.nodes {
		n.Unit.SetNonRealtime(nonRealtime)
	}
}

// State implements unit.Unit. A graph carries no blob state of its own.
func (g *Graph) State() ([]byte, error) { return nil, nil }

// SetState implements unit.Unit. Only empty state is accepted.
func (g *Graph) SetState(data []byte) error {
	if len(data) > 0 {
		return errors.New("graph: state blobs are not supported")
	}
	return nil
}

// Prepare implements unit.Unit. Every node is prepared and the processing
// order is computed. Prepare must be called again after topology edits for
// new nodes to run.
func (g *Graph) Prepare(sampleRate float64, blockSize int) error {
	if err := g.Base.Prepare(sampleRate, blockSize); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		n.Unit.SetNonRealtime(g.NonRealtime())
		if err := n.Unit.Prepare(sampleRate, blockSize); err != nil {
			return fmt.Errorf("graph: prepare node %d (%s): %w", n.ID, n.Unit.Name(), err)
		}
	}
	g.sched = g.compile(blockSize)
	return nil
}

// Process implements unit.Unit.
func (g *Graph) Process(buf *timeline.Buffer, events *timeline.Sequence) {
	if g.SampleRate() <= 0 {
		buf.Clear()
		events.Clear()
		return
	}
	if g.sched == nil || g.sched.frames != buf.Frames() {
		g.sched = g.compile(buf.Frames())
	}
	g.sched.run(g, buf, events)
}
