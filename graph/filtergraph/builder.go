package filtergraph

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/algo-host/graph"
	"github.com/cwbudde/algo-host/internal/logging"
	"github.com/cwbudde/algo-host/internal/statecodec"
	"github.com/cwbudde/algo-host/unit"
)

var (
	// ErrBadRoot is returned when the document root is not FILTERGRAPH.
	ErrBadRoot = errors.New("root element is not " + rootTag)
	// ErrMalformed is returned when the document is not well-formed XML.
	ErrMalformed = errors.New("malformed graph document")
)

// Placeholder records how one boundary role was resolved.
type Placeholder struct {
	// Resolved is set when a filter record carried the role's reserved name.
	Resolved bool
	// Placeholder is the uid of the first record with the reserved name.
	Placeholder graph.NodeID
	// Boundary is the id of the graph's boundary node for the role.
	Boundary graph.NodeID
	// Duplicates lists uids of further records with the same name. They
	// are not rewired.
	Duplicates []graph.NodeID
}

// Resolution holds the placeholder mapping of all four boundary roles.
type Resolution struct {
	AudioIn  Placeholder
	AudioOut Placeholder
	MIDIIn   Placeholder
	MIDIOut  Placeholder
}

// For returns the entry for a boundary role, or nil.
func (r *Resolution) For(role graph.Role) *Placeholder {
	switch role {
	case graph.RoleAudioIn:
		return &r.AudioIn
	case graph.RoleAudioOut:
		return &r.AudioOut
	case graph.RoleMIDIIn:
		return &r.MIDIIn
	case graph.RoleMIDIOut:
		return &r.MIDIOut
	}
	return nil
}

// Skipped describes a filter record that did not become a node.
type Skipped struct {
	UID    graph.NodeID
	Plugin string
	Err    error
}

// Result is a built graph together with what happened while building it.
type Result struct {
	Graph      *graph.Graph
	Resolution Resolution
	Skipped    []Skipped

	// Refused counts connection records AddConnection rejected.
	Refused int
	// Pruned counts connections removed as illegal, after loading and after
	// the placeholders were removed.
	Pruned int
	// Rewired counts connections moved onto boundary nodes.
	Rewired int
}

// Option configures a Builder.
type Option func(*Builder)

// WithSampleRate sets the rate units are loaded and prepared with.
func WithSampleRate(sampleRate float64) Option {
	return func(b *Builder) { b.SampleRate = sampleRate }
}

// WithBlockSize sets the block size units are loaded and prepared with.
func WithBlockSize(blockSize int) Option {
	return func(b *Builder) { b.BlockSize = blockSize }
}

// WithLayout sets the graph's own bus layout. The default is stereo.
func WithLayout(layout unit.BusLayout) Option {
	return func(b *Builder) { b.Layout = layout.Clone() }
}

// WithLogger sets the logger for skipped records and resolution messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.Logger = l }
}

// Builder turns FILTERGRAPH documents into prepared graphs.
type Builder struct {
	Loader     unit.Instantiator
	SampleRate float64
	BlockSize  int
	Layout     unit.BusLayout
	Logger     *slog.Logger
}

// NewBuilder returns a Builder loading units through loader.
func NewBuilder(loader unit.Instantiator, opts ...Option) *Builder {
	b := &Builder{Loader: loader, SampleRate: 44100, BlockSize: 512}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildBytes is Build over an in-memory document.
func (b *Builder) BuildBytes(data []byte) (*Result, error) {
	return b.Build(bytes.NewReader(data))
}

// Build reads a document from r and returns the graph prepared for the
// builder's sample rate and block size.
func (b *Builder) Build(r io.Reader) (*Result, error) {
	if b.Loader == nil {
		return nil, errors.New("filtergraph: builder has no loader")
	}
	if b.SampleRate <= 0 {
		return nil, fmt.Errorf("filtergraph: sample rate must be > 0: %f", b.SampleRate)
	}
	if b.BlockSize <= 0 {
		return nil, fmt.Errorf("filtergraph: block size must be > 0: %d", b.BlockSize)
	}

	doc, err := decode(r)
	if err != nil {
		return nil, err
	}

	log := logging.OrNop(b.Logger)
	g := graph.New(graph.WithLogger(log))
	if len(b.Layout.Inputs) > 0 || len(b.Layout.Outputs) > 0 {
		if err := g.SetBusLayout(b.Layout); err != nil {
			return nil, fmt.Errorf("filtergraph: graph layout: %w", err)
		}
	}

	res := &Result{Graph: g}

	// Fresh ids must not reuse the uid of any record, skipped ones included.
	g.ReserveIDs(doc.maxUID())

	for _, f := range doc.Filters {
		b.createNode(g, f, res, log)
	}

	conns := make([]graph.Connection, 0, len(doc.Connections))
	for _, c := range doc.Connections {
		conn := graph.Connection{
			Source: graph.Endpoint{Node: graph.NodeID(intAttr(c.SrcFilter)), Channel: intAttr(c.SrcChannel)},
			Dest:   graph.Endpoint{Node: graph.NodeID(intAttr(c.DstFilter)), Channel: intAttr(c.DstChannel)},
		}
		conns = append(conns, conn)
		if !g.AddConnection(conn) {
			res.Refused++
			log.Debug("connection refused", "connection", conn.String())
		}
	}
	res.Pruned += g.RemoveIllegalConnections()

	for _, role := range graph.BoundaryRoles {
		n, err := g.AddBoundary(role)
		if err != nil {
			return nil, fmt.Errorf("filtergraph: %w", err)
		}
		res.Resolution.For(role).Boundary = n.ID
	}

	resolve(doc, &res.Resolution, log)
	res.Rewired = rewire(g, conns, &res.Resolution, log)

	for _, n := range g.Nodes() {
		if n.Role == graph.RolePlaceholder {
			g.RemoveNode(n.ID)
		}
	}
	res.Pruned += g.RemoveIllegalConnections()

	if err := g.Prepare(b.SampleRate, b.BlockSize); err != nil {
		return nil, fmt.Errorf("filtergraph: %w", err)
	}

	log.Info("graph built",
		"nodes", g.NumNodes(),
		"connections", g.NumConnections(),
		"skipped", len(res.Skipped),
		"pruned", res.Pruned,
		"rewired", res.Rewired,
	)

	return res, nil
}

func decode(r io.Reader) (*document, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("filtergraph: %w: %v", ErrMalformed, err)
	}
	if doc.XMLName.Local != rootTag {
		return nil, fmt.Errorf("filtergraph: %w: <%s>", ErrBadRoot, doc.XMLName.Local)
	}
	return &doc, nil
}

func (b *Builder) createNode(g *graph.Graph, f filterRecord, res *Result, log *slog.Logger) {
	uid := graph.NodeID(intAttr(f.UID))

	skip := func(name string, err error) {
		res.Skipped = append(res.Skipped, Skipped{UID: uid, Plugin: name, Err: err})
		log.Warn("filter skipped", "node", uid, "plugin", name, "err", err)
	}

	p, ok := f.plugin()
	if !ok {
		skip("", errors.New("no plugin description"))
		return
	}

	if role, ok := graph.RoleForName(p.Name); ok {
		if _, err := g.AddPlaceholder(role, uid); err != nil {
			skip(p.Name, err)
		}
		return
	}

	desc := p.descriptor()
	u, err := b.Loader.Instantiate(desc, unit.Options{SampleRate: b.SampleRate, BlockSize: b.BlockSize})
	if err != nil {
		skip(p.Name, err)
		return
	}

	if f.Layout != nil {
		applyLayout(u, f.Layout, uid, log)
	}

	n, err := g.AddNode(u, uid)
	if err != nil {
		skip(p.Name, err)
		return
	}
	n.Descriptor = desc

	if f.State != nil {
		data, err := statecodec.Decode(f.State.Text)
		if err != nil {
			log.Warn("filter state not decoded", "node", n.ID, "plugin", p.Name, "err", err)
			return
		}
		if len(data) == 0 {
			return
		}
		if err := u.SetState(data); err != nil {
			log.Warn("filter state not applied", "node", n.ID, "plugin", p.Name, "err", err)
		}
	}
}

func applyLayout(u unit.Unit, rec *layoutRecord, uid graph.NodeID, log *slog.Logger) {
	layout := u.BusLayout()
	inputs, err := reshape(layout.Inputs, rec.Inputs)
	if err == nil {
		layout.Inputs = inputs
		var outputs []unit.ChannelSet
		outputs, err = reshape(layout.Outputs, rec.Outputs)
		layout.Outputs = outputs
	}
	if err == nil {
		err = u.SetBusLayout(layout)
	}
	if err != nil {
		log.Warn("filter layout ignored", "node", uid, "plugin", u.Name(), "err", err)
	}
}

// resolve maps each boundary role to the first record carrying its
// reserved name.
func resolve(doc *document, res *Resolution, log *slog.Logger) {
	for _, f := range doc.Filters {
		p, ok := f.plugin()
		if !ok {
			continue
		}
		role, ok := graph.RoleForName(p.Name)
		if !ok {
			continue
		}
		uid := graph.NodeID(intAttr(f.UID))
		entry := res.For(role)
		if entry.Resolved {
			entry.Duplicates = append(entry.Duplicates, uid)
			log.Warn("duplicate boundary record ignored", "role", role.String(), "node", uid, "first", entry.Placeholder)
			continue
		}
		entry.Resolved = true
		entry.Placeholder = uid
		log.Debug("boundary resolved", "role", role.String(), "placeholder", uid, "boundary", entry.Boundary)
	}
}

func isProcessor(g *graph.Graph, id graph.NodeID) bool {
	n := g.Node(id)
	return n != nil && n.Role == graph.RoleProcessor
}

// rewire moves the authored connections touching resolved placeholders onto
// the boundary nodes, keeping channel indices.
func rewire(g *graph.Graph, conns []graph.Connection, res *Resolution, log *slog.Logger) int {
	rewired := 0
	for _, c := range conns {
		moved := c
		switch {
		case res.AudioIn.Resolved && c.Source.Node == res.AudioIn.Placeholder:
			moved.Source.Node = res.AudioIn.Boundary
		case res.MIDIIn.Resolved && c.Source.Node == res.MIDIIn.Placeholder:
			moved.Source.Node = res.MIDIIn.Boundary
		}
		switch {
		case res.AudioOut.Resolved && c.Dest.Node == res.AudioOut.Placeholder:
			moved.Dest.Node = res.AudioOut.Boundary
		case res.MIDIOut.Resolved && c.Dest.Node == res.MIDIOut.Placeholder:
			moved.Dest.Node = res.MIDIOut.Boundary
		}
		if moved == c {
			continue
		}
		if (moved.Source == c.Source && !isProcessor(g, c.Source.Node)) ||
			(moved.Dest == c.Dest && !isProcessor(g, c.Dest.Node)) {
			log.Debug("connection not rewired", "connection", c.String(), "reason", "other end is not a live node")
			continue
		}
		if g.AddConnection(moved) {
			rewired++
			log.Debug("connection rewired", "from", c.String(), "to", moved.String())
		}
	}
	return rewired
}
