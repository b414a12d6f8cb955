package filtergraph

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/cwbudde/algo-host/graph"
	"github.com/cwbudde/algo-host/internal/statecodec"
)

// Encode writes g as a FILTERGRAPH document. Boundary nodes become records
// with their reserved plugin names so the document builds back into an
// equivalent graph. Unit state is exported with State and written in the
// MemoryBlock encoding.
func Encode(w io.Writer, g *graph.Graph) error {
	doc := document{XMLName: xml.Name{Local: rootTag}}

	for _, n := range g.Nodes() {
		rec, err := filterFor(n)
		if err != nil {
			return err
		}
		doc.Filters = append(doc.Filters, rec)
	}

	for _, c := range g.Connections() {
		doc.Connections = append(doc.Connections, connectionRecord{
			SrcFilter:  strconv.FormatUint(uint64(c.Source.Node), 10),
			SrcChannel: strconv.Itoa(c.Source.Channel),
			DstFilter:  strconv.FormatUint(uint64(c.Dest.Node), 10),
			DstChannel: strconv.Itoa(c.Dest.Channel),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("filtergraph: encode: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("filtergraph: encode: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("filtergraph: encode: %w", err)
	}
	return nil
}

func filterFor(n *graph.Node) (filterRecord, error) {
	rec := filterRecord{UID: strconv.FormatUint(uint64(n.ID), 10)}

	role := n.Role
	if role == graph.RolePlaceholder {
		role = n.Stands
	}
	if role.IsBoundary() {
		rec.Plugins = []pluginRecord{{Name: role.String(), Format: internalFormat}}
		return rec, nil
	}

	desc := n.Descriptor
	if desc.Name == "" {
		desc.Name = n.Unit.Name()
	}
	desc.NumInputs = n.Unit.NumInputChannels()
	desc.NumOutputs = n.Unit.NumOutputChannels()
	desc.IsInstrument = desc.IsInstrument || (n.Unit.NumInputChannels() == 0 && n.Unit.AcceptsMIDI())
	rec.Plugins = []pluginRecord{pluginFromDescriptor(desc)}
	rec.Layout = layoutFromBuses(n.Unit.BusLayout())

	state, err := n.Unit.State()
	if err != nil {
		return filterRecord{}, fmt.Errorf("filtergraph: state of node %d (%s): %w", n.ID, n.Unit.Name(), err)
	}
	if len(state) > 0 {
		rec.State = &stateRecord{Text: statecodec.Encode(state)}
	}
	return rec, nil
}
