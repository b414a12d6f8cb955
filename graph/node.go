package graph

import (
	"cmp"
	"fmt"

	"github.com/cwbudde/algo-host/unit"
)

// NodeID identifies a node within one graph. Zero is never a valid id.
type NodeID uint32

// MIDIChannel is the channel index of a node's MIDI port.
const MIDIChannel = 0x1000

// Role classifies a node.
type Role int

// Node roles.
const (
	RoleProcessor Role = iota
	RolePlaceholder
	RoleAudioIn
	RoleAudioOut
	RoleMIDIIn
	RoleMIDIOut
)

// Reserved plugin names of the boundary roles.
const (
	NameAudioInput  = "Audio Input"
	NameAudioOutput = "Audio Output"
	NameMIDIInput   = "MIDI Input"
	NameMIDIOutput  = "MIDI Output"
)

// BoundaryRoles lists the four boundary roles in resolution order.
var BoundaryRoles = []Role{RoleAudioIn, RoleAudioOut, RoleMIDIIn, RoleMIDIOut}

// String returns the reserved plugin name for boundary roles.
func (r Role) String() string {
	switch r {
	case RoleProcessor:
		return "processor"
	case RolePlaceholder:
		return "placeholder"
	case RoleAudioIn:
		return NameAudioInput
	case RoleAudioOut:
		return NameAudioOutput
	case RoleMIDIIn:
		return NameMIDIInput
	case RoleMIDIOut:
		return NameMIDIOutput
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// IsBoundary reports whether r is one of the four boundary roles.
func (r Role) IsBoundary() bool {
	return r >= RoleAudioIn && r <= RoleMIDIOut
}

// RoleForName returns the boundary role whose reserved name is name.
func RoleForName(name string) (Role, bool) {
	switch name {
	case NameAudioInput:
		return RoleAudioIn, true
	case NameAudioOutput:
		return RoleAudioOut, true
	case NameMIDIInput:
		return RoleMIDIIn, true
	case NameMIDIOutput:
		return RoleMIDIOut, true
	}
	return 0, false
}

// Node is one vertex of the graph.
type Node struct {
	ID   NodeID
	Unit unit.Unit
	Role Role

	// Stands is the boundary role a placeholder stands in for.
	Stands Role

	// Descriptor is how the unit was described when it was loaded, if known.
	Descriptor unit.Descriptor
}

// Endpoint is one channel of one node.
type Endpoint struct {
	Node    NodeID
	Channel int
}

// IsMIDI reports whether the endpoint addresses the MIDI port.
func (e Endpoint) IsMIDI() bool { return e.Channel == MIDIChannel }

// Connection joins a source output channel to a destination input channel.
type Connection struct {
	Source Endpoint
	Dest   Endpoint
}

// IsMIDI reports whether the connection carries MIDI.
func (c Connection) IsMIDI() bool { return c.Source.IsMIDI() }

// String implements fmt.Stringer.
func (c Connection) String() string {
	return fmt.Sprintf("%d:%s->%d:%s", c.Source.Node, channelString(c.Source.Channel),
		c.Dest.Node, channelString(c.Dest.Channel))
}

func channelString(ch int) string {
	if ch == MIDIChannel {
		return "midi"
	}
	return fmt.Sprint(ch)
}

func compareConnections(a, b Connection) int {
	return cmp.Or(
		cmp.Compare(a.Source.Node, b.Source.Node),
		cmp.Compare(a.Source.Channel, b.Source.Channel),
		cmp.Compare(a.Dest.Node, b.Dest.Node),
		cmp.Compare(a.Dest.Channel, b.Dest.Channel),
	)
}
