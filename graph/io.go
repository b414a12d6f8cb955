package graph

import (
	"github.com/cwbudde/algo-host/timeline"
	"github.com/cwbudde/algo-host/unit"
)

// ioUnit is the unit behind boundary and placeholder nodes. It does no
// processing of its own: the graph fills or drains its buffers.
type ioUnit struct {
	unit.Base

	role Role
}

func newIOUnit(role Role, inputs, outputs int) *ioUnit {
	u := &ioUnit{role: role}
	u.Base = unit.NewBase(ioLayout(role, inputs, outputs), nil)
	u.MIDIIn = role == RoleMIDIOut
	u.MIDIOut = role == RoleMIDIIn
	return u
}

// ioLayout gives Audio In one output per graph input and Audio Out one
// input per graph output. MIDI boundaries have no audio channels.
func ioLayout(role Role, inputs, outputs int) unit.BusLayout {
	switch role {
	case RoleAudioIn:
		return unit.SimpleLayout(0, inputs)
	case RoleAudioOut:
		return unit.SimpleLayout(outputs, 0)
	default:
		return unit.BusLayout{}
	}
}

func (u *ioUnit) Name() string { return u.role.String() }

func (u *ioUnit) Process(*timeline.Buffer, *timeline.Sequence) {}

func (u *ioUnit) State() ([]byte, error) { return nil, nil }

func (u *ioUnit) SetState([]byte) error { return nil }

// IsIOUnit reports whether u is a boundary unit created by a Graph, and for
// which role.
func IsIOUnit(u unit.Unit) (Role, bool) {
	io, ok := u.(*ioUnit)
	if !ok {
		return 0, false
	}
	return io.role, true
}
