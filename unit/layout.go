package unit

import (
	"strconv"
	"strings"
)

// ChannelSet is an ordered list of speaker abbreviations ("L", "R", "C", ...).
// An empty set is a disabled bus.
type ChannelSet []string

// Common channel sets.
var (
	Disabled = ChannelSet{}
	Mono     = ChannelSet{"C"}
	Stereo   = ChannelSet{"L", "R"}
)

// ParseChannelSet parses an abbreviated layout string such as "L R".
// "" and "disabled" give a disabled set.
func ParseChannelSet(s string) ChannelSet {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "disabled") {
		return ChannelSet{}
	}
	return ChannelSet(strings.Fields(s))
}

// ChannelSetForCount returns the canonical set for n channels: disabled,
// mono, stereo, or n discrete channels.
func ChannelSetForCount(n int) ChannelSet {
	switch {
	case n <= 0:
		return ChannelSet{}
	case n == 1:
		return ChannelSet{"C"}
	case n == 2:
		return ChannelSet{"L", "R"}
	}
	out := make(ChannelSet, n)
	for i := range out {
		out[i] = "D" + strconv.Itoa(i+1)
	}
	return out
}

// Size returns the channel count.
func (c ChannelSet) Size() int {
	return len(c)
}

// IsDisabled reports whether the set has no channels.
func (c ChannelSet) IsDisabled() bool {
	return len(c) == 0
}

// Equal reports whether both sets list the same channels in order.
func (c ChannelSet) Equal(o ChannelSet) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// String returns the abbreviated form, "disabled" for an empty set.
func (c ChannelSet) String() string {
	if len(c) == 0 {
		return "disabled"
	}
	return strings.Join(c, " ")
}

// BusLayout describes the channel set of every input and output bus.
type BusLayout struct {
	Inputs  []ChannelSet
	Outputs []ChannelSet
}

// SimpleLayout returns a layout with one main bus per direction sized to the
// given channel counts. A count of 0 omits the bus.
func SimpleLayout(in, out int) BusLayout {
	var l BusLayout
	if in > 0 {
		l.Inputs = []ChannelSet{ChannelSetForCount(in)}
	}
	if out > 0 {
		l.Outputs = []ChannelSet{ChannelSetForCount(out)}
	}
	return l
}

// NumInputChannels sums the input bus sizes.
func (l BusLayout) NumInputChannels() int {
	return sumSizes(l.Inputs)
}

// NumOutputChannels sums the output bus sizes.
func (l BusLayout) NumOutputChannels() int {
	return sumSizes(l.Outputs)
}

// MainInput returns the first input bus or a disabled set.
func (l BusLayout) MainInput() ChannelSet {
	if len(l.Inputs) == 0 {
		return ChannelSet{}
	}
	return l.Inputs[0]
}

// MainOutput returns the first output bus or a disabled set.
func (l BusLayout) MainOutput() ChannelSet {
	if len(l.Outputs) == 0 {
		return ChannelSet{}
	}
	return l.Outputs[0]
}

// Clone returns a deep copy.
func (l BusLayout) Clone() BusLayout {
	return BusLayout{Inputs: cloneSets(l.Inputs), Outputs: cloneSets(l.Outputs)}
}

// Equal reports whether both layouts match bus for bus.
func (l BusLayout) Equal(o BusLayout) bool {
	return setsEqual(l.Inputs, o.Inputs) && setsEqual(l.Outputs, o.Outputs)
}

// MonoOrStereoInOut accepts layouts whose main buses are both mono or both
// stereo.
func MonoOrStereoInOut(l BusLayout) bool {
	in, out := l.MainInput(), l.MainOutput()
	if in.IsDisabled() || out.IsDisabled() {
		return false
	}
	if !out.Equal(Mono) && !out.Equal(Stereo) {
		return false
	}
	return in.Equal(out)
}

// MonoOrStereoOut accepts layouts with no enabled input and a mono or stereo
// main output, as instruments use.
func MonoOrStereoOut(l BusLayout) bool {
	if l.NumInputChannels() != 0 {
		return false
	}
	out := l.MainOutput()
	return out.Equal(Mono) || out.Equal(Stereo)
}

func sumSizes(sets []ChannelSet) int {
	n := 0
	for _, s := range sets {
		n += s.Size()
	}
	return n
}

func cloneSets(sets []ChannelSet) []ChannelSet {
	if sets == nil {
		return nil
	}
	out := make([]ChannelSet, len(sets))
	for i, s := range sets {
		out[i] = append(ChannelSet{}, s...)
	}
	return out
}

func setsEqual(a, b []ChannelSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
