// Package graph holds a directed graph of processing units and runs it as a
// single unit.
//
// Nodes live in an arena keyed by NodeID. Connections join one output
// channel of a node to one input channel of another; the channel index
// MIDIChannel carries the MIDI stream instead of audio. Four boundary roles
// connect the graph to its host: Audio In, Audio Out, MIDI In and MIDI Out.
// Each has at most one node per graph.
//
// A Graph implements unit.Unit. Each block is processed in topological
// order: audio arriving at an input channel is summed, MIDI arriving at a
// node is merged in offset order, the boundary inputs are fed from the host
// block and the boundary outputs are written back to it.
package graph
