// Package filtergraph builds graphs from FILTERGRAPH documents and writes
// them back.
//
// A document lists FILTER records, each naming a unit type in a PLUGIN
// child and optionally carrying a LAYOUT and a STATE blob, followed by
// CONNECTION records between filter uids. Filters whose plugin name is one
// of the reserved boundary names ("Audio Input", "Audio Output", "MIDI
// Input", "MIDI Output") stand for the host connection points: the builder
// rewires their connections to the graph's own boundary nodes and then
// removes them.
//
// Filters that cannot be loaded are skipped and their connections pruned;
// only an unreadable document or a wrong root element fails the build.
package filtergraph
