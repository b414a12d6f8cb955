// Package unit defines the processing unit contract shared by the render
// engine and the graph, bus/channel layouts, and the loader that turns a
// plugin path or description into a prepared unit through a Registry.
package unit
