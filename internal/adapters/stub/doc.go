// Package stub is a local stand-in for the graph service. It stores graphs
// in memory and answers runs with the same placeholder response the real
// service returns before an engine is attached, so the client and CLI can
// be exercised end to end without one.
package stub
