// Package da3 wraps the Depth Anything 3 export tool, which turns a frame
// image sequence into a GLB scene on disk.
//
// It exposes a Client interface and a CLI implementation that launches the
// da3 binary and relays its JSON progress lines. Tests can swap the command
// constructor to avoid running the real exporter.
package da3
