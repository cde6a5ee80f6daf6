// Package ffmpeg wraps the ffmpeg command line so the conversion step can
// explode a source video into numbered frame images at a requested rate.
//
// It exposes a Client interface and a CLI implementation that shells out to
// ffmpeg. Tests can swap the command constructor to avoid running the real
// binary while still exercising argument construction and progress reporting.
package ffmpeg
