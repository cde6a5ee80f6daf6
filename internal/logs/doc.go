// Package logs reads the worker daemon's local log file with bounded memory.
//
// It backs `parallax logs`: a single-shot "last N lines" read plus an
// offset-based follower that polls for appended lines until its context
// ends. A shrinking file is treated as a rotation and reading restarts from
// the top.
package logs
