// Package progress fans out phase and percentage notifications from the
// conversion pipeline to an ordered set of sinks.
//
// Sinks are fire-and-forget: a sink may throttle, and a sink failure or
// panic never disturbs the pipeline or the remaining sinks. The store sink
// projects counters into jobs.progress_percent with a minimum write interval
// so frame-by-frame updates cannot flood the shared database; the final
// update for a phase always flushes so 100% is never dropped.
package progress
