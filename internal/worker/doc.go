// Package worker runs the lease/execute poll loop and the heartbeat
// publisher that advertises process liveness.
//
// The two goroutines share nothing but an atomically swapped State snapshot:
// the poll loop stores a fresh snapshot on every transition and the publisher
// loads the latest one on every tick, so heartbeats never block job
// execution.
package worker
