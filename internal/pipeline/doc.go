// Package pipeline executes one leased job end to end: start the attempt,
// download the input video, convert it to a GLB, upload the result, record
// the artifact, and flip the job to its terminal state.
//
// Every failure inside the run funnels through a single MarkJobFailed call at
// the boundary, so the poll loop that invokes the runner only has to log the
// returned error.
package pipeline
