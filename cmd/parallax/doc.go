// Package main hosts the parallax operator CLI.
//
// The Cobra-based command tree inspects and maintains the shared conversion
// queue: status summaries, job listings and detail views, requeueing failed
// jobs, seeding test jobs, listing registered workers, and tailing the local
// daemon log. It talks straight to Postgres with the same queue store the
// daemon uses, so it works whether or not a worker is running on this host.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
