// Package preflight provides readiness checks for the filesystem paths,
// external binaries, and object storage the worker depends on.
//
// The checks run in two contexts:
//   - parallaxd runs RunAll and CheckSystemDeps at startup and logs a
//     warning for each failure instead of refusing to start, since a
//     missing tool only matters once a job actually leases.
//   - The "parallax status" command renders the same results as tables so
//     an operator can see at a glance why a box is not picking up work.
package preflight
