// Package queue persists conversion jobs in PostgreSQL and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, job leasing,
// attempt tracking, heartbeat upserts, progress writes, and the append-only
// log and artifact tables. The database is shared by every worker process and
// by the enqueuing web application, so all coordination happens through row
// locks: leasing uses FOR UPDATE SKIP LOCKED and never waits on a competitor.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or columns, update schema.go alongside the models.
package queue
