// Package config loads, normalizes, and validates parallax worker
// configuration from the process environment.
//
// It supplies repository defaults, optionally merges a dotenv file, expands
// user paths (including tilde shortcuts), and strictly parses boolean and
// duration knobs. The Config type centralizes every setting the worker daemon
// and CLI need, from the Postgres DSN and MinIO credentials to worker
// identity and debug toggles.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
