// Package storage moves job inputs and conversion results between the shared
// S3-compatible object store and a worker's local disk.
package storage
