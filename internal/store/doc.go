// Package store defines the persistence contract for render jobs and
// provides the in-memory implementation. The Postgres implementation
// lives in internal/platform/postgres.
package store
