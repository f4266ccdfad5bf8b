// Package postgres provides the PostgreSQL implementation of the storage
// interfaces defined in the internal/store package. It handles query
// execution, state-transition guards at the SQL level, and the mapping
// between domain entities and database records.
package postgres
