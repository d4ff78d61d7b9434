// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. Pokemon documents
// live in a JSONB column keyed by their caller-assigned id; schema changes are
// shipped as embedded goose migrations.
package postgres
