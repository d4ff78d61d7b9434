// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying document store from the
// application's core logic, so the service layer works the same against
// PostgreSQL and the in-memory implementation.
package store
