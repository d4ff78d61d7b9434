// Package memory provides in-process implementations of the store
// interfaces. They back the "memory" database driver for local runs and give
// handler and service tests a real store without PostgreSQL.
package memory
