// Package domain defines the core business entities of the Pokedex service:
// Pokemon documents and the users allowed to curate them. It contains
// validation rules and domain errors, and is independent of HTTP and storage
// concerns.
package domain
