// Package api handles incoming HTTP requests for the Pokedex: request
// decoding, calls into internal/service, and the mapping of service errors
// to status codes and the {message, error} response envelope.
package api
