package service

import "errors"

// Service sentinel errors. Callers match them with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// match a stored user. It deliberately does not say which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
