// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyURL is returned when a source URL is empty.
	ErrEmptyURL = errors.New("source URL cannot be empty")

	// ErrMalformedURL is returned when a source URL does not parse as a URL.
	ErrMalformedURL = errors.New("malformed source URL")

	// ErrUnsupportedScheme is returned when a source URL parses but uses a
	// scheme other than http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidJobState is returned when a job state is not valid.
	ErrInvalidJobState = errors.New("invalid job state")
)
