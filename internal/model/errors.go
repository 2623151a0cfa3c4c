package model

import "errors"

// Error taxonomy shared across services. Callers classify failures with
// errors.Is; handlers map them onto HTTP status codes.
var (
	// ErrValidation covers empty message bodies, self-addressed messages
	// and malformed identifiers. Surfaced to the caller, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrAuth means the caller identity does not match the required sender
	// or participant.
	ErrAuth = errors.New("not authorized")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is a transient backend failure. Listing and upserting
	// are safe to retry; a retried send after an ambiguous failure may
	// produce a duplicate message.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrChannelDropped means the live subscription stopped delivering.
	// The consumer must re-subscribe and re-fetch history to cover the gap.
	ErrChannelDropped = errors.New("live channel dropped")
)
