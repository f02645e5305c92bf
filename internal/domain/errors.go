package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for a handle.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownMode indicates an unrecognized game mode tag.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrEmptyBatch indicates the provider returned no questions.
	ErrEmptyBatch = errors.New("empty question batch")
	// ErrShortBatch indicates the provider returned fewer questions than requested.
	ErrShortBatch = errors.New("short question batch")
	// ErrMalformedQuestion indicates a question failed structural validation.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrBatchUnavailable indicates the backing store has no content for the request.
	ErrBatchUnavailable = errors.New("question batch unavailable")
)
