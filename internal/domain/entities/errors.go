package entities

import "errors"

// Domain errors
var (
	// Message errors
	ErrUnrecognizedEnvelope = errors.New("unrecognized message envelope")
	ErrEmptyMessage         = errors.New("message has no analyzable text")
	ErrMessageNotFound      = errors.New("message not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Batch errors
	ErrBatchAlreadyRunning = errors.New("a batch analysis job is already running")
	ErrBatchJobNotFound    = errors.New("batch job not found")
	ErrBatchJobFinished    = errors.New("batch job already finished")

	// OAuth errors
	ErrOAuthStateMismatch    = errors.New("oauth state mismatch")
	ErrCalendarNotLinked     = errors.New("google calendar not linked")
	ErrCalendarNotConfigured = errors.New("google oauth client not configured")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)
