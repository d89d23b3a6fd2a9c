package model

import "errors"

// Sentinel errors for the scan workflows. Handlers use errors.Is to map these
// to user-visible messages; anything else is treated as a transport failure.
var (
	// ErrTicketNotFound: no office log matches the scanned ticket.
	ErrTicketNotFound = errors.New("no visit found for ticket")

	// ErrAlreadyLoggedOut: the visitor's office log is already closed.
	ErrAlreadyLoggedOut = errors.New("visitor already logged out")

	// ErrAlreadyClosed: the remote service reported the department log as
	// closed via its recoverable error code, not a transport failure.
	ErrAlreadyClosed = errors.New("department log already closed")

	// ErrEmptyPurpose: visit purpose was empty or whitespace-only; rejected
	// before any remote call.
	ErrEmptyPurpose = errors.New("purpose of visit is required")

	// ErrMalformedSignOut: the fetched department log lacks both key fields,
	// so a sign-out cannot be addressed to the remote service.
	ErrMalformedSignOut = errors.New("sign-out target is missing its log keys")

	// ErrScanInProgress: a previous scan has not reached Idle yet.
	ErrScanInProgress = errors.New("another scan is still being processed")

	// ErrInvalidState: a trigger was fired in a session state that does not
	// accept it.
	ErrInvalidState = errors.New("action not valid in current session state")
)
