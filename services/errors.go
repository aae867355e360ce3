package services

import "fmt"

// ValidationError covers malformed caller input: empty message content,
// self-targeted friend requests, undecodable cursors.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PermissionError covers a caller acting outside their rights. Blocked is
// set when the failure comes from the block relation, so the client can
// lock the composer instead of offering a retry.
type PermissionError struct {
	Reason  string
	Blocked bool
}

func (e *PermissionError) Error() string {
	return e.Reason
}

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// TransportError wraps a failed call to the external push gateway.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
