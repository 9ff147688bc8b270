// Package engineerr holds the error taxonomy shared by the engine packages.
package engineerr

import (
	"errors"
	"fmt"
)

var (
	// ErrContentNotFound means a location, item, clue or madness id is absent from the content source.
	ErrContentNotFound = errors.New("content not found")
	// ErrMalformedExpression means a condition or effect clause could not be parsed.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrNoPendingRoll means a submitted roll has no pending entry (expired or already consumed).
	ErrNoPendingRoll = errors.New("no pending roll")
	// ErrResourceInsufficient means a cost or consumption clause cannot be satisfied.
	ErrResourceInsufficient = errors.New("resource insufficient")
)

// MalformedError describes one clause that failed to parse.
type MalformedError struct {
	Clause string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed clause %q: %s", e.Clause, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedExpression
}

// Malformed builds a *MalformedError.
func Malformed(clause, format string, args ...any) error {
	return &MalformedError{Clause: clause, Reason: fmt.Sprintf(format, args...)}
}
