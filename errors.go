package csmgo

import "fmt"

// ErrInputFile indicates a user-supplied input file could not be read.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInputFile struct {
	Path  string
	cause error
}

func (e *ErrInputFile) Error() string {
	return fmt.Sprintf("cannot read input file %s: %v", e.Path, e.cause)
}

func (e *ErrInputFile) Unwrap() error { return e.cause }
