package canon

import (
	"errors"
	"fmt"
)

// #region record
// Record is one raw transition: reactant side R, context C (may be empty),
// product side P. Direction is fixed R→P.
type Record struct {
	R string
	C string
	P string
}

// Swap returns the record with R and P exchanged, context untouched.
func (r Record) Swap() Record {
	return Record{R: r.P, C: r.C, P: r.R}
}

// #endregion record

// #region form
// Form is the canonical triple derived from a Record.
type Form struct {
	R string
	C string
	P string
}

// Record returns the form as a Record so it can be fed back through Canonicalize.
func (f Form) Record() Record {
	return Record{R: f.R, C: f.C, P: f.P}
}

// HasContext reports whether the canonical context is non-empty.
func (f Form) HasContext() bool {
	return f.C != ""
}

// Identity reports whether both sides canonicalize to the same string.
func (f Form) Identity() bool {
	return f.R == f.P
}

// #endregion form

// #region errors
// ErrMalformedInput is matched by every canonicalization failure.
var ErrMalformedInput = errors.New("malformed input")

// Side names the part of a record that failed to canonicalize.
type Side string

const (
	SideReactant Side = "R"
	SideProduct  Side = "P"
)

// MalformedInputError reports the side that normalized to an empty string.
type MalformedInputError struct {
	Side Side
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s is empty after normalization", e.Side)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// #endregion errors
