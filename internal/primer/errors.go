package primer

import (
	"errors"
	"fmt"
)

// ErrBoundExceeded is returned when more than two primers are offered
// as a single pair.
var ErrBoundExceeded = errors.New("primer pair holds exactly two primers")

// ErrIncompletePair is returned when a pair is requested from fewer than
// two primers.
var ErrIncompletePair = errors.New("primer pair needs a left and a right primer")

// ErrNoAmplicon marks a pair whose primers produce no valid amplicon.
var ErrNoAmplicon = errors.New("primer pair yields no amplicon")

// NamingMismatchError reports a primer name that does not line up with the
// expected set, or a pair whose primers disagree on their design rank.
type NamingMismatchError struct {
	Name   string
	Reason string
}

func (e *NamingMismatchError) Error() string {
	return fmt.Sprintf("naming mismatch for %q: %s", e.Name, e.Reason)
}

// InvalidLocationError reports a storage location string that cannot be
// parsed.
type InvalidLocationError struct {
	Input  string
	Reason string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("invalid storage location %q: %s", e.Input, e.Reason)
}
