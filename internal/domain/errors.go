package domain

import (
	"errors"
	"fmt"

	m "github.com/mouse-blink/weave/internal/model"
)

// Sentinels matched by the error kinds below through errors.Is.
var (
	// ErrDirectiveSyntax marks a malformed annotation.
	ErrDirectiveSyntax = errors.New("directive syntax error")
	// ErrTargetNotFound marks an address that does not resolve.
	ErrTargetNotFound = errors.New("target not found")
	// ErrAnchorNotFound marks a search anchor missing from its target.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrRangeOutOfBounds marks a range outside the current sequence.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	// ErrDisplayed marks a failure the workflow already showed through its UI.
	ErrDisplayed = errors.New("error already displayed")
)

// displayedError wraps a failure that was already shown to the user.
type displayedError struct {
	err error
}

func (e *displayedError) Error() string { return e.err.Error() }

func (e *displayedError) Unwrap() error { return e.err }

func (e *displayedError) Is(target error) bool { return target == ErrDisplayed }

func where(loc m.Location) string {
	name := loc.Definition
	if name == "" {
		name = "<unnamed>"
	}

	if loc.Line > 0 {
		return fmt.Sprintf("%s:%d (%s)", loc.Unit, loc.Line, name)
	}

	return fmt.Sprintf("%s (%s)", loc.Unit, name)
}

// DirectiveSyntaxError reports a malformed annotation. Always fatal.
type DirectiveSyntaxError struct {
	Location m.Location
	Reason   string
}

func (e *DirectiveSyntaxError) Error() string {
	return fmt.Sprintf("%s: %s: %s", where(e.Location), ErrDirectiveSyntax, e.Reason)
}

// Is matches ErrDirectiveSyntax.
func (e *DirectiveSyntaxError) Is(target error) bool {
	return target == ErrDirectiveSyntax
}

// TargetNotFoundError reports an address whose file, class or function is missing.
type TargetNotFoundError struct {
	Location m.Location
	Address  m.TargetAddress
	// Missing names the first segment that failed: "file", "class" or "function".
	Missing string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s: %s of %q does not exist", where(e.Location), ErrTargetNotFound, e.Missing, e.Address)
}

// Is matches ErrTargetNotFound.
func (e *TargetNotFoundError) Is(target error) bool {
	return target == ErrTargetNotFound
}

// AnchorNotFoundError reports a search that matched nothing.
type AnchorNotFoundError struct {
	Location m.Location
	Address  m.TargetAddress
	Search   m.Search
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s: %s in %q", where(e.Location), ErrAnchorNotFound, e.Search, e.Address)
}

// Is matches ErrAnchorNotFound.
func (e *AnchorNotFoundError) Is(target error) bool {
	return target == ErrAnchorNotFound
}

// RangeOutOfBoundsError reports a range that does not fit the live sequence.
type RangeOutOfBoundsError struct {
	Location m.Location
	Address  m.TargetAddress
	Mode     m.Mode
	From     int
	To       int
	Len      int
}

func (e *RangeOutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %s: %s [%d, %d) on %q with %d statements",
		where(e.Location), ErrRangeOutOfBounds, e.Mode, e.From, e.To, e.Address, e.Len)
}

// Is matches ErrRangeOutOfBounds.
func (e *RangeOutOfBoundsError) Is(target error) bool {
	return target == ErrRangeOutOfBounds
}
