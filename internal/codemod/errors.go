package codemod

import (
	"errors"
	"fmt"
)

var (
	// ErrParseFailure means a text could not be parsed under its grammar,
	// either on input or after a rule rewrote it.
	ErrParseFailure = errors.New("parse failure")

	// ErrConflictingEdits means two edits of one commit overlap. It indicates
	// a defect in the rule that produced them.
	ErrConflictingEdits = errors.New("conflicting edits")

	// ErrInvalidEdit means an edit range lies outside the current text.
	ErrInvalidEdit = errors.New("invalid edit")

	// ErrUnresolvedMetaVariable means a replacement template references a
	// meta-variable that the match did not bind. Rules treat it as "does not
	// apply".
	ErrUnresolvedMetaVariable = errors.New("unresolved meta-variable")
)

// ConflictError reports the first overlapping pair found by Commit.
type ConflictError struct {
	First, Second Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: [%d,%d) overlaps [%d,%d)",
		ErrConflictingEdits, e.First.Start, e.First.End, e.Second.Start, e.Second.End)
}

func (e *ConflictError) Unwrap() error { return ErrConflictingEdits }
