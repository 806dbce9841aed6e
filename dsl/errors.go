package dsl

import "fmt"

// Error locates a failure inside a data document
type Error struct {
	Document string
	Line     int
	Column   int
	Tag      string
	Err      error
}

func (e *Error) Error() string {
	document := e.Document
	if document == "" {
		document = "<inline>"
	}
	if e.Tag != "" && e.Tag[0] == '!' && (len(e.Tag) < 2 || e.Tag[1] != '!') {
		return fmt.Sprintf("%s:%d:%d: %s: %s", document, e.Line, e.Column, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s:%d:%d: %s", document, e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause supports github.com/pkg/errors.Cause
func (e *Error) Cause() error {
	return e.Err
}
