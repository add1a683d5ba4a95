package parser

import "fmt"

// ParseError is the failure type for specification loading. The wrapped
// error carries the concrete cause: MalformedDocumentError,
// InvalidFieldError, DuplicateAccessorError or MissingFieldError.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse specification: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("parse specification: %s", e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MalformedDocumentError reports a document that is not well-formed or uses
// forbidden constructs (doctype declarations, external entities).
type MalformedDocumentError struct {
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// InvalidFieldError reports a field whose value failed to parse or is out of
// range, qualified by the field name and offending value.
type InvalidFieldError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid value %q for field %s: %v", e.Value, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid value %q for field %s", e.Value, e.Field)
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }

// DuplicateAccessorError reports two accessors sharing a name within one
// device. This fails the whole parse.
type DuplicateAccessorError struct {
	Device string
	Name   string
}

func (e *DuplicateAccessorError) Error() string {
	return fmt.Sprintf("device %q: duplicate accessor name %q", e.Device, e.Name)
}

// MissingFieldError reports a required sub-element or attribute that is
// absent or blank.
type MissingFieldError struct {
	Element string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %s is missing or blank", e.Element, e.Field)
}
