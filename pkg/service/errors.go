package service

import (
	"fmt"
	"strings"
)

// Resolution errors: the caller's intent could not be mapped to a concrete
// operation. All of these surface before any I/O is attempted.

type FunctionNotFoundError struct {
	Identifier string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function not found: %q", e.Identifier)
}

type DeviceNotFoundError struct {
	DeviceID string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device not found: %q", e.DeviceID)
}

type AccessorNotFoundError struct {
	Name     string
	DeviceID string // empty when the lookup was not device-qualified
}

func (e *AccessorNotFoundError) Error() string {
	if e.DeviceID != "" {
		return fmt.Sprintf("accessor %q not found on device %q", e.Name, e.DeviceID)
	}
	return fmt.Sprintf("accessor %q not found on any device", e.Name)
}

// AmbiguousAccessorError reports an unqualified accessor name declared by
// more than one device. The caller must disambiguate with a device id;
// silently picking the first match would be a correctness hazard.
type AmbiguousAccessorError struct {
	Name      string
	DeviceIDs []string
}

func (e *AmbiguousAccessorError) Error() string {
	return fmt.Sprintf("accessor %q is declared by multiple devices (%s); qualify the lookup with a device id",
		e.Name, strings.Join(e.DeviceIDs, ", "))
}

type RegisterNotFoundError struct {
	Name     string
	DeviceID string
}

func (e *RegisterNotFoundError) Error() string {
	return fmt.Sprintf("holding register %q not found on device %q", e.Name, e.DeviceID)
}

// RegisterAccessError reports an operation the register's access string does
// not permit. Checked before any I/O.
type RegisterAccessError struct {
	Name      string
	DeviceID  string
	Access    string
	Operation string
}

func (e *RegisterAccessError) Error() string {
	return fmt.Sprintf("register %q on device %q does not permit %s (access %q)",
		e.Name, e.DeviceID, e.Operation, e.Access)
}

type BlankArgumentError struct {
	Arg string
}

func (e *BlankArgumentError) Error() string {
	return fmt.Sprintf("%s must not be blank", e.Arg)
}

// Validation errors: call parameters or terminal operations that violate
// per-operation constraints, checked before any I/O.

type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, e.Min, e.Max, e.Value)
}

type UnsupportedOperationError struct {
	Code      int
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("function code %d does not support %s", e.Code, e.Operation)
}

type ArrayLengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *ArrayLengthMismatchError) Error() string {
	return fmt.Sprintf("value count does not match accessor span: expected %d, got %d", e.Expected, e.Actual)
}

type UnexpectedResultCountError struct {
	Expected int
	Actual   int
}

func (e *UnexpectedResultCountError) Error() string {
	return fmt.Sprintf("expected %d value(s) but operation resolves to %d", e.Expected, e.Actual)
}
