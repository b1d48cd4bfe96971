package models

import (
	"errors"
	"fmt"
)

// Predefined migration error codes
const (
	// Connection Errors
	ErrorCodeConnect = "CONNECT_ERROR" // Source or destination could not be reached

	// Source Errors
	ErrorCodeSourceRead     = "SOURCE_READ_ERROR" // Query execution or row decoding failure
	ErrorCodeSchemaMismatch = "SCHEMA_MISMATCH"   // Access to a column the query does not declare

	// Data Errors
	ErrorCodeMapping = "MAPPING_ERROR" // Row violates the mapper's non-null/type expectations

	// Destination Errors
	ErrorCodeSinkWrite = "SINK_WRITE_ERROR" // Write rejected by the destination
)

// Sentinel causes carried inside a MigrationError.
var (
	ErrSchemaMismatch   = errors.New("column not declared by query")
	ErrNullValue        = errors.New("null value in non-nullable column")
	ErrSequenceConsumed = errors.New("row sequence already consumed")
	ErrDuplicateID      = errors.New("duplicate document identifier")
)

// MigrationError is the single error type reported by tasks and phases.
// Code identifies the failure class; Phase and Entity locate it.
type MigrationError struct {
	Code   string
	Phase  string
	Entity string
	Err    error
}

func (e *MigrationError) Error() string {
	switch {
	case e.Entity != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Entity, e.Err)
	case e.Phase != "":
		return fmt.Sprintf("%s: %s phase: %v", e.Code, e.Phase, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
}

func (e *MigrationError) Unwrap() error { return e.Err }

// NewConnectError reports a connection that could not be established for a phase.
func NewConnectError(phase string, err error) *MigrationError {
	return &MigrationError{Code: ErrorCodeConnect, Phase: phase, Err: err}
}

// NewSourceReadError reports a query or row decoding failure for an entity.
func NewSourceReadError(entity string, err error) *MigrationError {
	return &MigrationError{Code: ErrorCodeSourceRead, Entity: entity, Err: err}
}

// NewSchemaMismatchError reports access to an undeclared or differently typed column.
func NewSchemaMismatchError(entity, column string, reason string) *MigrationError {
	return &MigrationError{
		Code:   ErrorCodeSchemaMismatch,
		Entity: entity,
		Err:    fmt.Errorf("%w: column %q %s", ErrSchemaMismatch, column, reason),
	}
}

// NewMappingError reports a row that could not be mapped to its destination shape.
func NewMappingError(entity string, err error) *MigrationError {
	return &MigrationError{Code: ErrorCodeMapping, Entity: entity, Err: err}
}

// NewSinkWriteError reports a write rejected by a destination.
func NewSinkWriteError(entity string, err error) *MigrationError {
	return &MigrationError{Code: ErrorCodeSinkWrite, Entity: entity, Err: err}
}

// CodeOf returns the MigrationError code found in err's chain, or "" when there is none.
func CodeOf(err error) string {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// APIError is the JSON error body returned by the migration service.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Service error codes
const (
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorCodeNotFound            = "NOT_FOUND"
	ErrorCodeRunInProgress       = "RUN_IN_PROGRESS" // A migration or reset is already executing
)
