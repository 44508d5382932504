// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity is no longer in a state that allows the change.
var ErrConflict = errors.New("conflict: resource is not in the expected state")

// ErrValidation indicates invalid input or configuration.
var ErrValidation = errors.New("validation error")

// Instruction parser failures. All are fatal to the current request.
var (
	// ErrMalformedOutput indicates the model output is not a single well-formed instruction object.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrUnknownTool indicates the instruction names a tool outside the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrSchemaMismatch indicates the arguments do not match the tool's declared schema.
	ErrSchemaMismatch = errors.New("arguments do not match tool schema")
)

// ErrTransport indicates the tool server could not be reached or the session
// dropped mid-call. Fatal to the current request.
var ErrTransport = errors.New("tool server transport error")

// ErrInvalidOperation indicates a tool rejected an operation it cannot
// perform, such as division by zero. Fatal only to the single tool call.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrInference indicates the language model call failed.
var ErrInference = errors.New("model inference failed")
