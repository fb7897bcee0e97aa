// Package errors provides error handling for bulkgraph.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Details and hints that survive wrapping
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Attach details for the operator
//	return errors.WithDetailf(err, "stage: %s", name)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions and panics
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors used across the importer.
// Wrap these with errors.Mark() or errors.Wrap() to add context while preserving the type.
var (
	// ErrImportFailed marks an import that was aborted. The underlying cause is kept in the chain.
	ErrImportFailed = New("import failed")

	// ErrStageFailed marks a stage execution that stopped on an unrecoverable step error
	ErrStageFailed = New("stage failed")

	// ErrStageClosed is returned when a stage is executed or closed more than once
	ErrStageClosed = New("stage already closed")

	// ErrInvalidConfig indicates configuration values that cannot run an import
	ErrInvalidConfig = New("invalid configuration")

	// ErrUnknownID indicates an input id that the id mapper has never seen
	ErrUnknownID = New("unknown input id")

	// ErrDuplicateID indicates the same input id was put twice into an id mapper
	ErrDuplicateID = New("duplicate input id")

	// ErrNotUpdateMode indicates a random-access record patch before the store switched to update mode
	ErrNotUpdateMode = New("store is not in update mode")
)

// IsImportFailed checks if an error is or wraps ErrImportFailed
func IsImportFailed(err error) bool {
	return err != nil && Is(err, ErrImportFailed)
}

// IsStageFailed checks if an error is or wraps ErrStageFailed
func IsStageFailed(err error) bool {
	return err != nil && Is(err, ErrStageFailed)
}

// MarkImportFailed marks err as an import failure with a short context message
func MarkImportFailed(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrImportFailed)
}

// MarkStageFailed marks err as a stage failure and attaches the stage name as a detail
func MarkStageFailed(err error, stage string) error {
	if err == nil {
		return nil
	}
	return WithDetailf(Mark(Wrapf(err, "stage %q", stage), ErrStageFailed), "stage: %s", stage)
}
