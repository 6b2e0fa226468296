package types

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a Repository operation matches one
// of these with errors.Is, or one of the lifecycle errors below.
var (
	// ErrValidation reports a payload the caller must fix. No write occurred.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAddress reports an address that matches neither the
	// collection nor the record shape, or an operation the address does not
	// support.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrStorage reports a failure of the underlying engine.
	ErrStorage = errors.New("storage failure")
)

// Validation rules. Each wraps ErrValidation.
var (
	ErrMissingName        = fmt.Errorf("%w: missing name", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidQuantity    = fmt.Errorf("%w: invalid quantity", ErrValidation)
	ErrInvalidDescription = fmt.Errorf("%w: invalid description", ErrValidation)
	ErrUnknownColumn      = fmt.Errorf("%w: unknown column", ErrValidation)
	ErrImmutableID        = fmt.Errorf("%w: id is assigned by storage", ErrValidation)
	ErrInvalidSortOrder   = fmt.Errorf("%w: invalid sort order", ErrValidation)
)

// Provider lifecycle errors.
var (
	ErrDetached        = errors.New("provider is detached")
	ErrAlreadyAttached = errors.New("provider is already attached")
	ErrDowngrade       = errors.New("cannot downgrade database")
)
