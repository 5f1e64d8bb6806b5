package model

import "errors"

var (
	// ErrNotInitialized reports an accessor called before the resource it
	// returns was declared.
	ErrNotInitialized = errors.New("resource not yet initialized")
	// ErrContract reports a declaration made in an order that can never be
	// valid, such as a service for a workload that does not exist.
	ErrContract = errors.New("configuration contract violated")
	// ErrNotSupported is returned by drivers for operations they do not offer.
	ErrNotSupported = errors.New("operation not supported by driver")

	ErrDuplicateResource     = errors.New("duplicate resource")
	ErrUnknownDependency     = errors.New("unknown dependency")
	ErrResourceStateNotFound = errors.New("resource state not found")
)
