package domain

import "errors"

var (
	// ErrNotFound signals that a collection or pipeline lookup came back empty.
	ErrNotFound = errors.New("not found")

	// ErrMisconfigured signals that the user has no usable pipeline configuration.
	ErrMisconfigured = errors.New("pipeline misconfigured")

	// ErrNoContext signals that generation was attempted with neither retrieved
	// results nor a reasoning synthesis to work from.
	ErrNoContext = errors.New("no context available for generation")
)
