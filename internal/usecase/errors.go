package usecase

import "errors"

var (
	// ErrInvalidContent is returned when a video record has no usable storage key.
	ErrInvalidContent = errors.New("stored content reference is invalid")

	// ErrUpstreamNotFound is returned when metadata points at an object the store does not have.
	ErrUpstreamNotFound = errors.New("content missing from object storage")

	// ErrUpstream wraps any other object storage failure.
	ErrUpstream = errors.New("object storage request failed")
)
