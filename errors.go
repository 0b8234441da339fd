package main

import "errors"

var (
	ErrConflict        = errors.New("room already registered")
	ErrNotFound        = errors.New("room not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("invalid operator key")
	ErrNoCapacity      = errors.New("no room has free slots")
	ErrUnknownSession  = errors.New("unknown session")
)
