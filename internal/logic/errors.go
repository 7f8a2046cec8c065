package logic

import "errors"

var (
	// ErrUnknownKind is returned when decoding an unrecognised switch kind.
	ErrUnknownKind = errors.New("logic: unknown switch kind")

	// ErrUnknownMode is returned when decoding an unrecognised command mode.
	ErrUnknownMode = errors.New("logic: unknown command mode")
)
