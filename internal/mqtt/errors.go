package mqtt

import "errors"

// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrHandlerPanic wraps a panic recovered from a message handler.
	ErrHandlerPanic = errors.New("mqtt: message handler panicked")

	// ErrNoBroker is returned when an mDNS lookup finds no broker.
	ErrNoBroker = errors.New("mqtt: no broker found")
)
