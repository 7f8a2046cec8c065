// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Reader reads raw GPIO levels.
type Reader interface {
	// Level returns the electrical level of pin (true = high).
	// Polarity is applied by the caller.
	Level(pin int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Bias selects the internal pull resistor of an input line.
type Bias string

const (
	BiasNone     Bias = "none"
	BiasPullUp   Bias = "pull-up"
	BiasPullDown Bias = "pull-down"
)

// Valid reports whether b is a known bias. Empty means BiasNone.
func (b Bias) Valid() bool {
	switch b {
	case "", BiasNone, BiasPullUp, BiasPullDown:
		return true
	}
	return false
}

// Line describes one input line to request.
type Line struct {
	Pin  int
	Bias Bias
}

var (
	// ErrUnknownPin is returned when reading a pin that was not requested.
	ErrUnknownPin = errors.New("gpio: pin not requested")

	// ErrUnsupported is returned on platforms without GPIO support.
	ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")
)

func unknownPin(pin int) error {
	return fmt.Errorf("%w: %d", ErrUnknownPin, pin)
}
