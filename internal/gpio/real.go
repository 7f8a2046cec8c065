//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	order []Line
}

// NewRealReader requests every line as an input on the named chip.
func NewRealReader(chipName string, lines []Line) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &RealReader{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line, len(lines)),
	}
	for _, l := range lines {
		line, err := chip.RequestLine(l.Pin, gpiocdev.AsInput, biasOption(l.Bias))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request pin %d: %w", l.Pin, err)
		}
		r.lines[l.Pin] = line
		r.order = append(r.order, l)
	}
	return r, nil
}

func biasOption(b Bias) gpiocdev.LineReqOption {
	switch b {
	case BiasPullUp:
		return gpiocdev.WithPullUp
	case BiasPullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

// Level returns the raw level of pin.
func (r *RealReader) Level(pin int) (bool, error) {
	line, ok := r.lines[pin]
	if !ok {
		return false, unknownPin(pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so wall-switch wiring cannot hold a pin during early boot.
func (r *RealReader) Close() error {
	var errs []error

	for _, l := range r.order {
		line := r.lines[l.Pin]
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.Pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.Pin, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
