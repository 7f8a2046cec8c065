package logic

import "time"

// DefaultDebounce is the time a raw level must stay unchanged before it is
// accepted as the new stable value.
const DefaultDebounce = 100 * time.Millisecond

// Input debounces a single GPIO line.
type Input struct {
	Pin        int
	ActiveHigh bool
	Debounce   time.Duration

	value      bool
	lastChange time.Time
}

// NewInput creates an Input on pin with the default debounce window.
func NewInput(pin int, activeHigh bool) Input {
	return Input{
		Pin:        pin,
		ActiveHigh: activeHigh,
		Debounce:   DefaultDebounce,
	}
}

// Init takes the first sample as the stable value without reporting a change.
func (in *Input) Init(level bool, now time.Time) {
	in.value = in.logical(level)
	in.lastChange = now
}

// Changed takes a sample and reports whether the stable value changed.
//
// Every sample that differs from the stable value restarts the quiet period,
// so a line that keeps bouncing never commits.
func (in *Input) Changed(level bool, now time.Time) bool {
	v := in.logical(level)
	if v == in.value {
		return false
	}

	changed := false
	if now.Sub(in.lastChange) > in.Debounce {
		in.value = v
		changed = true
	}
	in.lastChange = now
	return changed
}

// Value returns the stable (debounced) logical value.
func (in *Input) Value() bool {
	return in.value
}

func (in *Input) logical(level bool) bool {
	return level == in.ActiveHigh
}
