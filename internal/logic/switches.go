package logic

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Switches is the ordered set of all switches. Every operation visits the
// switches in the order they were passed to NewSwitches.
type Switches struct {
	list []*Switch
	log  logr.Logger
}

// NewSwitches groups already-constructed switches.
func NewSwitches(log logr.Logger, switches ...*Switch) *Switches {
	return &Switches{list: switches, log: log}
}

// Len returns the number of switches.
func (r *Switches) Len() int {
	return len(r.list)
}

// Each calls fn for every switch in order.
func (r *Switches) Each(fn func(*Switch)) {
	for _, s := range r.list {
		fn(s)
	}
}

// InitAll takes the first sample of every switch input.
func (r *Switches) InitAll(reader LevelReader, now time.Time) error {
	for _, s := range r.list {
		level, err := reader.Level(s.Input.Pin)
		if err != nil {
			return fmt.Errorf("init switch %q pin %d: %w", s.Name, s.Input.Pin, err)
		}
		s.Init(level, now)
		r.log.V(1).Info("initialised", "switch", s.Name, "pin", s.Input.Pin, "value", s.Input.Value())
	}
	return nil
}

// Announce offers a discovered device to every switch.
func (r *Switches) Announce(deviceName, topic string) {
	for _, s := range r.list {
		s.Announce(deviceName, topic)
	}
}

// PollAll polls every switch and returns the total number of messages
// published. A switch whose line cannot be read is skipped for this tick.
func (r *Switches) PollAll(reader LevelReader, now time.Time, pub Publisher) int {
	sent := 0
	for _, s := range r.list {
		level, err := reader.Level(s.Input.Pin)
		if err != nil {
			r.log.Error(err, "gpio read failed", "switch", s.Name, "pin", s.Input.Pin)
			continue
		}
		sent += s.Poll(level, now, pub)
	}
	return sent
}

// States returns a snapshot of every switch in order.
func (r *Switches) States() []SwitchState {
	states := make([]SwitchState, 0, len(r.list))
	for _, s := range r.list {
		states = append(states, s.State())
	}
	return states
}
