package logic

import (
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Switch binds a wall switch to the lights it controls.
//
// Interests are name prefixes configured at startup. Announce turns matching
// discovered devices into bound lights, and Poll sends commands to them.
type Switch struct {
	Kind  Kind
	Name  string
	Input Input

	interests *DeviceList
	bound     *DeviceList
	publishes int
	log       logr.Logger
}

// NewSwitch creates a switch with no interests and no bound lights.
func NewSwitch(kind Kind, name string, input Input, log logr.Logger) *Switch {
	log = log.WithValues("switch", name)
	return &Switch{
		Kind:      kind,
		Name:      name,
		Input:     input,
		interests: NewDeviceList(log.WithName("interest")),
		bound:     NewDeviceList(log.WithName("bound")),
		log:       log,
	}
}

// AddInterest claims every device whose name starts with prefix.
func (s *Switch) AddInterest(prefix string, mode Mode) {
	s.interests.Add(prefix, mode)
}

// Interests returns the configured prefixes in declaration order.
func (s *Switch) Interests() []Device {
	return s.interests.Devices()
}

// Bound returns the lights this switch controls, in discovery order.
func (s *Switch) Bound() []Device {
	return s.bound.Devices()
}

// Announce offers a discovered device to the switch. Every interest whose
// prefix matches deviceName binds topic with that interest's mode, so one
// topic can be bound more than once with different modes. Announcing the
// same device again changes nothing.
// It returns the number of matching interests.
func (s *Switch) Announce(deviceName, topic string) int {
	matched := 0
	for _, in := range s.interests.devices {
		if strings.HasPrefix(deviceName, in.Name) {
			s.bound.Bind(topic, in.Mode)
			matched++
		}
	}
	return matched
}

// Init takes the first sample of the switch input.
func (s *Switch) Init(level bool, now time.Time) {
	s.Input.Init(level, now)
}

// Poll samples the switch input and, on a debounced transition, publishes
// the resulting command to every bound light whose mode permits it.
// It returns the number of messages published.
func (s *Switch) Poll(level bool, now time.Time, pub Publisher) int {
	if !s.Input.Changed(level, now) {
		return 0
	}

	cmd, ok := s.command()
	if !ok {
		return 0
	}

	payload := cmd.String()
	s.log.Info("changed, publishing", "value", s.Input.Value(), "command", payload)

	sent := 0
	for _, d := range s.bound.devices {
		if !d.Mode.Permits(cmd) {
			continue
		}
		topic := PowerTopic(d.Name)
		s.log.Info("publish", "device", d.Name, "topic", topic, "payload", payload)
		pub.Publish(topic, payload)
		sent++
	}
	s.publishes += sent
	return sent
}

// command maps the current stable value to a command. Momentary switches
// only act on the press.
func (s *Switch) command() (Command, bool) {
	switch s.Kind {
	case Latching:
		if s.Input.Value() {
			return CommandOn, true
		}
		return CommandOff, true
	case Momentary:
		if s.Input.Value() {
			return CommandToggle, true
		}
	}
	return 0, false
}

// State returns a snapshot of the switch.
func (s *Switch) State() SwitchState {
	return SwitchState{
		Name:      s.Name,
		Kind:      s.Kind,
		Pin:       s.Input.Pin,
		On:        s.Input.Value(),
		Bound:     s.bound.Devices(),
		Publishes: s.publishes,
	}
}
