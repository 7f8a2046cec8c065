// Package logic contains the switch-to-light binding and dispatch rules.
// This package does no I/O: GPIO levels, time and the MQTT egress are all
// passed in by the caller.
package logic

import "fmt"

// Kind is the mechanical type of a wall switch. The zero value is no kind,
// so a config entry that never set one can be told apart.
type Kind int

const (
	// Latching switches hold their position; both edges carry meaning.
	Latching Kind = iota + 1
	// Momentary switches spring back; only the press edge carries meaning.
	Momentary
)

func (k Kind) String() string {
	switch k {
	case Latching:
		return "latching"
	case Momentary:
		return "momentary"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Latching, Momentary:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "latching":
		*k = Latching
	case "momentary":
		*k = Momentary
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
	return nil
}

// Mode restricts which commands a bound light may receive from a switch.
type Mode int

const (
	ModeOnOff Mode = iota
	ModeOnOnly
	ModeOffOnly
)

func (m Mode) String() string {
	switch m {
	case ModeOnOff:
		return "on-off"
	case ModeOnOnly:
		return "on-only"
	case ModeOffOnly:
		return "off-only"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeOnOff, ModeOnOnly, ModeOffOnly:
		return []byte(m.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "on-off":
		*m = ModeOnOff
	case "on-only":
		*m = ModeOnOnly
	case "off-only":
		*m = ModeOffOnly
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, text)
	}
	return nil
}

// Permits reports whether a light in this mode accepts cmd.
// Toggle is not tied to an on or off state, so every mode accepts it.
func (m Mode) Permits(cmd Command) bool {
	switch m {
	case ModeOnOff:
		return true
	case ModeOnOnly:
		return cmd == CommandOn || cmd == CommandToggle
	case ModeOffOnly:
		return cmd == CommandOff || cmd == CommandToggle
	}
	return false
}

// Command is a power command sent to a light.
type Command int

const (
	CommandOn Command = iota
	CommandOff
	CommandToggle
)

// String returns the payload the light firmware expects.
func (c Command) String() string {
	switch c {
	case CommandOn:
		return "On"
	case CommandOff:
		return "Off"
	case CommandToggle:
		return "TOGGLE"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// PowerTopic returns the command topic for the light published under name.
// The name is used verbatim.
func PowerTopic(name string) string {
	return "cmnd/" + name + "/Power"
}

// Device is a light known to a switch, either as an interest prefix or as a
// concrete discovered topic.
type Device struct {
	Name string
	Mode Mode
}

// Publisher sends a message to the broker. Delivery is best effort and
// failures are the publisher's concern.
type Publisher interface {
	Publish(topic, payload string)
}

// LevelReader returns the raw electrical level of a GPIO line (true = high).
type LevelReader interface {
	Level(pin int) (bool, error)
}

// SwitchState is a point-in-time view of one switch.
type SwitchState struct {
	Name      string
	Kind      Kind
	Pin       int
	On        bool
	Bound     []Device
	Publishes int
}
