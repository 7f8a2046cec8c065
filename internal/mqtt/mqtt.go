// Package mqtt provides MQTT publishing and subscription with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/lightswitch/internal/logic"
)

// Payloads published on the LWT topic.
const (
	PayloadOnline  = "Online"
	PayloadOffline = "Offline"
)

// Publisher publishes light commands and lifecycle events.
type Publisher interface {
	// Publish sends a light command. Failures are logged, never returned.
	logic.Publisher

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Subscriber delivers messages matching a topic filter to a handler.
type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// MessageHandler is called for every message received on a subscription.
// It runs on a paho goroutine; a returned error is logged.
type MessageHandler func(topic string, payload []byte) error

// Topics builds the daemon's own topics under a prefix and client ID.
type Topics struct {
	Prefix   string
	ClientID string
}

// System is the topic for lifecycle events.
func (t Topics) System() string {
	return t.Prefix + "/" + t.ClientID + "/system"
}

// LWT is the retained availability topic.
func (t Topics) LWT() string {
	return t.Prefix + "/" + t.ClientID + "/LWT"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
