// Package discovery turns Tasmota discovery messages into device
// announcements for the switch registry.
//
// Tasmota publishes a retained JSON config on tasmota/discovery/<MAC>/config
// when it boots. The fields used here are "dn" (device name), which switch
// interests are matched against, and "t" (topic), which commands are sent to.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sweeney/lightswitch/internal/mqtt"
)

// DefaultTopic matches every Tasmota discovery config.
const DefaultTopic = "tasmota/discovery/+/config"

var (
	// ErrMalformed is returned for payloads that are not valid discovery JSON.
	ErrMalformed = errors.New("discovery: malformed payload")

	// ErrIncomplete is returned when the device name or topic is missing.
	ErrIncomplete = errors.New("discovery: missing device name or topic")
)

// Announcement is a discovered device.
type Announcement struct {
	DeviceName string
	Topic      string
}

// tasmotaConfig is the subset of the Tasmota discovery config we read.
type tasmotaConfig struct {
	DeviceName string `json:"dn"`
	Topic      string `json:"t"`
}

// ParseTasmota decodes a discovery config payload.
func ParseTasmota(payload []byte) (Announcement, error) {
	var cfg tasmotaConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return Announcement{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if cfg.DeviceName == "" || cfg.Topic == "" {
		return Announcement{}, ErrIncomplete
	}
	return Announcement{DeviceName: cfg.DeviceName, Topic: cfg.Topic}, nil
}

// Subscribe forwards every announcement received on topic to out.
//
// The handler runs on the MQTT client's goroutine; sending on out hands the
// announcement over to the single goroutine that owns the switches. Once ctx
// is done the handler stops waiting on out and drops the announcement, so a
// full channel cannot hold up the client after the reader has gone. Empty
// payloads (a cleared retained config) are ignored and malformed ones are
// logged and dropped.
func Subscribe(ctx context.Context, sub mqtt.Subscriber, topic string, out chan<- Announcement, log logr.Logger) error {
	return sub.Subscribe(topic, func(msgTopic string, payload []byte) error {
		if len(payload) == 0 {
			return nil
		}
		a, err := ParseTasmota(payload)
		if err != nil {
			log.Error(err, "ignoring discovery message", "topic", msgTopic)
			return nil
		}
		log.V(1).Info("announcement", "device", a.DeviceName, "topic", a.Topic)
		select {
		case out <- a:
		case <-ctx.Done():
			log.V(1).Info("dropping announcement", "device", a.DeviceName, "reason", ctx.Err().Error())
		}
		return nil
	})
}
