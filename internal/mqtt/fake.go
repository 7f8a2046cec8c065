package mqtt

import "fmt"

// Message is a published light command.
type Message struct {
	Topic   string
	Payload string
}

// FakeClient records publishes and lets tests inject subscribed messages.
type FakeClient struct {
	// Messages contains all light commands that were published.
	Messages []Message

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Handlers holds the subscribed handlers by topic filter.
	Handlers map[string]MessageHandler

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{Handlers: make(map[string]MessageHandler)}
}

// Publish records the light command.
func (f *FakeClient) Publish(topic, payload string) {
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload})
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Subscribe records handler under topic.
func (f *FakeClient) Subscribe(topic string, handler MessageHandler) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	if topic == "" {
		return ErrInvalidTopic
	}
	f.Handlers[topic] = handler
	return nil
}

// Deliver passes a message to the handler subscribed under filter.
func (f *FakeClient) Deliver(filter, topic string, payload []byte) error {
	h, ok := f.Handlers[filter]
	if !ok {
		return fmt.Errorf("no subscription for %q", filter)
	}
	return h(topic, payload)
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages and events.
func (f *FakeClient) Reset() {
	f.Messages = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishSystemError = nil
	f.SubscribeError = nil
	f.Connected = false
}
