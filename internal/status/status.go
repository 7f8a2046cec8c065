// Package status provides a thread-safe status tracker for the lightswitch daemon.
// It is written by the main loop and read by HTTP handlers.
package status

import (
	"slices"
	"sync"
	"time"

	"github.com/sweeney/lightswitch/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	ClientID    string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Switches      []logic.SwitchState
	Ready         bool
	Announcements int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest switch states.
// Called from the main loop on every tick.
func (t *Tracker) Update(switches []logic.SwitchState) {
	t.mu.Lock()
	t.snap.Switches = switches
	t.mu.Unlock()
}

// SetReady marks the daemon ready: switches initialized and discovery
// subscribed. Switch states alone do not make it ready.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// AddAnnouncement counts one discovery announcement.
func (t *Tracker) AddAnnouncement() {
	t.mu.Lock()
	t.snap.Announcements++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Switches = slices.Clone(t.snap.Switches)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Heartbeat decides when a periodic heartbeat is due.
type Heartbeat struct {
	interval time.Duration
	last     time.Time
}

// NewHeartbeat starts the interval at start. An interval <= 0 disables it.
func NewHeartbeat(interval time.Duration, start time.Time) *Heartbeat {
	return &Heartbeat{interval: interval, last: start}
}

// Due reports whether the interval has elapsed since the last heartbeat
// (or start), and if so restarts the interval at now.
func (h *Heartbeat) Due(now time.Time) bool {
	if h.interval <= 0 {
		return false
	}
	if now.Sub(h.last) < h.interval {
		return false
	}
	h.last = now
	return true
}
