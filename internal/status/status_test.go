package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/lightswitch/internal/logic"
)

func sampleStates() []logic.SwitchState {
	return []logic.SwitchState{
		{
			Name:      "flip",
			Kind:      logic.Latching,
			Pin:       5,
			On:        true,
			Publishes: 2,
			Bound: []logic.Device{
				{Name: "kitchen_1", Mode: logic.ModeOnOff},
				{Name: "hall_1", Mode: logic.ModeOnOnly},
			},
		},
		{Name: "push", Kind: logic.Momentary, Pin: 6},
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 10, DebounceMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if len(snap.Switches) != 0 {
		t.Errorf("expected no switches initially, got %d", len(snap.Switches))
	}
}

func TestReadyOnlyAfterSetReady(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(sampleStates())
	if tr.Snapshot().Ready {
		t.Error("switch states alone should not mark the tracker ready")
	}

	tr.SetReady(true)
	if !tr.Snapshot().Ready {
		t.Error("expected Ready=true after SetReady")
	}

	// Later updates keep it.
	tr.Update(nil)
	if !tr.Snapshot().Ready {
		t.Error("Update should not clear Ready")
	}

	tr.SetReady(false)
	if tr.Snapshot().Ready {
		t.Error("expected Ready=false after SetReady(false)")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(sampleStates())

	snap := tr.Snapshot()
	if len(snap.Switches) != 2 {
		t.Fatalf("expected 2 switches, got %d", len(snap.Switches))
	}
	if snap.Switches[0].Name != "flip" || !snap.Switches[0].On {
		t.Errorf("unexpected first switch: %+v", snap.Switches[0])
	}
	if len(snap.Switches[0].Bound) != 2 {
		t.Errorf("expected 2 bound devices, got %d", len(snap.Switches[0].Bound))
	}
}

func TestAddAnnouncement(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.AddAnnouncement()
	tr.AddAnnouncement()

	if got := tr.Snapshot().Announcements; got != 2 {
		t.Errorf("Announcements: got %d, want 2", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", SSID: "MyNet"})
	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.50" {
		t.Errorf("Network.IP: got %q", snap.Network.IP)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(90 * time.Minute),
	}
	if got := snap.Uptime(); got != 90*time.Minute {
		t.Errorf("Uptime: got %v, want 90m", got)
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now %v not within [%v, %v]", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(sampleStates())

	snap := tr.Snapshot()
	snap.Switches[0].Name = "mutated"

	if tr.Snapshot().Switches[0].Name != "flip" {
		t.Error("mutating a snapshot should not affect the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Switches:      sampleStates(),
		Ready:         true,
		Announcements: 3,
		StartTime:     start,
		Now:           start.Add(65 * time.Second),
		MQTTConnected: true,
		Config: Config{
			PollMs:      10,
			DebounceMs:  100,
			HeartbeatMs: 900000,
			Broker:      "tcp://localhost:1883",
			ClientID:    "hallway",
			HTTPAddr:    ":8080",
		},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web status should carry no event, got %q/%q", s.Event, s.Reason)
	}
	if !s.Ready {
		t.Error("expected ready=true")
	}
	if s.UptimeSeconds != 65 {
		t.Errorf("uptime_seconds: got %d, want 65", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("start_time: got %q", s.StartTime)
	}
	if !s.MQTT.Connected || s.MQTT.ClientID != "hallway" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
	if s.Announcements != 3 {
		t.Errorf("announcements: got %d, want 3", s.Announcements)
	}
	if s.Config.HeartbeatMs != 900000 {
		t.Errorf("heartbeat_ms: got %d", s.Config.HeartbeatMs)
	}
	if s.Network != nil {
		t.Error("network should be omitted when unknown")
	}

	if len(s.Switches) != 2 {
		t.Fatalf("expected 2 switches, got %d", len(s.Switches))
	}
	flip := s.Switches[0]
	if flip.Kind != "latching" || flip.State != "ON" || flip.Pin != 5 || flip.Publishes != 2 {
		t.Errorf("unexpected flip: %+v", flip)
	}
	wantBound := []DeviceJSON{{Topic: "kitchen_1", Mode: "on-off"}, {Topic: "hall_1", Mode: "on-only"}}
	if len(flip.Bound) != len(wantBound) {
		t.Fatalf("expected %d bound, got %d", len(wantBound), len(flip.Bound))
	}
	for i := range wantBound {
		if flip.Bound[i] != wantBound[i] {
			t.Errorf("bound %d: got %+v, want %+v", i, flip.Bound[i], wantBound[i])
		}
	}

	push := s.Switches[1]
	if push.Kind != "momentary" || push.State != "OFF" {
		t.Errorf("unexpected push: %+v", push)
	}
	if push.Bound == nil {
		t.Error("bound should encode as an empty list, not null")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{Switches: sampleStates(), StartTime: start, Now: start}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")
	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q", parsed.Status.Reason)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("event payload should be compact")
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: time.Now(), Now: time.Now()}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")
	if strings.Contains(string(data), `"reason"`) {
		t.Errorf("reason should be omitted: %s", data)
	}
	if !strings.Contains(string(data), `"event":"HEARTBEAT"`) {
		t.Errorf("event missing: %s", data)
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Now(),
		Now:       time.Now(),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.50", SSID: "MyNet"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Network == nil {
		t.Fatal("expected network")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHeartbeat(15*time.Minute, start)

	if h.Due(start.Add(14 * time.Minute)) {
		t.Error("should not be due before the interval")
	}
	if !h.Due(start.Add(15 * time.Minute)) {
		t.Error("should be due at the interval")
	}
	if h.Due(start.Add(16 * time.Minute)) {
		t.Error("interval should restart after firing")
	}
	if !h.Due(start.Add(30 * time.Minute)) {
		t.Error("should be due one interval after the last heartbeat")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHeartbeat(0, start)

	if h.Due(start.Add(24 * time.Hour)) {
		t.Error("zero interval should never be due")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(sampleStates())
			tr.AddAnnouncement()
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
