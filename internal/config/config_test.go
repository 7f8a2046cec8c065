package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/lightswitch/internal/gpio"
	"github.com/sweeney/lightswitch/internal/logic"
)

const sampleYAML = `
mqtt:
  broker: tcp://10.0.0.2:1883
  client_id: hallway
  password: hunter2
poll: 20ms
debounce: 150ms
switches:
  - name: flip
    kind: latching
    pin: 5
    bias: pull-up
    active_low: true
    interests:
      - prefix: Kitchen
        mode: on-only
      - prefix: Hall
  - name: push
    kind: momentary
    pin: 6
    interests:
      - prefix: Bedroom
        mode: off-only
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lightswitch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(New(), writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MQTT.Broker != "tcp://10.0.0.2:1883" {
		t.Errorf("broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.ClientID != "hallway" {
		t.Errorf("client_id: got %q", cfg.MQTT.ClientID)
	}
	if cfg.Poll != 20*time.Millisecond {
		t.Errorf("poll: got %v, want 20ms", cfg.Poll)
	}
	if cfg.Debounce != 150*time.Millisecond {
		t.Errorf("debounce: got %v, want 150ms", cfg.Debounce)
	}
	if len(cfg.Switches) != 2 {
		t.Fatalf("expected 2 switches, got %d", len(cfg.Switches))
	}

	flip := cfg.Switches[0]
	if flip.Name != "flip" || flip.Kind != logic.Latching || flip.Pin != 5 {
		t.Errorf("unexpected first switch: %+v", flip)
	}
	if !flip.ActiveLow {
		t.Error("expected active_low=true")
	}
	if flip.Bias != gpio.BiasPullUp {
		t.Errorf("bias: got %q, want pull-up", flip.Bias)
	}
	if len(flip.Interests) != 2 {
		t.Fatalf("expected 2 interests, got %d", len(flip.Interests))
	}
	if flip.Interests[0].Mode != logic.ModeOnOnly {
		t.Errorf("interest 0 mode: got %s, want on-only", flip.Interests[0].Mode)
	}
	if flip.Interests[1].Mode != logic.ModeOnOff {
		t.Errorf("interest 1 mode should default to on-off, got %s", flip.Interests[1].Mode)
	}

	push := cfg.Switches[1]
	if push.Kind != logic.Momentary {
		t.Errorf("push kind: got %s, want momentary", push.Kind)
	}
	if push.Interests[0].Mode != logic.ModeOffOnly {
		t.Errorf("push interest mode: got %s, want off-only", push.Interests[0].Mode)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), writeConfig(t, `
switches:
  - name: flip
    kind: latching
    pin: 5
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MQTT.DiscoveryTopic != "tasmota/discovery/+/config" {
		t.Errorf("discovery_topic: got %q", cfg.MQTT.DiscoveryTopic)
	}
	if cfg.MQTT.SystemTopic != "lightswitch" {
		t.Errorf("system_topic: got %q", cfg.MQTT.SystemTopic)
	}
	if cfg.GPIO.Chip != gpio.DefaultChip {
		t.Errorf("chip: got %q", cfg.GPIO.Chip)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("debounce: got %v, want 100ms", cfg.Debounce)
	}
	if cfg.Poll != 10*time.Millisecond {
		t.Errorf("poll: got %v, want 10ms", cfg.Poll)
	}
	if cfg.Heartbeat != 15*time.Minute {
		t.Errorf("heartbeat: got %v, want 15m", cfg.Heartbeat)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log: got %+v", cfg.Log)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LIGHTSWITCH_MQTT_BROKER", "tcp://override:1883")
	t.Setenv("LIGHTSWITCH_DEBOUNCE", "250ms")

	cfg, err := Load(New(), writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://override:1883" {
		t.Errorf("broker: got %q, want env override", cfg.MQTT.Broker)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("debounce: got %v, want 250ms", cfg.Debounce)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	_, err := Load(New(), writeConfig(t, `
switches:
  - name: flip
    kind: rocker
    pin: 5
`))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestLoadRequiresKind(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing", `
switches:
  - name: flip
    pin: 5
`},
		{"misspelled key", `
switches:
  - name: push
    type: momentary
    pin: 6
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), "switches[0].kind is required") {
				t.Errorf("error %q should name the missing kind", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			MQTT:     MQTTConfig{Broker: "tcp://b:1883", DiscoveryTopic: "d/+/config"},
			Poll:     10 * time.Millisecond,
			Debounce: 100 * time.Millisecond,
			Switches: []SwitchConfig{
				{Name: "a", Kind: logic.Latching, Pin: 5},
				{Name: "b", Kind: logic.Momentary, Pin: 6},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"no switches", func(c *Config) { c.Switches = nil }, "at least one switch"},
		{"zero poll", func(c *Config) { c.Poll = 0 }, "poll"},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, "debounce"},
		{"duplicate name", func(c *Config) { c.Switches[1].Name = "a" }, "duplicated"},
		{"duplicate pin", func(c *Config) { c.Switches[1].Pin = 5 }, "already used"},
		{"negative pin", func(c *Config) { c.Switches[0].Pin = -1 }, "pin must not be negative"},
		{"bad bias", func(c *Config) { c.Switches[0].Bias = "sideways" }, "bias"},
		{"bad kind", func(c *Config) { c.Switches[0].Kind = logic.Kind(7) }, "kind must be"},
		{"no kind", func(c *Config) { c.Switches[0].Kind = 0 }, "kind is required"},
		{"empty prefix", func(c *Config) {
			c.Switches[0].Interests = []InterestConfig{{Prefix: ""}}
		}, "prefix is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestYAMLOmitsPassword(t *testing.T) {
	cfg, err := Load(New(), writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "hunter2") {
		t.Error("rendered config must not contain the password")
	}
	for _, want := range []string{"kind: latching", "mode: on-only", "debounce: 150ms", "bias: pull-up"} {
		if !strings.Contains(s, want) {
			t.Errorf("rendered config missing %q:\n%s", want, s)
		}
	}
}

func TestLines(t *testing.T) {
	cfg := Config{Switches: []SwitchConfig{
		{Name: "a", Pin: 5, Bias: gpio.BiasPullUp},
		{Name: "b", Pin: 6},
	}}

	lines := cfg.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != (gpio.Line{Pin: 5, Bias: gpio.BiasPullUp}) {
		t.Errorf("line 0: got %+v", lines[0])
	}
	if lines[1].Pin != 6 {
		t.Errorf("line 1: got %+v", lines[1])
	}
}
