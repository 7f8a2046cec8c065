// Package config loads the daemon configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// LIGHTSWITCH_* environment variables, then command-line flags bound by the
// caller. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/lightswitch/internal/gpio"
	"github.com/sweeney/lightswitch/internal/logic"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. LIGHTSWITCH_MQTT_BROKER.
const EnvPrefix = "LIGHTSWITCH"

// BrokerMDNS as the broker address asks for a _mqtt._tcp lookup.
const BrokerMDNS = "mdns"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration.
type Config struct {
	MQTT      MQTTConfig     `mapstructure:"mqtt" yaml:"mqtt"`
	GPIO      GPIOConfig     `mapstructure:"gpio" yaml:"gpio"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
	Poll      time.Duration  `mapstructure:"poll" yaml:"poll"`
	Debounce  time.Duration  `mapstructure:"debounce" yaml:"debounce"`
	Heartbeat time.Duration  `mapstructure:"heartbeat" yaml:"heartbeat"`
	HTTP      string         `mapstructure:"http" yaml:"http"`
	Switches  []SwitchConfig `mapstructure:"switches" yaml:"switches"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker         string `mapstructure:"broker" yaml:"broker"`
	ClientID       string `mapstructure:"client_id" yaml:"client_id"`
	Username       string `mapstructure:"username" yaml:"username,omitempty"`
	Password       string `mapstructure:"password" yaml:"-"`
	DiscoveryTopic string `mapstructure:"discovery_topic" yaml:"discovery_topic"`
	SystemTopic    string `mapstructure:"system_topic" yaml:"system_topic"`
}

// GPIOConfig selects the GPIO chip.
type GPIOConfig struct {
	Chip string `mapstructure:"chip" yaml:"chip"`
}

// LogConfig contains logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// SwitchConfig declares one wall switch.
type SwitchConfig struct {
	Name      string           `mapstructure:"name" yaml:"name"`
	Kind      logic.Kind       `mapstructure:"kind" yaml:"kind"`
	Pin       int              `mapstructure:"pin" yaml:"pin"`
	ActiveLow bool             `mapstructure:"active_low" yaml:"active_low"`
	Bias      gpio.Bias        `mapstructure:"bias" yaml:"bias"`
	Interests []InterestConfig `mapstructure:"interests" yaml:"interests"`
}

// InterestConfig claims discovered lights by device-name prefix.
type InterestConfig struct {
	Prefix string     `mapstructure:"prefix" yaml:"prefix"`
	Mode   logic.Mode `mapstructure:"mode" yaml:"mode"`
}

// SetDefaults registers every scalar default on v. Defaults are also what
// make environment overrides visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mqtt.broker", "tcp://192.168.1.200:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.discovery_topic", "tasmota/discovery/+/config")
	v.SetDefault("mqtt.system_topic", "lightswitch")
	v.SetDefault("gpio.chip", gpio.DefaultChip)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("poll", 10*time.Millisecond)
	v.SetDefault("debounce", logic.DefaultDebounce)
	v.SetDefault("heartbeat", 15*time.Minute)
	v.SetDefault("http", ":8080")
}

// New returns a viper instance with defaults and environment overrides set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the file at path (if any) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.MQTT.DiscoveryTopic == "" {
		errs = append(errs, "mqtt.discovery_topic is required")
	}
	if c.Poll <= 0 {
		errs = append(errs, "poll must be positive")
	}
	if c.Debounce <= 0 {
		errs = append(errs, "debounce must be positive")
	}
	if c.Heartbeat < 0 {
		errs = append(errs, "heartbeat must not be negative")
	}
	if len(c.Switches) == 0 {
		errs = append(errs, "at least one switch is required")
	}

	names := make(map[string]bool)
	pins := make(map[int]string)
	for i, s := range c.Switches {
		where := fmt.Sprintf("switches[%d]", i)
		if s.Name == "" {
			errs = append(errs, where+".name is required")
		} else if names[s.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", where, s.Name))
		}
		names[s.Name] = true

		if s.Pin < 0 {
			errs = append(errs, where+".pin must not be negative")
		} else if other, ok := pins[s.Pin]; ok {
			errs = append(errs, fmt.Sprintf("%s.pin %d is already used by %q", where, s.Pin, other))
		}
		pins[s.Pin] = s.Name

		switch s.Kind {
		case logic.Latching, logic.Momentary:
		case 0:
			errs = append(errs, where+".kind is required")
		default:
			errs = append(errs, where+".kind must be latching or momentary")
		}
		if !s.Bias.Valid() {
			errs = append(errs, fmt.Sprintf("%s.bias %q must be none, pull-up or pull-down", where, s.Bias))
		}
		for j, in := range s.Interests {
			if in.Prefix == "" {
				errs = append(errs, fmt.Sprintf("%s.interests[%d].prefix is required", where, j))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Lines returns the GPIO lines to request, one per switch.
func (c *Config) Lines() []gpio.Line {
	lines := make([]gpio.Line, 0, len(c.Switches))
	for _, s := range c.Switches {
		lines = append(lines, gpio.Line{Pin: s.Pin, Bias: s.Bias})
	}
	return lines
}

// YAML renders the effective configuration. The MQTT password is omitted.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
