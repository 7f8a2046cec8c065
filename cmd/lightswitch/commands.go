package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeney/lightswitch/internal/config"
	"github.com/sweeney/lightswitch/internal/gpio"
	"github.com/sweeney/lightswitch/internal/logging"
	"github.com/sweeney/lightswitch/internal/logic"
)

const defaultConfigPath = "/etc/lightswitch/lightswitch.yaml"

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"broker":     "mqtt.broker",
	"client-id":  "mqtt.client_id",
	"http":       "http",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string

	load := func() (*config.Config, error) {
		return config.Load(v, configPath)
	}

	root := &cobra.Command{
		Use:          "lightswitch",
		Short:        "Wall switches to Tasmota lights",
		Long:         "Reads wall switches from GPIO and sends power commands to Tasmota lights discovered over MQTT.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return run(cfg, logging.New(cfg.Log, logging.Writer(cfg.Log)))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", defaultConfigPath, "configuration `file`")
	pf.StringP("broker", "B", "", `MQTT broker URL, or "mdns" to discover it`)
	pf.String("client-id", "", "MQTT client ID (default lightswitch-<random>)")
	pf.String("http", "", "HTTP status address (empty to disable)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("log-file", "", "write logs to this rotating `file` instead of stderr")
	bindFlags(v, root)

	root.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Print the current level of every switch input and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.Lines())
				if err != nil {
					return fmt.Errorf("init gpio: %w", err)
				}
				defer reader.Close()
				return printState(cmd.OutOrStdout(), cfg, reader)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return printConfig(cmd.OutOrStdout(), cfg)
			},
		},
	)
	return root
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// printState writes one line per switch: raw level and polarity-adjusted value.
func printState(w io.Writer, cfg *config.Config, reader logic.LevelReader) error {
	for _, sc := range cfg.Switches {
		level, err := reader.Level(sc.Pin)
		if err != nil {
			return fmt.Errorf("read switch %s (pin %d): %w", sc.Name, sc.Pin, err)
		}
		fmt.Fprintf(w, "%s: pin=%d level=%s state=%s\n",
			sc.Name, sc.Pin, levelString(level), onOff(level != sc.ActiveLow))
	}
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) error {
	out, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func levelString(high bool) string {
	if high {
		return "high"
	}
	return "low"
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
