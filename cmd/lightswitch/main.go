// Command lightswitch reads wall switches from GPIO and drives Tasmota lights over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/sweeney/lightswitch/internal/config"
	"github.com/sweeney/lightswitch/internal/discovery"
	"github.com/sweeney/lightswitch/internal/gpio"
	"github.com/sweeney/lightswitch/internal/logic"
	"github.com/sweeney/lightswitch/internal/mqtt"
	"github.com/sweeney/lightswitch/internal/status"
	"github.com/sweeney/lightswitch/internal/web"
)

const (
	mdnsTimeout = 5 * time.Second

	// Retained discovery configs arrive in a burst right after subscribing.
	announceBuffer = 64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logr.Logger) error {
	broker := cfg.MQTT.Broker
	if broker == config.BrokerMDNS {
		ctx, cancel := context.WithTimeout(context.Background(), mdnsTimeout)
		found, err := mqtt.LookupBroker(ctx, mdnsTimeout, log.WithName("mdns"))
		cancel()
		if err != nil {
			return fmt.Errorf("find broker: %w", err)
		}
		broker = found
	}

	// Initialize GPIO
	reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.Lines())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	switches := buildSwitches(cfg, log.WithName("switch"))
	if err := switches.InitAll(reader, time.Now()); err != nil {
		return fmt.Errorf("init switches: %w", err)
	}
	switches.Each(func(sw *logic.Switch) {
		log.Info("switch ready", "name", sw.Name, "kind", sw.Kind.String(), "pin", sw.Input.Pin,
			"on", sw.Input.Value(), "interests", len(sw.Interests()))
	})

	// Initialize MQTT
	clientID := mqtt.ClientID(cfg.MQTT.ClientID)
	client, err := mqtt.Connect(mqtt.Options{
		Broker:      broker,
		ClientID:    clientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		SystemTopic: cfg.MQTT.SystemTopic,
	}, log.WithName("mqtt"))
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	defer client.Close()

	// Deferred after Close so it runs first: a discovery handler waiting on a
	// full channel gives up before the client disconnects.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	announcements := make(chan discovery.Announcement, announceBuffer)
	if err := discovery.Subscribe(ctx, client, cfg.MQTT.DiscoveryTopic, announcements, log.WithName("discovery")); err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.MQTT.DiscoveryTopic, err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      broker,
		ClientID:    clientID,
		HTTPAddr:    cfg.HTTP,
	})
	tracker.Update(switches.States())
	tracker.SetReady(true)
	tracker.SetMQTTConnected(client.IsConnected())
	if net := networkInfo(log); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startupEvent); err != nil {
		log.Error(err, "failed to publish startup event")
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, log.WithName("http"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", "addr", cfg.HTTP)
	}

	log.Info("started", "poll", cfg.Poll, "debounce", cfg.Debounce, "broker", broker,
		"client_id", clientID, "heartbeat", cfg.Heartbeat, "switches", switches.Len())

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(switches, reader, client, client, tracker, cfg.Heartbeat, log, time.Now, ticker.C, announcements, sigCh)
}

// buildSwitches creates one switch per configured entry, in file order.
func buildSwitches(cfg *config.Config, log logr.Logger) *logic.Switches {
	list := make([]*logic.Switch, 0, len(cfg.Switches))
	for _, sc := range cfg.Switches {
		in := logic.NewInput(sc.Pin, !sc.ActiveLow)
		in.Debounce = cfg.Debounce

		sw := logic.NewSwitch(sc.Kind, sc.Name, in, log)
		for _, i := range sc.Interests {
			sw.AddInterest(i.Prefix, i.Mode)
		}
		list = append(list, sw)
	}
	return logic.NewSwitches(log, list...)
}

// runLoop is the only goroutine that touches switches. Discovery
// announcements reach it over a channel from the MQTT client.
func runLoop(switches *logic.Switches, reader logic.LevelReader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, log logr.Logger, now func() time.Time, tick <-chan time.Time, announcements <-chan discovery.Announcement, sig <-chan os.Signal) error {
	hb := status.NewHeartbeat(heartbeat, now())

	for {
		select {
		case s := <-sig:
			reason := signalName(s)
			log.Info("shutting down", "signal", reason)

			refreshTracker(tracker, switches, mqttStatus)
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     reason,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Error(err, "failed to publish shutdown event")
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case a := <-announcements:
			log.V(1).Info("device announced", "device", a.DeviceName, "topic", a.Topic)
			switches.Announce(a.DeviceName, a.Topic)
			tracker.AddAnnouncement()
			refreshTracker(tracker, switches, mqttStatus)

		case <-tick:
			t := now()
			switches.PollAll(reader, t, publisher)
			refreshTracker(tracker, switches, mqttStatus)

			if !hb.Due(t) {
				continue
			}
			// Refresh network info for heartbeat
			if net := networkInfo(log); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			log.Info("heartbeat", "uptime", t.Sub(snap.StartTime).Truncate(time.Second),
				"announcements", snap.Announcements)

			hbEvent := mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Error(err, "heartbeat publish error")
			}
		}
	}
}

func refreshTracker(tracker *status.Tracker, switches *logic.Switches, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(switches.States())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
