package mqtt

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/mdns"
)

// BrokerService is the DNS-SD service type advertised by MQTT brokers.
const BrokerService = "_mqtt._tcp"

// LookupBroker browses mDNS for an MQTT broker and returns the first one
// found as a tcp:// URL.
func LookupBroker(ctx context.Context, timeout time.Duration, log logr.Logger) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 10)

	go func() {
		params := &mdns.QueryParam{
			Service:             BrokerService,
			Domain:              "local",
			Timeout:             timeout,
			Entries:             entries,
			DisableIPv6:         true,
			WantUnicastResponse: true,
		}
		if err := mdns.Query(params); err != nil {
			log.Error(err, "mDNS query failed")
		}
		close(entries)
	}()

	var found string
	for entry := range entries {
		if found != "" || ctx.Err() != nil {
			// Drain so the query goroutine can finish.
			continue
		}
		log.V(1).Info("mDNS entry", "name", entry.Name, "addr", entry.AddrV4, "port", entry.Port)
		if u, ok := brokerURL(entry); ok {
			found = u
		}
	}

	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrNoBroker, BrokerService)
	}
	log.Info("found broker", "url", found)
	return found, nil
}

// brokerURL converts an mDNS entry into a broker URL.
func brokerURL(entry *mdns.ServiceEntry) (string, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port == 0 {
		return "", false
	}
	return "tcp://" + net.JoinHostPort(entry.AddrV4.String(), strconv.Itoa(entry.Port)), true
}
