package main

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/jackpal/gateway"

	"github.com/sweeney/lightswitch/internal/status"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// probeNetwork asks the routing table for the default gateway and the
// address of the interface that reaches it.
func probeNetwork(log logr.Logger) *status.NetworkInfo {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		log.V(1).Info("no default gateway", "error", err.Error())
		return nil
	}
	info := &status.NetworkInfo{Status: "connected", Gateway: gw.String()}
	if ip, err := gateway.DiscoverInterface(); err == nil {
		info.IP = ip.String()
	}
	return info
}

// networkInfo prefers what pi-helper reports and falls back to probing.
func networkInfo(log logr.Logger) *status.NetworkInfo {
	if info := readNetworkInfo(); info != nil {
		return info
	}
	return probeNetwork(log)
}
