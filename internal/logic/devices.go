package logic

import (
	"slices"

	"github.com/go-logr/logr"
)

// DeviceList is an insertion-ordered set of devices keyed by name.
// The zero value is ready to use and logs nothing.
type DeviceList struct {
	devices []Device
	log     logr.Logger
}

// NewDeviceList creates an empty list that reports additions to log.
func NewDeviceList(log logr.Logger) *DeviceList {
	return &DeviceList{log: log}
}

// Find returns the device with exactly this name.
func (l *DeviceList) Find(name string) (Device, bool) {
	for _, d := range l.devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// Add appends a device unless one with the same name is already present,
// in which case the existing entry (and its mode) is kept and returned.
func (l *DeviceList) Add(name string, mode Mode) Device {
	if d, ok := l.Find(name); ok {
		l.log.Info("already have device", "name", name, "mode", d.Mode)
		return d
	}
	l.log.Info("adding device", "name", name, "mode", mode)
	d := Device{Name: name, Mode: mode}
	l.devices = append(l.devices, d)
	return d
}

// Bind appends name with mode unless that exact pairing is already present.
// Unlike Add, the same name may be held more than once with different modes.
func (l *DeviceList) Bind(name string, mode Mode) Device {
	d := Device{Name: name, Mode: mode}
	if slices.Contains(l.devices, d) {
		l.log.Info("already have device", "name", name, "mode", mode)
		return d
	}
	l.log.Info("adding device", "name", name, "mode", mode)
	l.devices = append(l.devices, d)
	return d
}

// Len returns the number of devices.
func (l *DeviceList) Len() int {
	return len(l.devices)
}

// Devices returns a copy of the devices in insertion order.
func (l *DeviceList) Devices() []Device {
	return slices.Clone(l.devices)
}
