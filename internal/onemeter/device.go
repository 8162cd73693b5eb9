package onemeter

import "fmt"

// Snapshot is the flat sensor-key to value mapping produced by one poll
// cycle. A key is present only when a value was successfully extracted for
// it; the whole map is replaced on every successful poll.
type Snapshot map[string]any

// Float returns the value for a sensor key coerced to float64.
func (s Snapshot) Float(key string) (float64, bool) {
	value, ok := s[key]
	if !ok {
		return 0, false
	}
	return asFloat(value)
}

// String returns the value for a sensor key rendered as a string.
func (s Snapshot) String(key string) (string, bool) {
	value, ok := s[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", value), true
}

const Manufacturer = "OneMeter"

// DeviceIdentity is the device-registry metadata derivable from a snapshot.
type DeviceIdentity struct {
	DeviceID        string `json:"device_id"`
	Name            string `json:"name"`
	Manufacturer    string `json:"manufacturer"`
	Model           string `json:"model"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	HardwareVersion string `json:"hardware_version"`
	MACAddress      string `json:"mac_address,omitempty"`
}

// Identity derives device metadata from a snapshot. Missing versions read
// as "Unknown" and the serial falls back to the cloud device id, matching
// what the upstream portal displays.
func Identity(snap Snapshot, deviceID, name string) DeviceIdentity {
	firmware := stringOr(snap, "firmware_version", "Unknown")
	hardware := stringOr(snap, "hardware_version", "Unknown")
	serial := stringOr(snap, "meter_serial", deviceID)

	mac, ok := snap.String("mac_address")
	if !ok {
		mac, _ = snap.String("physical_address")
	}

	return DeviceIdentity{
		DeviceID:        deviceID,
		Name:            name,
		Manufacturer:    Manufacturer,
		Model:           fmt.Sprintf("Cloud Energy Monitor %s", hardware),
		SerialNumber:    serial,
		FirmwareVersion: firmware,
		HardwareVersion: hardware,
		MACAddress:      mac,
	}
}

func stringOr(snap Snapshot, key, fallback string) string {
	if value, ok := snap.String(key); ok && value != "" {
		return value
	}
	return fallback
}
