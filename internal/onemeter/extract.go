package onemeter

import (
	"strconv"
	"strings"
)

// API response keys. The cloud API has served the same data under two
// shapes over time: a bare device object or a {"devices": [...]} wrapper,
// and readings with either a nested OBIS map or register codes as direct
// keys. The helpers below try each known shape in priority order and
// resolve any mismatch to "value absent" instead of failing.
const (
	respDevices     = "devices"
	respReadings    = "readings"
	respLastReading = "lastReading"
	respOBIS        = "OBIS"
	respUsage       = "usage"
	respThisMonth   = "thisMonth"
	respPrevMonth   = "previousMonth"
	respInfo        = "info"
)

// ExtractDeviceValue pulls the value for an OBIS register out of a device
// snapshot. Returns nil when the register is absent or the payload does not
// match any known shape.
func ExtractDeviceValue(data map[string]any, code string) any {
	if len(data) == 0 || code == "" {
		return nil
	}
	if device := firstDevice(data); device != nil {
		return lastReadingValue(device, code)
	}
	return lastReadingValue(data, code)
}

// ExtractReadingValue pulls the value for an OBIS register out of a
// readings snapshot, using the most recent element. Registers may sit under
// an OBIS map or directly on the reading.
func ExtractReadingValue(data map[string]any, code string) any {
	if len(data) == 0 || code == "" {
		return nil
	}
	reading := firstElement(data, respReadings)
	if reading == nil {
		return nil
	}
	if obis, ok := reading[respOBIS].(map[string]any); ok {
		if value, ok := obis[code]; ok {
			return value
		}
	}
	if value, ok := reading[code]; ok {
		return value
	}
	return nil
}

// ThisMonthUsage returns the current month's usage figure from a device
// snapshot, in either wrapped or unwrapped shape.
func ThisMonthUsage(data map[string]any) (float64, bool) {
	return monthUsage(data, respThisMonth)
}

// PreviousMonthUsage returns the previous month's usage figure from a
// device snapshot.
func PreviousMonthUsage(data map[string]any) (float64, bool) {
	return monthUsage(data, respPrevMonth)
}

func monthUsage(data map[string]any, key string) (float64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	object := data
	if device := firstDevice(data); device != nil {
		object = device
	}
	usage, ok := object[respUsage].(map[string]any)
	if !ok {
		return 0, false
	}
	return asFloat(usage[key])
}

// firstDevice unwraps the {"devices": [...]} response shape, returning nil
// when the payload is not wrapped.
func firstDevice(data map[string]any) map[string]any {
	return firstElement(data, respDevices)
}

func firstElement(data map[string]any, key string) map[string]any {
	list, ok := data[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	element, ok := list[0].(map[string]any)
	if !ok {
		return nil
	}
	return element
}

func lastReadingValue(object map[string]any, code string) any {
	lastReading, ok := object[respLastReading].(map[string]any)
	if !ok {
		return nil
	}
	obis, ok := lastReading[respOBIS].(map[string]any)
	if !ok {
		return nil
	}
	if value, ok := obis[code]; ok {
		return value
	}
	return nil
}

// asFloat coerces JSON scalars (numbers and numeric strings) to float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
