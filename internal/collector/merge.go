package collector

import (
	"onemeter-monitor/internal/onemeter"
)

// Alternate top-level field names the cloud API has used for device
// identity metadata across versions, tried after the register map.
var (
	firmwareFallbackFields = []string{"fw", "firmwareVersion", "version"}
	hardwareFallbackFields = []string{"hw", "hardwareVersion", "hwVersion"}
	serialFallbackFields   = []string{"serialNumber", "deviceSerial", "serial"}
)

var identityRegisters = map[string]string{
	"firmware_version": onemeter.ObisFirmwareVersion,
	"hardware_version": onemeter.ObisHardwareVersion,
	"meter_serial":     onemeter.ObisMeterSerial,
	"mac_address":      onemeter.ObisMACAddress,
	"physical_address": onemeter.ObisPhysicalAddress,
}

// buildSnapshot merges a device snapshot and a readings snapshot into the
// flat sensor mapping. For every configured register the device value wins
// over the readings value; derived fields are appended only when their
// prerequisites parsed cleanly.
func buildSnapshot(deviceData, readingsData map[string]any, registers map[string]string) onemeter.Snapshot {
	snap := onemeter.Snapshot{}

	mergeIdentity(snap, deviceData, readingsData)

	for sensorKey, code := range registers {
		value := onemeter.ExtractDeviceValue(deviceData, code)
		if value == nil {
			value = onemeter.ExtractReadingValue(readingsData, code)
		}
		if value != nil {
			snap[sensorKey] = value
		}
	}

	if raw, ok := snap["uart_params"]; ok {
		if irPower, baudRate, ok := onemeter.ParseUARTParams(raw); ok {
			snap["ir_power"] = irPower
			snap["baud_rate"] = baudRate
		}
	}

	if voltage, ok := numericValue(snap["battery_voltage"]); ok {
		snap["battery_percentage"] = onemeter.BatteryPercentage(voltage)
	}

	if usage, ok := onemeter.ThisMonthUsage(deviceData); ok {
		snap["this_month"] = usage
	}
	if usage, ok := onemeter.PreviousMonthUsage(deviceData); ok {
		snap["previous_month"] = usage
	}

	return snap
}

// mergeIdentity extracts device-registry fields with layered fallbacks:
// register map first, then the alternate top-level field names, then the
// nested lastReading.info block.
func mergeIdentity(snap onemeter.Snapshot, deviceData, readingsData map[string]any) {
	for field, code := range identityRegisters {
		value := onemeter.ExtractDeviceValue(deviceData, code)
		if value == nil {
			value = onemeter.ExtractReadingValue(readingsData, code)
		}
		if value != nil {
			snap[field] = value
		}
	}

	if _, ok := snap["firmware_version"]; !ok {
		setFromFields(snap, "firmware_version", deviceData, firmwareFallbackFields)
	}
	if _, ok := snap["hardware_version"]; !ok {
		setFromFields(snap, "hardware_version", deviceData, hardwareFallbackFields)
	}
	if _, ok := snap["meter_serial"]; !ok {
		setFromFields(snap, "meter_serial", deviceData, serialFallbackFields)
	}

	if info := lastReadingInfo(deviceData); info != nil {
		if _, ok := snap["firmware_version"]; !ok {
			if value, ok := info["firmwareVersion"]; ok && value != nil {
				snap["firmware_version"] = value
			}
		}
		if _, ok := snap["hardware_version"]; !ok {
			if value, ok := info["hardwareVersion"]; ok && value != nil {
				snap["hardware_version"] = value
			}
		}
	}
}

func setFromFields(snap onemeter.Snapshot, key string, data map[string]any, fields []string) {
	for _, field := range fields {
		if value, ok := data[field]; ok && value != nil && value != "" {
			snap[key] = value
			return
		}
	}
}

func lastReadingInfo(deviceData map[string]any) map[string]any {
	lastReading, ok := deviceData["lastReading"].(map[string]any)
	if !ok {
		return nil
	}
	info, ok := lastReading["info"].(map[string]any)
	if !ok {
		return nil
	}
	return info
}

// numericValue accepts only true numbers: battery voltage reported as a
// string is not trusted for the percentage computation.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
