package onemeter

import (
	"math"
	"strconv"
	"strings"
)

// OneMeter OBIS register codes as reported by the cloud API.
// The upstream uses "_" in place of the usual OBIS separators.

const (
	// Billing registers
	ObisTariff      = "0_2_2"  // Active tariff
	ObisEnergyPlus  = "1_8_0"  // Positive active energy (consumption) total
	ObisEnergyMinus = "2_8_0"  // Negative active energy (production) total
	ObisEnergyR1    = "5_8_0"  // Reactive energy, 1st quadrant
	ObisEnergyR4    = "8_8_0"  // Reactive energy, 4th quadrant
	ObisEnergyAbs   = "15_8_0" // Absolute active energy
	ObisPower       = "16_7_0" // Instantaneous active power

	// Per-tariff energy registers
	ObisEnergyPlusT1  = "1_8_1"
	ObisEnergyPlusT2  = "1_8_2"
	ObisEnergyPlusT3  = "1_8_3"
	ObisEnergyPlusT4  = "1_8_4"
	ObisEnergyMinusT1 = "2_8_1"
	ObisEnergyMinusT2 = "2_8_2"
	ObisEnergyMinusT3 = "2_8_3"
	ObisEnergyMinusT4 = "2_8_4"
	ObisEnergyR1T1    = "5_8_1"
	ObisEnergyR1T2    = "5_8_2"
	ObisEnergyR1T3    = "5_8_3"
	ObisEnergyR1T4    = "5_8_4"
	ObisEnergyR4T1    = "8_8_1"
	ObisEnergyR4T2    = "8_8_2"
	ObisEnergyR4T3    = "8_8_3"
	ObisEnergyR4T4    = "8_8_4"

	// Demand registers
	ObisActiveDemand    = "1_4_0" // Positive active demand, current period
	ObisActiveMaxDemand = "1_2_1" // Positive active cumulative maximum demand

	// Meter clock
	ObisTime = "0_9_1"
	ObisDate = "0_9_2"

	// Identification
	ObisPhysicalAddress   = "0_0_0"
	ObisMeterSerial       = "C_1_0"
	ObisOpticalPortSerial = "C_90_1"
	ObisMeterError        = "F_F_0"

	// OneMeter device diagnostics (vendor namespace)
	ObisBatteryVoltage       = "S_1_1_2"  // Device battery voltage
	ObisReadoutTimestamp     = "S_1_1_4"  // Readout timestamp (real)
	ObisSuccessfulReadings   = "S_1_1_6"  // Successful readouts since restart
	ObisFailedReadings1      = "S_1_1_7"  // Failed readouts on 1st/2nd message
	ObisUARTParams           = "S_1_1_8"  // Meter communication parameters
	ObisTemperature          = "S_1_1_9"  // Device temperature
	ObisReadoutTimestampCorr = "S_1_1_10" // Readout timestamp (corrected)
	ObisEnergyBlink          = "S_1_1_12" // Energy consumption from blink measurements
	ObisFirmwareVersion      = "S_1_1_13" // Device firmware version
	ObisHardwareVersion      = "S_1_1_14" // Device hardware version
	ObisDeviceStatus         = "S_1_1_16" // OneMeter device status
	ObisMACAddress           = "S_1_1_18" // Device MAC address
	ObisFailedReadings2      = "S_1_1_19" // Failed readouts since restart
)

// DefaultRegisterMap maps sensor keys to the OBIS register each one reads.
// The map is read-only default configuration; individual entries can be
// overridden from the config file to track upstream API changes.
var DefaultRegisterMap = map[string]string{
	"tariff":                      ObisTariff,
	"energy_plus":                 ObisEnergyPlus,
	"energy_minus":                ObisEnergyMinus,
	"energy_r1":                   ObisEnergyR1,
	"energy_r4":                   ObisEnergyR4,
	"energy_abs":                  ObisEnergyAbs,
	"power":                       ObisPower,
	"battery_voltage":             ObisBatteryVoltage,
	"meter_serial":                ObisMeterSerial,
	"uart_params":                 ObisUARTParams,
	"meter_error":                 ObisMeterError,
	"physical_address":            ObisPhysicalAddress,
	"successful_readings":         ObisSuccessfulReadings,
	"failed_readings_1":           ObisFailedReadings1,
	"failed_readings_2":           ObisFailedReadings2,
	"energy_plus_t1":              ObisEnergyPlusT1,
	"energy_plus_t2":              ObisEnergyPlusT2,
	"energy_plus_t3":              ObisEnergyPlusT3,
	"energy_plus_t4":              ObisEnergyPlusT4,
	"energy_minus_t1":             ObisEnergyMinusT1,
	"energy_minus_t2":             ObisEnergyMinusT2,
	"energy_minus_t3":             ObisEnergyMinusT3,
	"energy_minus_t4":             ObisEnergyMinusT4,
	"energy_r1_t1":                ObisEnergyR1T1,
	"energy_r1_t2":                ObisEnergyR1T2,
	"energy_r1_t3":                ObisEnergyR1T3,
	"energy_r1_t4":                ObisEnergyR1T4,
	"energy_r4_t1":                ObisEnergyR4T1,
	"energy_r4_t2":                ObisEnergyR4T2,
	"energy_r4_t3":                ObisEnergyR4T3,
	"energy_r4_t4":                ObisEnergyR4T4,
	"time":                        ObisTime,
	"date":                        ObisDate,
	"active_demand":               ObisActiveDemand,
	"active_max_demand":           ObisActiveMaxDemand,
	"optical_port_serial":         ObisOpticalPortSerial,
	"temperature":                 ObisTemperature,
	"readout_timestamp":           ObisReadoutTimestamp,
	"readout_timestamp_corrected": ObisReadoutTimestampCorr,
	"energy_consumption_blink":    ObisEnergyBlink,
	"device_status":               ObisDeviceStatus,
}

// RegisterMap returns the default sensor-to-register map with the given
// per-sensor overrides applied. Unknown override keys are accepted as-is so
// new upstream registers can be wired from configuration alone.
func RegisterMap(overrides map[string]string) map[string]string {
	m := make(map[string]string, len(DefaultRegisterMap)+len(overrides))
	for key, code := range DefaultRegisterMap {
		m[key] = code
	}
	for key, code := range overrides {
		if key == "" || code == "" {
			continue
		}
		m[key] = code
	}
	return m
}

// Battery voltage range: 1.93V reads as empty, 2.99V as full.
const (
	batteryMinVoltage = 1.93
	batteryMaxVoltage = 2.99
)

// BatteryPercentage maps a battery voltage to a 0-100 percentage, clamped
// at the range limits.
func BatteryPercentage(voltage float64) int {
	bounded := math.Max(batteryMinVoltage, math.Min(voltage, batteryMaxVoltage))
	percentage := (bounded - batteryMinVoltage) / (batteryMaxVoltage - batteryMinVoltage) * 100
	return int(math.Round(percentage))
}

// ParseUARTParams splits the combined communication-parameters register into
// IR power and baud rate. The register has appeared both as a "power/baud"
// string and as a two-element list; anything else is rejected.
func ParseUARTParams(value any) (irPower string, baudRate int, ok bool) {
	switch v := value.(type) {
	case string:
		parts := strings.SplitN(v, "/", 2)
		if len(parts) != 2 {
			return "", 0, false
		}
		baud, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return "", 0, false
		}
		return strings.TrimSpace(parts[0]), baud, true
	case []any:
		if len(v) < 2 {
			return "", 0, false
		}
		power, ok := scalarString(v[0])
		if !ok {
			return "", 0, false
		}
		baud, ok := scalarInt(v[1])
		if !ok {
			return "", 0, false
		}
		return power, baud, true
	default:
		return "", 0, false
	}
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

func scalarInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
