package collector

import (
	"testing"

	"onemeter-monitor/internal/onemeter"
)

func deviceBody(obis map[string]any) map[string]any {
	return map[string]any{"lastReading": map[string]any{"OBIS": obis}}
}

func readingsBody(obis map[string]any) map[string]any {
	return map[string]any{"readings": []any{map[string]any{"OBIS": obis}}}
}

func TestBuildSnapshotDeviceWinsOverReadings(t *testing.T) {
	deviceData := deviceBody(map[string]any{"1_8_0": 100.0})
	readingsData := readingsBody(map[string]any{"1_8_0": 99.0, "16_7_0": 1.5})

	snap := buildSnapshot(deviceData, readingsData, onemeter.DefaultRegisterMap)
	if snap["energy_plus"] != 100.0 {
		t.Fatalf("device value must win, got %v", snap["energy_plus"])
	}
	if snap["power"] != 1.5 {
		t.Fatalf("readings value must fill the gap, got %v", snap["power"])
	}
}

func TestBuildSnapshotOmitsMissingRegisters(t *testing.T) {
	snap := buildSnapshot(deviceBody(map[string]any{"1_8_0": 1.0}), nil, onemeter.DefaultRegisterMap)
	if _, ok := snap["power"]; ok {
		t.Fatal("absent register must not appear in the snapshot")
	}
	if _, ok := snap["battery_percentage"]; ok {
		t.Fatal("derived field must be omitted without its source")
	}
}

func TestBuildSnapshotDerivedFields(t *testing.T) {
	deviceData := map[string]any{
		"lastReading": map[string]any{"OBIS": map[string]any{
			"S_1_1_2": 2.46,
			"S_1_1_8": "1/9600",
		}},
		"usage": map[string]any{"thisMonth": 123.4, "previousMonth": 98.7},
	}

	snap := buildSnapshot(deviceData, nil, onemeter.DefaultRegisterMap)
	if snap["battery_percentage"] != 50 {
		t.Fatalf("battery_percentage = %v", snap["battery_percentage"])
	}
	if snap["ir_power"] != "1" || snap["baud_rate"] != 9600 {
		t.Fatalf("uart split = %v / %v", snap["ir_power"], snap["baud_rate"])
	}
	if snap["this_month"] != 123.4 || snap["previous_month"] != 98.7 {
		t.Fatalf("monthly usage = %v / %v", snap["this_month"], snap["previous_month"])
	}
}

func TestBuildSnapshotIgnoresStringBatteryVoltage(t *testing.T) {
	snap := buildSnapshot(deviceBody(map[string]any{"S_1_1_2": "2.46"}), nil, onemeter.DefaultRegisterMap)
	if _, ok := snap["battery_percentage"]; ok {
		t.Fatal("string voltage must not produce a percentage")
	}
}

func TestBuildSnapshotMalformedUART(t *testing.T) {
	snap := buildSnapshot(deviceBody(map[string]any{"S_1_1_8": "garbage"}), nil, onemeter.DefaultRegisterMap)
	if snap["uart_params"] != "garbage" {
		t.Fatalf("raw register must survive, got %v", snap["uart_params"])
	}
	if _, ok := snap["ir_power"]; ok {
		t.Fatal("split fields must be omitted when parsing fails")
	}
}

func TestMergeIdentityRegisterFirst(t *testing.T) {
	deviceData := map[string]any{
		"lastReading": map[string]any{"OBIS": map[string]any{
			"S_1_1_13": "2.1.0",
			"C_1_0":    "90210",
		}},
		"fw":           "9.9.9",
		"serialNumber": "ignored",
	}

	snap := onemeter.Snapshot{}
	mergeIdentity(snap, deviceData, nil)
	if snap["firmware_version"] != "2.1.0" {
		t.Fatalf("register value must win, got %v", snap["firmware_version"])
	}
	if snap["meter_serial"] != "90210" {
		t.Fatalf("register value must win, got %v", snap["meter_serial"])
	}
}

func TestMergeIdentityFieldFallbacks(t *testing.T) {
	deviceData := map[string]any{
		"firmwareVersion": "1.2.3",
		"hwVersion":       "B4",
		"deviceSerial":    "777",
	}

	snap := onemeter.Snapshot{}
	mergeIdentity(snap, deviceData, nil)
	if snap["firmware_version"] != "1.2.3" || snap["hardware_version"] != "B4" || snap["meter_serial"] != "777" {
		t.Fatalf("fallback fields not applied: %v", snap)
	}
}

func TestMergeIdentityLastReadingInfo(t *testing.T) {
	deviceData := map[string]any{
		"lastReading": map[string]any{
			"OBIS": map[string]any{},
			"info": map[string]any{
				"firmwareVersion": "0.9.1",
				"hardwareVersion": "A1",
			},
		},
	}

	snap := onemeter.Snapshot{}
	mergeIdentity(snap, deviceData, nil)
	if snap["firmware_version"] != "0.9.1" || snap["hardware_version"] != "A1" {
		t.Fatalf("info block fallback not applied: %v", snap)
	}
}
