package onemeter

import "testing"

func TestSnapshotFloat(t *testing.T) {
	snap := Snapshot{"power": 1.5, "tariff": "2", "serial": "abc"}
	if v, ok := snap.Float("power"); !ok || v != 1.5 {
		t.Fatalf("Float(power) = %v, %v", v, ok)
	}
	if v, ok := snap.Float("tariff"); !ok || v != 2 {
		t.Fatalf("Float(tariff) = %v, %v", v, ok)
	}
	if _, ok := snap.Float("serial"); ok {
		t.Fatal("non-numeric string must not coerce")
	}
	if _, ok := snap.Float("missing"); ok {
		t.Fatal("missing key must not coerce")
	}
}

func TestIdentityFromSnapshot(t *testing.T) {
	snap := Snapshot{
		"firmware_version": "2.1.0",
		"hardware_version": "B4",
		"meter_serial":     "90210",
		"mac_address":      "AA:BB:CC:DD:EE:FF",
	}
	id := Identity(snap, "abc123", "Garage Meter")
	if id.DeviceID != "abc123" || id.Name != "Garage Meter" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id.Manufacturer != Manufacturer {
		t.Fatalf("unexpected manufacturer %q", id.Manufacturer)
	}
	if id.Model != "Cloud Energy Monitor B4" {
		t.Fatalf("unexpected model %q", id.Model)
	}
	if id.SerialNumber != "90210" || id.FirmwareVersion != "2.1.0" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("unexpected MAC %q", id.MACAddress)
	}
}

func TestIdentityFallbacks(t *testing.T) {
	id := Identity(Snapshot{"physical_address": "01 23 45"}, "abc123", "Meter")
	if id.FirmwareVersion != "Unknown" || id.HardwareVersion != "Unknown" {
		t.Fatalf("missing versions must read Unknown, got %+v", id)
	}
	if id.SerialNumber != "abc123" {
		t.Fatalf("serial must fall back to device id, got %q", id.SerialNumber)
	}
	if id.MACAddress != "01 23 45" {
		t.Fatalf("MAC must fall back to physical address, got %q", id.MACAddress)
	}
}
