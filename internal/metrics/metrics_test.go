package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"onemeter-monitor/internal/onemeter"
)

type stubSource struct {
	snapshot    onemeter.Snapshot
	lastSuccess time.Time
	healthy     bool
}

func (s *stubSource) Snapshot() onemeter.Snapshot { return s.snapshot }
func (s *stubSource) LastSuccess() time.Time      { return s.lastSuccess }
func (s *stubSource) Healthy() bool               { return s.healthy }

func TestCollectExportsSnapshotValues(t *testing.T) {
	source := &stubSource{
		snapshot: onemeter.Snapshot{
			"energy_plus":        12345.6,
			"power":              1.5,
			"battery_percentage": 50,
		},
		lastSuccess: time.Unix(1700000000, 0),
		healthy:     true,
	}
	coll := NewCollector(source, "abc123")

	expected := `
# HELP onemeter_energy_plus_kwh Positive active energy total (kWh)
# TYPE onemeter_energy_plus_kwh gauge
onemeter_energy_plus_kwh 12345.6
# HELP onemeter_power_kw Instantaneous active power (kW)
# TYPE onemeter_power_kw gauge
onemeter_power_kw 1.5
# HELP onemeter_battery_percent Device battery level (%)
# TYPE onemeter_battery_percent gauge
onemeter_battery_percent 50
# HELP onemeter_poll_success Last poll cycle success (1=ok, 0=error)
# TYPE onemeter_poll_success gauge
onemeter_poll_success 1
# HELP onemeter_last_success_timestamp_seconds Last successful poll timestamp (epoch seconds)
# TYPE onemeter_last_success_timestamp_seconds gauge
onemeter_last_success_timestamp_seconds 1.7e+09
`
	err := testutil.CollectAndCompare(coll, strings.NewReader(expected),
		"onemeter_energy_plus_kwh", "onemeter_power_kw", "onemeter_battery_percent",
		"onemeter_poll_success", "onemeter_last_success_timestamp_seconds")
	if err != nil {
		t.Fatal(err)
	}
}

func TestCollectExportsTariffLabels(t *testing.T) {
	source := &stubSource{
		snapshot: onemeter.Snapshot{
			"energy_plus_t1": 100.0,
			"energy_plus_t2": 200.0,
		},
		healthy: true,
	}
	coll := NewCollector(source, "abc123")

	expected := `
# HELP onemeter_energy_plus_tariff_kwh Positive active energy per tariff (kWh)
# TYPE onemeter_energy_plus_tariff_kwh gauge
onemeter_energy_plus_tariff_kwh{tariff="1"} 100
onemeter_energy_plus_tariff_kwh{tariff="2"} 200
`
	err := testutil.CollectAndCompare(coll, strings.NewReader(expected), "onemeter_energy_plus_tariff_kwh")
	if err != nil {
		t.Fatal(err)
	}
}

func TestCollectExportsDeviceInfo(t *testing.T) {
	source := &stubSource{
		snapshot: onemeter.Snapshot{
			"meter_serial":     "90210",
			"firmware_version": "2.1.0",
			"hardware_version": "B4",
		},
		healthy: true,
	}
	coll := NewCollector(source, "abc123")

	expected := `
# HELP onemeter_info OneMeter device info
# TYPE onemeter_info gauge
onemeter_info{device_id="abc123",firmware="2.1.0",hardware="B4",model="Cloud Energy Monitor B4",serial="90210"} 1
`
	if err := testutil.CollectAndCompare(coll, strings.NewReader(expected), "onemeter_info"); err != nil {
		t.Fatal(err)
	}
}

func TestCollectWithoutData(t *testing.T) {
	coll := NewCollector(&stubSource{}, "abc123")

	expected := `
# HELP onemeter_poll_success Last poll cycle success (1=ok, 0=error)
# TYPE onemeter_poll_success gauge
onemeter_poll_success 0
`
	if err := testutil.CollectAndCompare(coll, strings.NewReader(expected), "onemeter_poll_success", "onemeter_info"); err != nil {
		t.Fatal(err)
	}
	if n := testutil.CollectAndCount(coll, "onemeter_energy_plus_tariff_kwh"); n != 0 {
		t.Fatalf("expected no tariff series, got %d", n)
	}
}
