package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"onemeter-monitor/internal/onemeter"
)

// SnapshotSource is the slice of the collector the metrics layer reads.
type SnapshotSource interface {
	Snapshot() onemeter.Snapshot
	LastSuccess() time.Time
	Healthy() bool
}

// Collector exposes the latest meter snapshot as Prometheus metrics. It
// never triggers a poll itself; scrapes read whatever the poll loop last
// stored.
type Collector struct {
	source   SnapshotSource
	deviceID string

	pollSuccess prometheus.Gauge
	lastSuccess prometheus.Gauge
	info        *prometheus.GaugeVec

	energyPlusKwh     prometheus.Gauge
	energyMinusKwh    prometheus.Gauge
	energyR1Kvarh     prometheus.Gauge
	energyR4Kvarh     prometheus.Gauge
	energyAbsKwh      prometheus.Gauge
	powerKw           prometheus.Gauge
	activeDemandKw    prometheus.Gauge
	activeMaxDemandKw prometheus.Gauge
	thisMonthKwh      prometheus.Gauge
	previousMonthKwh  prometheus.Gauge
	batteryVolts      prometheus.Gauge
	batteryPercent    prometheus.Gauge
	temperatureC      prometheus.Gauge
	successfulReads   prometheus.Gauge
	failedReads1      prometheus.Gauge
	failedReads2      prometheus.Gauge

	energyPlusTariffKwh  *prometheus.GaugeVec
	energyMinusTariffKwh *prometheus.GaugeVec
	energyR1TariffKvarh  *prometheus.GaugeVec
	energyR4TariffKvarh  *prometheus.GaugeVec
}

func NewCollector(source SnapshotSource, deviceID string) *Collector {
	tariffLabels := []string{"tariff"}
	return &Collector{
		source:   source,
		deviceID: deviceID,
		pollSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_poll_success",
			Help: "Last poll cycle success (1=ok, 0=error)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_last_success_timestamp_seconds",
			Help: "Last successful poll timestamp (epoch seconds)",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onemeter_info",
			Help: "OneMeter device info",
		}, []string{"device_id", "serial", "firmware", "hardware", "model"}),
		energyPlusKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_energy_plus_kwh",
			Help: "Positive active energy total (kWh)",
		}),
		energyMinusKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_energy_minus_kwh",
			Help: "Negative active energy total (kWh)",
		}),
		energyR1Kvarh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_energy_r1_kvarh",
			Help: "Reactive energy, 1st quadrant (kvarh)",
		}),
		energyR4Kvarh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_energy_r4_kvarh",
			Help: "Reactive energy, 4th quadrant (kvarh)",
		}),
		energyAbsKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_energy_abs_kwh",
			Help: "Absolute active energy total (kWh)",
		}),
		powerKw: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_power_kw",
			Help: "Instantaneous active power (kW)",
		}),
		activeDemandKw: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_active_demand_kw",
			Help: "Positive active demand, current period (kW)",
		}),
		activeMaxDemandKw: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_active_max_demand_kw",
			Help: "Positive active cumulative maximum demand (kW)",
		}),
		thisMonthKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_usage_this_month_kwh",
			Help: "Energy usage this month (kWh)",
		}),
		previousMonthKwh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_usage_previous_month_kwh",
			Help: "Energy usage previous month (kWh)",
		}),
		batteryVolts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_battery_voltage_volts",
			Help: "Device battery voltage (V)",
		}),
		batteryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_battery_percent",
			Help: "Device battery level (%)",
		}),
		temperatureC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_temperature_celsius",
			Help: "Device temperature (celsius)",
		}),
		successfulReads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_successful_readings_total",
			Help: "Successful meter readouts since device restart",
		}),
		failedReads1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_failed_readings_first_total",
			Help: "Failed readout attempts on 1st/2nd message",
		}),
		failedReads2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_failed_readings_total",
			Help: "Failed meter readouts since device restart",
		}),
		energyPlusTariffKwh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onemeter_energy_plus_tariff_kwh",
			Help: "Positive active energy per tariff (kWh)",
		}, tariffLabels),
		energyMinusTariffKwh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onemeter_energy_minus_tariff_kwh",
			Help: "Negative active energy per tariff (kWh)",
		}, tariffLabels),
		energyR1TariffKvarh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onemeter_energy_r1_tariff_kvarh",
			Help: "Reactive energy, 1st quadrant, per tariff (kvarh)",
		}, tariffLabels),
		energyR4TariffKvarh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onemeter_energy_r4_tariff_kvarh",
			Help: "Reactive energy, 4th quadrant, per tariff (kvarh)",
		}, tariffLabels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range c.gauges() {
		metric.Describe(ch)
	}
	c.info.Describe(ch)
	for _, vec := range c.tariffVecs() {
		vec.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()

	if c.source.Healthy() {
		c.pollSuccess.Set(1)
	} else {
		c.pollSuccess.Set(0)
	}
	if last := c.source.LastSuccess(); !last.IsZero() {
		c.lastSuccess.Set(float64(last.Unix()))
	}

	c.info.Reset()
	if len(snap) > 0 {
		identity := onemeter.Identity(snap, c.deviceID, "")
		c.info.With(prometheus.Labels{
			"device_id": identity.DeviceID,
			"serial":    identity.SerialNumber,
			"firmware":  identity.FirmwareVersion,
			"hardware":  identity.HardwareVersion,
			"model":     identity.Model,
		}).Set(1)
	}

	setFromSnapshot(c.energyPlusKwh, snap, "energy_plus")
	setFromSnapshot(c.energyMinusKwh, snap, "energy_minus")
	setFromSnapshot(c.energyR1Kvarh, snap, "energy_r1")
	setFromSnapshot(c.energyR4Kvarh, snap, "energy_r4")
	setFromSnapshot(c.energyAbsKwh, snap, "energy_abs")
	setFromSnapshot(c.powerKw, snap, "power")
	setFromSnapshot(c.activeDemandKw, snap, "active_demand")
	setFromSnapshot(c.activeMaxDemandKw, snap, "active_max_demand")
	setFromSnapshot(c.thisMonthKwh, snap, "this_month")
	setFromSnapshot(c.previousMonthKwh, snap, "previous_month")
	setFromSnapshot(c.batteryVolts, snap, "battery_voltage")
	setFromSnapshot(c.batteryPercent, snap, "battery_percentage")
	setFromSnapshot(c.temperatureC, snap, "temperature")
	setFromSnapshot(c.successfulReads, snap, "successful_readings")
	setFromSnapshot(c.failedReads1, snap, "failed_readings_1")
	setFromSnapshot(c.failedReads2, snap, "failed_readings_2")

	setTariffs(c.energyPlusTariffKwh, snap, "energy_plus_t")
	setTariffs(c.energyMinusTariffKwh, snap, "energy_minus_t")
	setTariffs(c.energyR1TariffKvarh, snap, "energy_r1_t")
	setTariffs(c.energyR4TariffKvarh, snap, "energy_r4_t")

	for _, metric := range c.gauges() {
		metric.Collect(ch)
	}
	c.info.Collect(ch)
	for _, vec := range c.tariffVecs() {
		vec.Collect(ch)
	}
}

func (c *Collector) gauges() []prometheus.Gauge {
	return []prometheus.Gauge{
		c.pollSuccess, c.lastSuccess,
		c.energyPlusKwh, c.energyMinusKwh, c.energyR1Kvarh, c.energyR4Kvarh,
		c.energyAbsKwh, c.powerKw, c.activeDemandKw, c.activeMaxDemandKw,
		c.thisMonthKwh, c.previousMonthKwh, c.batteryVolts, c.batteryPercent,
		c.temperatureC, c.successfulReads, c.failedReads1, c.failedReads2,
	}
}

func (c *Collector) tariffVecs() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		c.energyPlusTariffKwh, c.energyMinusTariffKwh,
		c.energyR1TariffKvarh, c.energyR4TariffKvarh,
	}
}

func setFromSnapshot(g prometheus.Gauge, snap onemeter.Snapshot, key string) {
	if value, ok := snap.Float(key); ok {
		g.Set(value)
	}
}

var tariffSuffixes = []string{"1", "2", "3", "4"}

func setTariffs(vec *prometheus.GaugeVec, snap onemeter.Snapshot, keyPrefix string) {
	vec.Reset()
	for _, tariff := range tariffSuffixes {
		if value, ok := snap.Float(keyPrefix + tariff); ok {
			vec.With(prometheus.Labels{"tariff": tariff}).Set(value)
		}
	}
}
