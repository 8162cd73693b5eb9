package onemeter

// Home Assistant style presentation metadata.
const (
	DeviceClassEnergy      = "energy"
	DeviceClassPower       = "power"
	DeviceClassVoltage     = "voltage"
	DeviceClassBattery     = "battery"
	DeviceClassTemperature = "temperature"
	DeviceClassTimestamp   = "timestamp"

	StateClassMeasurement     = "measurement"
	StateClassTotalIncreasing = "total_increasing"

	UnitKilowattHour         = "kWh"
	UnitKilovarHour          = "kvarh"
	UnitKilowatt             = "kW"
	UnitVolt                 = "V"
	UnitPercent              = "%"
	UnitCelsius              = "°C"
	UnitBaud                 = "Bd"
)

// SensorDescription carries the presentation metadata for one sensor key in
// a snapshot: how consumers should name, label, and classify the value.
type SensorDescription struct {
	Key              string
	Name             string
	Unit             string
	DeviceClass      string
	StateClass       string
	Icon             string
	Diagnostic       bool
	EnabledByDefault bool
}

// Sensors lists every sensor this integration can expose, in presentation
// order. Derived keys (battery percentage, UART split, monthly usage) are
// included alongside the register-backed ones.
var Sensors = []SensorDescription{
	{Key: "tariff", Name: "Tariff", Icon: "mdi:tag", EnabledByDefault: true},
	{Key: "energy_plus", Name: "Energy A+ (total)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "energy_minus", Name: "Energy A- (total)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt-outline", EnabledByDefault: true},
	{Key: "energy_r1", Name: "Energy R1 (total)", Unit: UnitKilovarHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r4", Name: "Energy R4 (total)", Unit: UnitKilovarHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_abs", Name: "Energy |A| (total)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:speedometer", EnabledByDefault: true},
	{Key: "power", Name: "Instantaneous Power", Unit: UnitKilowatt, DeviceClass: DeviceClassPower, StateClass: StateClassMeasurement, Icon: "mdi:flash-outline", EnabledByDefault: true},
	{Key: "this_month", Name: "Usage This Month", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:calendar-month", EnabledByDefault: true},
	{Key: "previous_month", Name: "Usage Previous Month", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, Icon: "mdi:calendar-month", EnabledByDefault: true},

	// Diagnostics
	{Key: "battery_voltage", Name: "Battery Voltage", Unit: UnitVolt, DeviceClass: DeviceClassVoltage, StateClass: StateClassMeasurement, Icon: "mdi:battery", Diagnostic: true, EnabledByDefault: true},
	{Key: "battery_percentage", Name: "Battery Percentage", Unit: UnitPercent, DeviceClass: DeviceClassBattery, StateClass: StateClassMeasurement, Icon: "mdi:battery", Diagnostic: true, EnabledByDefault: true},
	{Key: "meter_serial", Name: "Meter Serial Number", Icon: "mdi:barcode", Diagnostic: true, EnabledByDefault: true},
	{Key: "uart_params", Name: "UART Communication Parameters", Icon: "mdi:router-wireless", Diagnostic: true, EnabledByDefault: true},
	{Key: "ir_power", Name: "IR Transmission Power", Icon: "mdi:signal", Diagnostic: true, EnabledByDefault: true},
	{Key: "baud_rate", Name: "Baud Rate", Unit: UnitBaud, Icon: "mdi:swap-horizontal", Diagnostic: true, EnabledByDefault: true},
	{Key: "temperature", Name: "Temperature", Unit: UnitCelsius, DeviceClass: DeviceClassTemperature, StateClass: StateClassMeasurement, Icon: "mdi:thermometer", Diagnostic: true, EnabledByDefault: true},
	{Key: "meter_error", Name: "Meter Error", Icon: "mdi:alert-circle-outline", Diagnostic: true},
	{Key: "physical_address", Name: "Physical Address", Icon: "mdi:map-marker", Diagnostic: true},
	{Key: "successful_readings", Name: "Successful Readings Count", StateClass: StateClassTotalIncreasing, Icon: "mdi:check-circle-outline", Diagnostic: true},
	{Key: "failed_readings_1", Name: "Failed Readings Count (1)", StateClass: StateClassTotalIncreasing, Icon: "mdi:alert", Diagnostic: true},
	{Key: "failed_readings_2", Name: "Failed Readings Count (2)", StateClass: StateClassTotalIncreasing, Icon: "mdi:alert-circle", Diagnostic: true},

	// Per-tariff energy
	{Key: "energy_plus_t1", Name: "Energy A+ (tariff I)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "energy_plus_t2", Name: "Energy A+ (tariff II)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "energy_plus_t3", Name: "Energy A+ (tariff III)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "energy_plus_t4", Name: "Energy A+ (tariff IV)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "energy_minus_t1", Name: "Energy A- (tariff I)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt-outline", EnabledByDefault: true},
	{Key: "energy_minus_t2", Name: "Energy A- (tariff II)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt-outline", EnabledByDefault: true},
	{Key: "energy_minus_t3", Name: "Energy A- (tariff III)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt-outline", EnabledByDefault: true},
	{Key: "energy_minus_t4", Name: "Energy A- (tariff IV)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt-outline", EnabledByDefault: true},
	{Key: "energy_r1_t1", Name: "Reactive energy R1 (tariff I)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r1_t2", Name: "Reactive energy R1 (tariff II)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r1_t3", Name: "Reactive energy R1 (tariff III)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r1_t4", Name: "Reactive energy R1 (tariff IV)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r4_t1", Name: "Reactive energy R4 (tariff I)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r4_t2", Name: "Reactive energy R4 (tariff II)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r4_t3", Name: "Reactive energy R4 (tariff III)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: "energy_r4_t4", Name: "Reactive energy R4 (tariff IV)", Unit: UnitKilovarHour, StateClass: StateClassTotalIncreasing, Icon: "mdi:flash", EnabledByDefault: true},

	// Meter clock and demand
	{Key: "time", Name: "Time", DeviceClass: DeviceClassTimestamp, Icon: "mdi:clock", EnabledByDefault: true},
	{Key: "date", Name: "Last Total Readout", DeviceClass: DeviceClassTimestamp, Icon: "mdi:calendar", Diagnostic: true, EnabledByDefault: true},
	{Key: "active_demand", Name: "Active Demand Current", Unit: UnitKilowatt, DeviceClass: DeviceClassPower, StateClass: StateClassMeasurement, Icon: "mdi:flash-outline", EnabledByDefault: true},
	{Key: "active_max_demand", Name: "Active Max Demand", Unit: UnitKilowatt, DeviceClass: DeviceClassPower, Icon: "mdi:flash-outline", EnabledByDefault: true},
	{Key: "optical_port_serial", Name: "Optical Port Serial Number", Icon: "mdi:barcode", Diagnostic: true, EnabledByDefault: true},
	{Key: "readout_timestamp", Name: "Readout Timestamp", DeviceClass: DeviceClassTimestamp, Icon: "mdi:clock-outline", EnabledByDefault: true},
	{Key: "readout_timestamp_corrected", Name: "Readout Timestamp Corrected", DeviceClass: DeviceClassTimestamp, Icon: "mdi:clock", Diagnostic: true, EnabledByDefault: true},
	{Key: "energy_consumption_blink", Name: "Energy Consumption (blink)", Unit: UnitKilowattHour, DeviceClass: DeviceClassEnergy, StateClass: StateClassTotalIncreasing, Icon: "mdi:lightning-bolt", EnabledByDefault: true},
	{Key: "device_status", Name: "Device Status", Icon: "mdi:information-outline", Diagnostic: true, EnabledByDefault: true},
}

var sensorsByKey = func() map[string]SensorDescription {
	m := make(map[string]SensorDescription, len(Sensors))
	for _, s := range Sensors {
		m[s.Key] = s
	}
	return m
}()

// FindSensor looks up the description for a sensor key.
func FindSensor(key string) (SensorDescription, bool) {
	s, ok := sensorsByKey[key]
	return s, ok
}
