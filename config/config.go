package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"onemeter-monitor/internal/onemeter"
)

type Config struct {
	Cloud     CloudConfig       `mapstructure:"cloud"`
	Collector CollectorConfig   `mapstructure:"collector"`
	API       APIConfig         `mapstructure:"api"`
	MQTT      MQTTConfig        `mapstructure:"mqtt"`
	Log       LogConfig         `mapstructure:"log"`
	Registers map[string]string `mapstructure:"registers"`
}

type CloudConfig struct {
	DeviceID string        `mapstructure:"device_id"`
	APIKey   string        `mapstructure:"api_key"`
	Name     string        `mapstructure:"name"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CollectorConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	Enabled         bool `mapstructure:"enabled"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Refresh intervals accepted by the upstream API's recommended cadence.
var allowedIntervals = map[int]bool{1: true, 5: true, 15: true}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/onemeter-monitor")
	}

	// Set defaults
	v.SetDefault("cloud.device_id", "")
	v.SetDefault("cloud.api_key", "")
	v.SetDefault("cloud.name", "OneMeter")
	v.SetDefault("cloud.base_url", onemeter.DefaultBaseURL)
	v.SetDefault("cloud.timeout", "30s")
	v.SetDefault("collector.interval_minutes", 15)
	v.SetDefault("collector.enabled", true)
	v.SetDefault("api.port", 8046)
	v.SetDefault("api.enabled", true)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "onemeter")
	v.SetDefault("mqtt.client_id", "onemeter-monitor")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if !allowedIntervals[cfg.Collector.IntervalMinutes] {
		return nil, fmt.Errorf("collector.interval_minutes must be 1, 5, or 15 (got %d)", cfg.Collector.IntervalMinutes)
	}

	return &cfg, nil
}

// ValidateCloud checks the fields every device-bound command needs.
func (c *Config) ValidateCloud() error {
	if c.Cloud.APIKey == "" {
		return fmt.Errorf("cloud.api_key is required")
	}
	if c.Cloud.DeviceID == "" {
		return fmt.Errorf("cloud.device_id is required")
	}
	return nil
}

// RegisterMap resolves the effective sensor-to-register map: built-in
// defaults overridden by the config file's registers section.
func (c *Config) RegisterMap() map[string]string {
	return onemeter.RegisterMap(c.Registers)
}
