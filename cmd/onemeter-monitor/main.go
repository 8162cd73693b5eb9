package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"onemeter-monitor/config"
	"onemeter-monitor/internal/api"
	"onemeter-monitor/internal/collector"
	"onemeter-monitor/internal/logging"
	"onemeter-monitor/internal/metrics"
	"onemeter-monitor/internal/mqtt"
	"onemeter-monitor/internal/onemeter"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "onemeter-monitor",
		Short: "OneMeter smart meter monitor",
		Long:  "A tool to monitor a OneMeter smart-meter device via the OneMeter Cloud API",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(readCmd())
	rootCmd.AddCommand(testCmd())
	rootCmd.AddCommand(devicesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring service",
		Long:  "Start the collector, API server, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateCloud(); err != nil {
				return err
			}

			logger := logging.New(cfg.Log.Level, cfg.Log.Format)

			client := onemeter.NewClient(onemeter.ClientConfig{
				DeviceID: cfg.Cloud.DeviceID,
				APIKey:   cfg.Cloud.APIKey,
				BaseURL:  cfg.Cloud.BaseURL,
				Timeout:  cfg.Cloud.Timeout,
				Logger:   logger,
			})

			// A broken API key is a configuration error, not a transient
			// cycle failure. Fail startup outright.
			if err := verifyConnection(cmd.Context(), client); err != nil {
				client.Close()
				return err
			}
			logger.Info("connected to OneMeter Cloud", "device", cfg.Cloud.DeviceID)

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				DeviceID:    cfg.Cloud.DeviceID,
				DeviceName:  cfg.Cloud.Name,
				Enabled:     cfg.MQTT.Enabled,
				Logger:      logger,
			})
			if err != nil {
				logger.Warn("MQTT connection failed", "error", err)
			} else if cfg.MQTT.Enabled {
				logger.Info("MQTT connected", "broker", cfg.MQTT.Broker)
			}

			coll := collector.New(collector.Config{
				Client:          client,
				Publisher:       publisherOrNil(publisher, err),
				Logger:          logger,
				IntervalMinutes: cfg.Collector.IntervalMinutes,
				Enabled:         cfg.Collector.Enabled,
				Registers:       cfg.RegisterMap(),
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := coll.Start(ctx); err != nil {
					logger.Error("collector error", "error", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				registry := prometheus.NewRegistry()
				registry.MustRegister(metrics.NewCollector(coll, cfg.Cloud.DeviceID))

				server = api.NewServer(api.ServerConfig{
					Port:       cfg.API.Port,
					Provider:   coll,
					DeviceID:   cfg.Cloud.DeviceID,
					DeviceName: cfg.Cloud.Name,
					Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
					Logger:     logger,
				})

				go func() {
					if err := server.Start(); err != nil {
						logger.Error("API server error", "error", err)
					}
				}()
			}

			logger.Info("OneMeter Monitor started, press Ctrl+C to stop")

			<-sigChan
			logger.Info("shutting down")
			cancel()

			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := server.Stop(shutdownCtx); err != nil {
					logger.Warn("API server shutdown", "error", err)
				}
			}
			if publisher != nil {
				publisher.Close()
			}
			coll.Stop()

			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Read data once from the cloud",
		Long:  "Poll the OneMeter Cloud API once and print the merged snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateCloud(); err != nil {
				return err
			}

			logger := logging.New("warn", cfg.Log.Format)
			client := onemeter.NewClient(onemeter.ClientConfig{
				DeviceID: cfg.Cloud.DeviceID,
				APIKey:   cfg.Cloud.APIKey,
				BaseURL:  cfg.Cloud.BaseURL,
				Timeout:  cfg.Cloud.Timeout,
				Logger:   logger,
			})
			defer client.Close()

			coll := collector.New(collector.Config{
				Client:          client,
				Logger:          logger,
				IntervalMinutes: cfg.Collector.IntervalMinutes,
				Enabled:         true,
				Registers:       cfg.RegisterMap(),
			})

			snap, err := coll.CollectOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read data: %w", err)
			}

			output, _ := json.MarshalIndent(snap, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test connection to the cloud",
		Long:  "Test the OneMeter Cloud API connection and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateCloud(); err != nil {
				return err
			}

			fmt.Printf("Testing connection for device %s...\n", cfg.Cloud.DeviceID)

			logger := logging.New("warn", cfg.Log.Format)
			client := onemeter.NewClient(onemeter.ClientConfig{
				DeviceID: cfg.Cloud.DeviceID,
				APIKey:   cfg.Cloud.APIKey,
				BaseURL:  cfg.Cloud.BaseURL,
				Timeout:  cfg.Cloud.Timeout,
				Logger:   logger,
			})
			defer client.Close()

			if err := verifyConnection(cmd.Context(), client); err != nil {
				fmt.Printf("Connection FAILED: %v\n", err)
				return err
			}

			fmt.Println("Connection SUCCESS!")

			coll := collector.New(collector.Config{
				Client:          client,
				Logger:          logger,
				IntervalMinutes: cfg.Collector.IntervalMinutes,
				Enabled:         true,
				Registers:       cfg.RegisterMap(),
			})

			snap, err := coll.CollectOnce(cmd.Context())
			if err != nil {
				fmt.Printf("Warning: could not read data: %v\n", err)
				return nil
			}

			identity := onemeter.Identity(snap, cfg.Cloud.DeviceID, cfg.Cloud.Name)
			fmt.Printf("\nDevice Info:\n")
			fmt.Printf("  Serial Number: %s\n", identity.SerialNumber)
			fmt.Printf("  Model:         %s\n", identity.Model)
			fmt.Printf("  Firmware:      %s\n", identity.FirmwareVersion)

			fmt.Printf("\nCurrent Values:\n")
			if value, ok := snap.Float("energy_plus"); ok {
				fmt.Printf("  Energy A+:     %.3f kWh\n", value)
			}
			if value, ok := snap.Float("power"); ok {
				fmt.Printf("  Power:         %.3f kW\n", value)
			}
			if value, ok := snap.Float("battery_percentage"); ok {
				fmt.Printf("  Battery:       %.0f %%\n", value)
			}
			if value, ok := snap.Float("this_month"); ok {
				fmt.Printf("  This Month:    %.3f kWh\n", value)
			}

			return nil
		},
	}
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices visible to the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Cloud.APIKey == "" {
				return fmt.Errorf("cloud.api_key is required")
			}

			logger := logging.New("warn", cfg.Log.Format)
			client := onemeter.NewClient(onemeter.ClientConfig{
				APIKey:  cfg.Cloud.APIKey,
				BaseURL: cfg.Cloud.BaseURL,
				Timeout: cfg.Cloud.Timeout,
				Logger:  logger,
			})
			defer client.Close()

			data, err := client.Devices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			devices, _ := data["devices"].([]any)
			if len(devices) == 0 {
				fmt.Println("No devices found for this API key.")
				return nil
			}

			fmt.Printf("Found %d device(s):\n", len(devices))
			for _, entry := range devices {
				device, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				id, _ := device["_id"].(string)
				name := ""
				if info, ok := device["info"].(map[string]any); ok {
					name, _ = info["name"].(string)
				}
				if name != "" {
					fmt.Printf("  %s  (%s)\n", id, name)
				} else {
					fmt.Printf("  %s\n", id)
				}
			}

			return nil
		},
	}
}

// verifyConnection distinguishes bad credentials from transient trouble at
// setup time.
func verifyConnection(ctx context.Context, client *onemeter.Client) error {
	_, err := client.DeviceData(ctx)
	if errors.Is(err, onemeter.ErrUnauthorized) {
		return fmt.Errorf("OneMeter Cloud rejected the API key: %w", err)
	}
	if err != nil {
		return fmt.Errorf("could not connect to OneMeter Cloud: %w", err)
	}
	return nil
}

func publisherOrNil(publisher *mqtt.Publisher, err error) collector.Publisher {
	if err != nil || publisher == nil {
		return nil
	}
	return publisher
}
