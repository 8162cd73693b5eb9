package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"onemeter-monitor/internal/onemeter"
)

// ErrUpdateFailed signals a cycle where neither endpoint produced usable
// data. Single-endpoint failures degrade to a partial snapshot instead.
var ErrUpdateFailed = errors.New("failed to fetch data from OneMeter API")

// Publisher receives each successful snapshot and availability changes.
type Publisher interface {
	Publish(snap onemeter.Snapshot) error
	PublishAvailability(online bool) error
}

// Collector owns the poll cycle for one device: fetch the device snapshot
// and the latest readings, merge them into a flat sensor mapping, and keep
// the last good result for consumers. Polls are aligned to wall-clock
// boundaries of the configured interval.
type Collector struct {
	client    *onemeter.Client
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	enabled   bool
	registers map[string]string
	obisCodes []string

	mu           sync.RWMutex
	snapshot     onemeter.Snapshot
	lastSuccess  time.Time
	lastErr      error
	failures     int
	isCollecting bool
}

type Config struct {
	Client          *onemeter.Client
	Publisher       Publisher // optional
	Logger          *slog.Logger
	IntervalMinutes int
	Enabled         bool
	Registers       map[string]string // defaults to onemeter.DefaultRegisterMap
}

func New(cfg Config) *Collector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registers := cfg.Registers
	if registers == nil {
		registers = onemeter.DefaultRegisterMap
	}
	minutes := cfg.IntervalMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return &Collector{
		client:    cfg.Client,
		publisher: cfg.Publisher,
		logger:    logger.With("component", "collector"),
		interval:  time.Duration(minutes) * time.Minute,
		enabled:   cfg.Enabled,
		registers: registers,
		obisCodes: uniqueCodes(registers),
	}
}

// Start runs the poll loop until the context is cancelled. Every cycle,
// successful or not, reschedules against the next wall-clock boundary.
func (c *Collector) Start(ctx context.Context) error {
	if !c.enabled {
		c.logger.Info("collector is disabled")
		return nil
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	c.logger.Info("starting collector", "interval", c.interval)

	c.collect(ctx)

	timer := time.NewTimer(nextPollDelay(time.Now(), c.interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector stopped")
			c.mu.Lock()
			c.isCollecting = false
			c.mu.Unlock()
			return nil
		case <-timer.C:
			c.collect(ctx)
			timer.Reset(nextPollDelay(time.Now(), c.interval))
		}
	}
}

// collect runs one poll cycle and records the outcome.
func (c *Collector) collect(ctx context.Context) {
	snap, err := c.poll(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.failures++
		failures := c.failures
		c.mu.Unlock()

		c.logger.Error("poll cycle failed", "error", err, "consecutive_failures", failures)
		if c.publisher != nil {
			if err := c.publisher.PublishAvailability(false); err != nil {
				c.logger.Warn("failed to publish availability", "error", err)
			}
		}
		return
	}

	c.mu.Lock()
	c.snapshot = snap
	c.lastSuccess = time.Now()
	c.lastErr = nil
	c.failures = 0
	c.mu.Unlock()

	c.logger.Info("poll cycle completed", "values", len(snap))

	if c.publisher != nil {
		if err := c.publisher.PublishAvailability(true); err != nil {
			c.logger.Warn("failed to publish availability", "error", err)
		}
		if err := c.publisher.Publish(snap); err != nil {
			c.logger.Warn("failed to publish snapshot", "error", err)
		}
	}
}

// poll fetches the device snapshot and readings concurrently. The fetches
// fail independently; only both failing marks the cycle failed.
func (c *Collector) poll(ctx context.Context) (onemeter.Snapshot, error) {
	var (
		wg           sync.WaitGroup
		deviceData   map[string]any
		readingsData map[string]any
		deviceErr    error
		readingsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		deviceData, deviceErr = c.client.DeviceData(ctx)
	}()
	go func() {
		defer wg.Done()
		readingsData, readingsErr = c.client.Readings(ctx, 1, c.obisCodes)
	}()
	wg.Wait()

	if deviceErr != nil {
		c.logger.Warn("device data unavailable, using readings only", "error", deviceErr)
		deviceData = nil
	}
	if readingsErr != nil {
		c.logger.Warn("readings data unavailable, using device data only", "error", readingsErr)
		readingsData = nil
	}

	if len(deviceData) == 0 && len(readingsData) == 0 {
		if deviceErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, deviceErr)
		}
		return nil, ErrUpdateFailed
	}

	return buildSnapshot(deviceData, readingsData, c.registers), nil
}

// CollectOnce performs a single poll outside the schedule, for one-shot
// reads and setup verification.
func (c *Collector) CollectOnce(ctx context.Context) (onemeter.Snapshot, error) {
	snap, err := c.poll(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snapshot = snap
	c.lastSuccess = time.Now()
	c.lastErr = nil
	c.failures = 0
	c.mu.Unlock()

	return snap, nil
}

// Snapshot returns the last good snapshot; it stays readable while the next
// poll is in flight and across failed cycles.
func (c *Collector) Snapshot() onemeter.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *Collector) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}

func (c *Collector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Collector) ConsecutiveFailures() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}

// Healthy reports whether the collector has data and the last cycle
// succeeded.
func (c *Collector) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot != nil && c.lastErr == nil
}

// Stop releases the API client's transport.
func (c *Collector) Stop() {
	if c.client != nil {
		c.client.Close()
	}
}

func uniqueCodes(registers map[string]string) []string {
	seen := make(map[string]struct{}, len(registers))
	codes := make([]string, 0, len(registers))
	for _, code := range registers {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
