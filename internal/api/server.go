package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"onemeter-monitor/internal/onemeter"
)

// Provider is the slice of the collector the API serves.
type Provider interface {
	Snapshot() onemeter.Snapshot
	LastSuccess() time.Time
	LastError() error
	ConsecutiveFailures() int
	IsCollecting() bool
	Healthy() bool
}

// Server exposes the latest snapshot, sensor metadata, device identity, and
// metrics over HTTP.
type Server struct {
	router     *gin.Engine
	server     *http.Server
	provider   Provider
	port       int
	deviceID   string
	deviceName string
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Provider   Provider
	DeviceID   string
	DeviceName string
	Metrics    http.Handler // optional, mounted at /metrics
	Logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:     router,
		provider:   cfg.Provider,
		port:       cfg.Port,
		deviceID:   cfg.DeviceID,
		deviceName: cfg.DeviceName,
		logger:     logger.With("component", "api"),
	}

	s.setupRoutes(cfg.Metrics)
	return s
}

func (s *Server) setupRoutes(metrics http.Handler) {
	s.router.GET("/health", s.healthHandler)
	if metrics != nil {
		s.router.GET("/metrics", gin.WrapH(metrics))
	}

	api := s.router.Group("/api/v1")
	{
		api.GET("/status", s.statusHandler)
		api.GET("/sensors", s.sensorsHandler)
		api.GET("/device", s.deviceHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.logger.Info("API server starting", "port", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the route tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	status := "healthy"
	if !s.provider.Healthy() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               status,
		"collecting":           s.provider.IsCollecting(),
		"consecutive_failures": s.provider.ConsecutiveFailures(),
		"timestamp":            time.Now(),
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	snap := s.provider.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}

	response := gin.H{
		"device_id":    s.deviceID,
		"last_success": s.provider.LastSuccess(),
		"values":       snap,
	}
	if err := s.provider.LastError(); err != nil {
		response["stale"] = true
		response["last_error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}

type sensorView struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Unit        string `json:"unit,omitempty"`
	DeviceClass string `json:"device_class,omitempty"`
	StateClass  string `json:"state_class,omitempty"`
	Diagnostic  bool   `json:"diagnostic,omitempty"`
	Value       any    `json:"value"`
}

func (s *Server) sensorsHandler(c *gin.Context) {
	snap := s.provider.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}

	sensors := make([]sensorView, 0, len(snap))
	for _, desc := range onemeter.Sensors {
		value, ok := snap[desc.Key]
		if !ok {
			continue
		}
		sensors = append(sensors, sensorView{
			Key:         desc.Key,
			Name:        desc.Name,
			Unit:        desc.Unit,
			DeviceClass: desc.DeviceClass,
			StateClass:  desc.StateClass,
			Diagnostic:  desc.Diagnostic,
			Value:       value,
		})
	}

	c.JSON(http.StatusOK, sensors)
}

func (s *Server) deviceHandler(c *gin.Context) {
	snap := s.provider.Snapshot()
	c.JSON(http.StatusOK, onemeter.Identity(snap, s.deviceID, s.deviceName))
}
