package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type EnvKey string

const (
	EnvPort       EnvKey = "PORT"
	EnvDevicePort EnvKey = "DEVICE_PORT"
	EnvDataDir    EnvKey = "DATA_DIR"
	EnvLogLevel   EnvKey = "LOG_LEVEL"
	EnvLogToFile  EnvKey = "LOG_TO_FILE"

	EnvAdminToken EnvKey = "ADMIN_TOKEN"

	EnvCollectorURL   EnvKey = "COLLECTOR_URL"
	EnvCollectorToken EnvKey = "COLLECTOR_TOKEN"

	EnvPingInterval   EnvKey = "PING_INTERVAL"
	EnvCommandTimeout EnvKey = "COMMAND_TIMEOUT"
	EnvEvictAfter     EnvKey = "EVICT_AFTER"
)

type Config struct {
	// HTTP admin/facade port
	Port int
	// Raw TCP device listener port
	DevicePort int
	DataDir    string
	LogLevel   slog.Leveler
	LogOutput  io.Writer

	// Bearer token required on admin endpoints
	AdminToken string

	// Downstream telemetry collector; empty URL disables forwarding
	CollectorURL   string
	CollectorToken string

	// Keepalive ping across live device connections
	PingInterval time.Duration
	// Default deadline for a device command reply
	CommandTimeout time.Duration
	// Grace period before a disconnected session record is deleted
	EvictAfter time.Duration
}

func New() (*Config, error) {
	dataDir := getStringEnv(EnvDataDir, "data")

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	var logOutput io.Writer = os.Stdout

	if getBoolEnv(EnvLogToFile, false) {
		logPath := filepath.Join(dataDir, "gateway.log")

		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logOutput = f
	}

	adminToken := getStringEnv(EnvAdminToken, "")
	if adminToken == "" {
		return nil, fmt.Errorf("%s is required", EnvAdminToken)
	}

	return &Config{
		Port:           getIntEnv(EnvPort, 8080),
		DevicePort:     getIntEnv(EnvDevicePort, 5084),
		DataDir:        dataDir,
		LogLevel:       getLogLevelEnv(EnvLogLevel, slog.LevelInfo),
		LogOutput:      logOutput,
		AdminToken:     adminToken,
		CollectorURL:   getStringEnv(EnvCollectorURL, ""),
		CollectorToken: getStringEnv(EnvCollectorToken, ""),
		PingInterval:   getDurationEnv(EnvPingInterval, 30*time.Second),
		CommandTimeout: getDurationEnv(EnvCommandTimeout, 30*time.Second),
		EvictAfter:     getDurationEnv(EnvEvictAfter, time.Hour),
	}, nil
}

func (c *Config) Close() error {
	if f, ok := c.LogOutput.(*os.File); ok {
		if f != os.Stdout && f != os.Stderr {
			return f.Close()
		}
	}

	return nil
}

func getStringEnv(key EnvKey, defaultVal string) string {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	return val
}

func getBoolEnv(key EnvKey, defaultVal bool) bool {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	switch strings.ToLower(val) {
	case "true", "1":
		return true
	default:
		return false
	}
}

func getIntEnv(key EnvKey, defaultVal int) int {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if intVal, err := strconv.Atoi(val); err == nil {
		return intVal
	}

	return defaultVal
}

func getDurationEnv(key EnvKey, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}

	// Bare numbers are treated as seconds
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func getLogLevelEnv(key EnvKey, defaultVal slog.Leveler) slog.Leveler {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	switch strings.ToUpper(val) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}

	return defaultVal
}
