// Package common provides shared configuration and telemetry for the
// swx data applications.
package common

import (
	"os"
	"path/filepath"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "127.0.0.1:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "swx"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            getEnv("SWX_DATA_DIR", "/var/lib/swx-data"),
	}
}

// RawDataDir returns where downloaded archives land.
func (c *Config) RawDataDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ConvertedDataDir returns where converted outputs land.
func (c *Config) ConvertedDataDir() string {
	return filepath.Join(c.DataDir, "converted")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
