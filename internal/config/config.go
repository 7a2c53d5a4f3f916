// Package config provides centralized configuration management.
// Defaults live here; environment variables override them at Load.
package config

import (
	"os"
	"strconv"
)

// WorldConfig holds simulation world settings.
type WorldConfig struct {
	Width    float64 // World width in units
	Height   float64 // World height in units
	TickRate int     // Simulation ticks per second
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:    1280,
		Height:   720,
		TickRate: 30,
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvFloat("WORLD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("WORLD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if tps := getEnvInt("TICK_RATE", 0); tps > 0 {
		cfg.TickRate = tps
	}

	return cfg
}

// IndexConfig holds spatial index settings.
type IndexConfig struct {
	NodeCapacity   int     // Items per quadtree node before it splits
	DetectionRange float64 // Side length of the per-agent neighbor window
}

// DefaultIndex returns the default index configuration.
func DefaultIndex() IndexConfig {
	return IndexConfig{
		NodeCapacity:   4,
		DetectionRange: 100,
	}
}

// IndexFromEnv returns index configuration with environment overrides.
func IndexFromEnv() IndexConfig {
	cfg := DefaultIndex()

	if c := getEnvInt("NODE_CAPACITY", 0); c > 0 {
		cfg.NodeCapacity = c
	}
	if r := getEnvFloat("DETECTION_RANGE", 0); r > 0 {
		cfg.DetectionRange = r
	}

	return cfg
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	DebugServer bool // internal pprof/metrics listener on localhost
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        3000,
		DebugServer: true,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.DebugServer = false
	}

	return cfg
}

// LimitsConfig controls resource caps.
type LimitsConfig struct {
	MaxAgents     int // Hard cap on simulated agents
	InitialAgents int // Agents spawned at startup
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxAgents:     200,
		InitialAgents: 24,
	}
}

// LimitsFromEnv returns limits with environment overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()

	if m := getEnvInt("MAX_AGENTS", 0); m > 0 {
		cfg.MaxAgents = m
	}
	if n := getEnvInt("INITIAL_AGENTS", -1); n >= 0 {
		cfg.InitialAgents = n
	}

	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Index  IndexConfig
	Server ServerConfig
	Limits LimitsConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  WorldFromEnv(),
		Index:  IndexFromEnv(),
		Server: ServerFromEnv(),
		Limits: LimitsFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
