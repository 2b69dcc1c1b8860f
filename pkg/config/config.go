// Package config provides environment-based configuration for eb-deploy,
// with an optional YAML overrides file for monitor tuning.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/narvanalabs/eb-deploy/internal/models"
	"github.com/narvanalabs/eb-deploy/internal/monitor"
)

// Config holds all tunable settings for a deploy invocation.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Retry   RetryConfig   `yaml:"retry"`
	Log     LogConfig     `yaml:"log"`
}

// MonitorConfig tunes the deployment monitor.
type MonitorConfig struct {
	// PollInterval is the cadence between status polls.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeout bounds the whole monitoring run.
	Timeout time.Duration `yaml:"timeout"`
	// StabilityWindow is how long the success condition must hold
	// continuously before declaring success. Converted to consecutive
	// ticks at poll cadence.
	StabilityWindow time.Duration `yaml:"stability_window"`
	// FailureGrace is how long Red health is tolerated before failing.
	FailureGrace time.Duration `yaml:"failure_grace"`
	// EventLookback widens the first event fetch before monitor start.
	EventLookback time.Duration `yaml:"event_lookback"`
	// HealthCriterion is "must-green" or "no-red".
	HealthCriterion string `yaml:"health_criterion"`
	// EventSeverityFloor drops events below this severity from the
	// stream; ERROR and FATAL always pass.
	EventSeverityFloor string `yaml:"event_severity_floor"`
}

// RetryConfig bounds in-tick retries of throttled/transient provider calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Debug bool `yaml:"debug"`
	JSON  bool `yaml:"json"`
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval:       getDurationEnv("EB_DEPLOY_POLL_INTERVAL", 15*time.Second),
			Timeout:            getDurationEnv("EB_DEPLOY_TIMEOUT", 20*time.Minute),
			StabilityWindow:    getDurationEnv("EB_DEPLOY_STABILITY_WINDOW", time.Minute),
			FailureGrace:       getDurationEnv("EB_DEPLOY_FAILURE_GRACE", time.Minute),
			EventLookback:      getDurationEnv("EB_DEPLOY_EVENT_LOOKBACK", monitor.DefaultLookback),
			HealthCriterion:    getEnv("EB_DEPLOY_HEALTH_CRITERION", string(monitor.CriterionMustGreen)),
			EventSeverityFloor: getEnv("EB_DEPLOY_EVENT_SEVERITY", string(models.SeverityInfo)),
		},
		Retry: RetryConfig{
			MaxAttempts: getIntEnv("EB_DEPLOY_RETRY_ATTEMPTS", 3),
			BaseDelay:   getDurationEnv("EB_DEPLOY_RETRY_BASE_DELAY", 2*time.Second),
			MaxDelay:    getDurationEnv("EB_DEPLOY_RETRY_MAX_DELAY", 15*time.Second),
		},
		Log: LogConfig{
			Debug: getBoolEnv("EB_DEPLOY_DEBUG", false),
			JSON:  getBoolEnv("EB_DEPLOY_LOG_JSON", false),
		},
	}
}

// MergeFile overlays settings from a YAML file onto the config. Absent
// keys keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is internally consistent.
// Violations are rejected before any polling starts.
func (c *Config) Validate() error {
	m := c.Monitor
	if m.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", m.PollInterval)
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", m.Timeout)
	}
	if m.Timeout <= m.PollInterval {
		return fmt.Errorf("timeout %s must exceed poll interval %s", m.Timeout, m.PollInterval)
	}
	if m.FailureGrace < 0 {
		return fmt.Errorf("failure grace must not be negative, got %s", m.FailureGrace)
	}
	if m.FailureGrace >= m.Timeout {
		return fmt.Errorf("failure grace %s must be below timeout %s", m.FailureGrace, m.Timeout)
	}
	if !monitor.HealthCriterion(m.HealthCriterion).IsValid() {
		return fmt.Errorf("unknown health criterion %q", m.HealthCriterion)
	}
	if !models.Severity(m.EventSeverityFloor).IsValid() {
		return fmt.Errorf("unknown event severity %q", m.EventSeverityFloor)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// StabilityTicks converts the stability window into consecutive poll
// ticks, rounding up so the window is never shortened.
func (m MonitorConfig) StabilityTicks() int {
	if m.StabilityWindow <= 0 || m.PollInterval <= 0 {
		return 1
	}
	ticks := int(math.Ceil(float64(m.StabilityWindow) / float64(m.PollInterval)))
	if ticks < 1 {
		return 1
	}
	return ticks
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
