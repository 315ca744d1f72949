package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config captures file and environment driven configuration for the FocusFlow service.
type Config struct {
	HTTPPort         int
	DatabasePath     string
	TokenTTL         time.Duration
	LogLevel         string
	LogFormat        string
	Timezone         string
	Location         *time.Location
	InsightsCacheTTL time.Duration
	Timer            TimerConfig
	Telemetry        TelemetryConfig
}

// TimerConfig holds the planned durations used when a user has no settings.
type TimerConfig struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// TelemetryConfig controls the OTLP metrics exporter.
type TelemetryConfig struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ExportInterval time.Duration
}

// fileConfig mirrors the YAML document. Durations are Go duration strings.
type fileConfig struct {
	HTTP struct {
		Port *int `yaml:"port"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Timezone  string `yaml:"timezone"`
	Analytics struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"analytics"`
	Timer struct {
		Work       string `yaml:"work"`
		ShortBreak string `yaml:"short_break"`
		LongBreak  string `yaml:"long_break"`
	} `yaml:"timer"`
	Telemetry struct {
		Enabled        *bool  `yaml:"enabled"`
		Endpoint       string `yaml:"endpoint"`
		Insecure       *bool  `yaml:"insecure"`
		ServiceName    string `yaml:"service_name"`
		ExportInterval string `yaml:"export_interval"`
	} `yaml:"telemetry"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides a value.
func Default() Config {
	return Config{
		HTTPPort:         8080,
		DatabasePath:     "focusflow.db",
		TokenTTL:         7 * 24 * time.Hour,
		LogLevel:         "info",
		LogFormat:        "json",
		Timezone:         "UTC",
		Location:         time.UTC,
		InsightsCacheTTL: 5 * time.Minute,
		Timer: TimerConfig{
			Work:       25 * time.Minute,
			ShortBreak: 5 * time.Minute,
			LongBreak:  15 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Insecure:       true,
			ServiceName:    "focusflow",
			ExportInterval: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and FOCUSFLOW_* environment variables, in that order of precedence.
// Every invalid value is reported in a single error.
func Load(path string) (Config, error) {
	cfg := Default()
	var invalid []string

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		invalid = append(invalid, cfg.applyFile(file)...)
	}

	invalid = append(invalid, cfg.applyEnv(os.Getenv)...)

	if !validLogLevel(cfg.LogLevel) {
		invalid = append(invalid, "log level")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		invalid = append(invalid, "log format")
	}
	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "timezone")
	} else {
		cfg.Location = loc
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		invalid = append(invalid, "telemetry endpoint")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func (c *Config) applyFile(file fileConfig) []string {
	var invalid []string

	if file.HTTP.Port != nil {
		if *file.HTTP.Port <= 0 || *file.HTTP.Port > 65535 {
			invalid = append(invalid, "http.port")
		} else {
			c.HTTPPort = *file.HTTP.Port
		}
	}
	if path := strings.TrimSpace(file.Database.Path); path != "" {
		c.DatabasePath = path
	}
	if level := strings.TrimSpace(file.Log.Level); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(file.Log.Format); format != "" {
		c.LogFormat = strings.ToLower(format)
	}
	if tz := strings.TrimSpace(file.Timezone); tz != "" {
		c.Timezone = tz
	}
	if file.Telemetry.Enabled != nil {
		c.Telemetry.Enabled = *file.Telemetry.Enabled
	}
	if endpoint := strings.TrimSpace(file.Telemetry.Endpoint); endpoint != "" {
		c.Telemetry.Endpoint = endpoint
	}
	if file.Telemetry.Insecure != nil {
		c.Telemetry.Insecure = *file.Telemetry.Insecure
	}
	if name := strings.TrimSpace(file.Telemetry.ServiceName); name != "" {
		c.Telemetry.ServiceName = name
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"auth.token_ttl", file.Auth.TokenTTL, &c.TokenTTL},
		{"analytics.cache_ttl", file.Analytics.CacheTTL, &c.InsightsCacheTTL},
		{"timer.work", file.Timer.Work, &c.Timer.Work},
		{"timer.short_break", file.Timer.ShortBreak, &c.Timer.ShortBreak},
		{"timer.long_break", file.Timer.LongBreak, &c.Timer.LongBreak},
		{"telemetry.export_interval", file.Telemetry.ExportInterval, &c.Telemetry.ExportInterval},
	}
	for _, d := range durations {
		if err := setDuration(d.value, d.dst); err != nil {
			invalid = append(invalid, d.key)
		}
	}
	return invalid
}

func (c *Config) applyEnv(getenv func(string) string) []string {
	var invalid []string
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if portValue := env("FOCUSFLOW_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "FOCUSFLOW_HTTP_PORT")
		} else {
			c.HTTPPort = port
		}
	}
	if path := env("FOCUSFLOW_DATABASE_PATH"); path != "" {
		c.DatabasePath = path
	}
	if level := env("FOCUSFLOW_LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if format := env("FOCUSFLOW_LOG_FORMAT"); format != "" {
		c.LogFormat = strings.ToLower(format)
	}
	if tz := env("FOCUSFLOW_TIMEZONE"); tz != "" {
		c.Timezone = tz
	}
	if endpoint := env("FOCUSFLOW_OTEL_ENDPOINT"); endpoint != "" {
		c.Telemetry.Endpoint = endpoint
	}
	if name := env("FOCUSFLOW_OTEL_SERVICE_NAME"); name != "" {
		c.Telemetry.ServiceName = name
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"FOCUSFLOW_OTEL_ENABLED", &c.Telemetry.Enabled},
		{"FOCUSFLOW_OTEL_INSECURE", &c.Telemetry.Insecure},
	}
	for _, b := range bools {
		value := env(b.key)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, b.key)
			continue
		}
		*b.dst = parsed
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FOCUSFLOW_TOKEN_TTL", &c.TokenTTL},
		{"FOCUSFLOW_INSIGHTS_CACHE_TTL", &c.InsightsCacheTTL},
		{"FOCUSFLOW_WORK_DURATION", &c.Timer.Work},
		{"FOCUSFLOW_SHORT_BREAK_DURATION", &c.Timer.ShortBreak},
		{"FOCUSFLOW_LONG_BREAK_DURATION", &c.Timer.LongBreak},
		{"FOCUSFLOW_OTEL_EXPORT_INTERVAL", &c.Telemetry.ExportInterval},
	}
	for _, d := range durations {
		if err := setDuration(env(d.key), d.dst); err != nil {
			invalid = append(invalid, d.key)
		}
	}
	return invalid
}

var errNonPositiveDuration = errors.New("duration must be positive")

// setDuration parses value into dst. An empty value leaves dst unchanged.
func setDuration(value string, dst *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if parsed <= 0 {
		return errNonPositiveDuration
	}
	*dst = parsed
	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
