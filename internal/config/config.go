// Package config loads jsonifyd settings from defaults, an optional TOML file
// and JSONIFY_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for jsonify.
type Config struct {
	Server  ServerConfig
	Fetch   FetchConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int   // seconds
	WriteTimeout   int   // seconds
	MaxPayloadSize int64 // request body limit in bytes
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type FetchConfig struct {
	Timeout          time.Duration
	MaxBytes         int64 // cap on fetched and uploaded bodies
	AllowInsecureTLS bool
	UserAgent        string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Backend       string // none | prometheus | datadog
	Job           string
	Tags          string // comma-separated Datadog tags
	FlushInterval time.Duration
}

// Load reads configuration. If configFile is empty, jsonify.toml is looked up
// in ".", "/etc/jsonify/" and "$HOME/.jsonify/"; a missing file is fine. An
// explicitly named file must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("JSONIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("jsonify")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/jsonify/")
		v.AddConfigPath("$HOME/.jsonify/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	maxPayload, err := ParseSize(v.GetString("server.max_payload_size"))
	if err != nil {
		return nil, fmt.Errorf("invalid server.max_payload_size: %w", err)
	}
	maxBytes, err := ParseSize(v.GetString("fetch.max_bytes"))
	if err != nil {
		return nil, fmt.Errorf("invalid fetch.max_bytes: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			ReadTimeout:    v.GetInt("server.read_timeout"),
			WriteTimeout:   v.GetInt("server.write_timeout"),
			MaxPayloadSize: maxPayload,
		},
		Fetch: FetchConfig{
			Timeout:          v.GetDuration("fetch.timeout"),
			MaxBytes:         maxBytes,
			AllowInsecureTLS: v.GetBool("fetch.allow_insecure_tls"),
			UserAgent:        v.GetString("fetch.user_agent"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Backend:       strings.ToLower(v.GetString("metrics.backend")),
			Job:           v.GetString("metrics.job"),
			Tags:          v.GetString("metrics.tags"),
			FlushInterval: v.GetDuration("metrics.flush_interval"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch.timeout: %s", c.Fetch.Timeout)
	}
	switch c.Metrics.Backend {
	case "", "none", "prometheus", "datadog":
	default:
		return fmt.Errorf("invalid metrics.backend: %q (use none, prometheus or datadog)", c.Metrics.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.max_payload_size", "10MB")

	// Fetch defaults
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_bytes", "10MB")
	v.SetDefault("fetch.allow_insecure_tls", false)
	v.SetDefault("fetch.user_agent", "jsonify/1.0")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.backend", "none")
	v.SetDefault("metrics.job", "jsonify")
	v.SetDefault("metrics.tags", "")
	v.SetDefault("metrics.flush_interval", "60s")
}

// ParseSize parses sizes like "512", "100KB", "1.5MB" or "2GB" (binary units)
// into bytes.
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(strings.ToUpper(sizeStr))
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	units := []struct {
		suffix     string
		multiplier int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	numStr, mult := sizeStr, int64(1)
	for _, u := range units {
		if strings.HasSuffix(sizeStr, u.suffix) {
			numStr = strings.TrimSpace(strings.TrimSuffix(sizeStr, u.suffix))
			mult = u.multiplier
			break
		}
	}

	var (
		num      float64
		trailing string
	)
	n, _ := fmt.Sscanf(numStr, "%f%s", &num, &trailing)
	if n == 0 {
		return 0, fmt.Errorf("invalid size number: %s", numStr)
	}
	if trailing != "" {
		return 0, fmt.Errorf("invalid size format: %s (use e.g. '10MB', '500KB')", sizeStr)
	}
	if num < 0 {
		return 0, fmt.Errorf("size cannot be negative: %s", sizeStr)
	}
	return int64(num * float64(mult)), nil
}
