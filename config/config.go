package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/HarmonyChat/Cadence/utils"
)

// Config is the service configuration.
type Config struct {
	NATS    NATS    `koanf:"nats"`
	Metrics Metrics `koanf:"metrics"`
	Service Service `koanf:"service"`
}

// NATS configures the broker connection and subject namespacing.
type NATS struct {
	URL                   string `koanf:"url"`
	SubjectPrefix         string `koanf:"subject_prefix"`
	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds"`
}

// ServerURL returns the configured broker URL, falling back to the NATS_*
// environment variables when the config file leaves it empty.
func (n NATS) ServerURL() string {
	if n.URL != "" {
		return n.URL
	}
	return utils.NatsURL()
}

// RequestTimeout returns the per-request deadline for remote API calls.
func (n NATS) RequestTimeout() time.Duration {
	return time.Duration(n.RequestTimeoutSeconds) * time.Second
}

// Metrics configures the Prometheus listener.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Service holds miscellaneous service settings.
type Service struct {
	StatsIntervalSeconds int `koanf:"stats_interval_seconds"`
}

// StatsInterval returns how often registry stats are reported.
func (s Service) StatsInterval() time.Duration {
	return time.Duration(s.StatsIntervalSeconds) * time.Second
}

// Load reads the first TOML file found among the given paths. When no file
// exists the defaults apply and the NATS URL comes from the environment,
// matching how the service ran before it grew a config file.
func Load(paths ...string) (*Config, error) {
	k := koanf.New(".")

	if len(paths) == 0 {
		paths = []string{"config/cadence.toml", "cadence.toml", "/etc/cadence/cadence.toml"}
	}
	for _, path := range paths {
		if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
			break
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.NATS.RequestTimeoutSeconds <= 0 {
		cfg.NATS.RequestTimeoutSeconds = 5
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":8081"
	}
	if cfg.Service.StatsIntervalSeconds <= 0 {
		cfg.Service.StatsIntervalSeconds = 30
	}

	return &cfg, nil
}
