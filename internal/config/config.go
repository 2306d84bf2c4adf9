package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"navalha/internal/availability"
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimitRPS   float64  `yaml:"rate_limit_rps"`
		RateLimitBurst int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Enabled         bool   `yaml:"enabled"`
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Business struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"business"`

	Booking struct {
		DefaultBufferMinutes       int  `yaml:"default_buffer_minutes"`
		MinIntervalMinutes         int  `yaml:"min_interval_minutes"`
		MaxServicesShown           int  `yaml:"max_services_shown"`
		MissingScheduleWorksAllDay bool `yaml:"missing_schedule_works_all_day"`
		UnassignedBlocksIgnored    bool `yaml:"unassigned_blocks_ignored"`
	} `yaml:"booking"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/navalha.db"
	}
	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Policy maps the booking section onto the availability engine's policy,
// filling unset values with the engine defaults.
func (c *Config) Policy() availability.Policy {
	p := availability.DefaultPolicy()
	if c.Booking.DefaultBufferMinutes > 0 {
		p.DefaultBufferMinutes = c.Booking.DefaultBufferMinutes
	}
	if c.Booking.MinIntervalMinutes > 0 {
		p.MinIntervalMinutes = c.Booking.MinIntervalMinutes
	}
	if c.Booking.MaxServicesShown > 0 {
		p.MaxServicesShown = c.Booking.MaxServicesShown
	}
	p.MissingScheduleWorksAllDay = c.Booking.MissingScheduleWorksAllDay
	p.UnassignedBlocksApplyToAll = !c.Booking.UnassignedBlocksIgnored
	return p
}

// CacheTTL returns the configured Redis TTL, defaulting to two minutes.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}
