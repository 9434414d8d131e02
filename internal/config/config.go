package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck-org/schedkit/worker"
)

// Config models schedkit.yml.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Worker struct {
		PollEvery         string  `yaml:"poll_every"`
		MaxPerTenant      int     `yaml:"max_per_tenant"`
		TenantConcurrency int     `yaml:"tenant_concurrency"`
		ItemsPerSecond    float64 `yaml:"items_per_second"`
		TenantTimeout     string  `yaml:"tenant_timeout"`
		ItemTimeout       string  `yaml:"item_timeout"`
	} `yaml:"worker"`
	Cron struct {
		Spec     string `yaml:"spec"`
		Timezone string `yaml:"timezone"`
	} `yaml:"cron"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("config.database.url is required")
	}
	if c.Worker.MaxPerTenant < 0 {
		return fmt.Errorf("config.worker.max_per_tenant must be >= 0")
	}
	if c.Worker.TenantConcurrency < 0 {
		return fmt.Errorf("config.worker.tenant_concurrency must be >= 0")
	}
	if c.Worker.ItemsPerSecond < 0 {
		return fmt.Errorf("config.worker.items_per_second must be >= 0")
	}
	if _, err := c.WorkerOptions(); err != nil {
		return err
	}
	return nil
}

// WorkerOptions converts the worker section into worker.Options. The caller
// still supplies Tenants, Open, and Log.
func (c *Config) WorkerOptions() (worker.Options, error) {
	var opts worker.Options
	var err error

	if opts.PollEvery, err = ParseDurationField("worker.poll_every", c.Worker.PollEvery); err != nil {
		return worker.Options{}, err
	}
	if opts.TenantTimeout, err = ParseDurationField("worker.tenant_timeout", c.Worker.TenantTimeout); err != nil {
		return worker.Options{}, err
	}
	if opts.ItemTimeout, err = ParseDurationField("worker.item_timeout", c.Worker.ItemTimeout); err != nil {
		return worker.Options{}, err
	}
	opts.MaxPerTenant = c.Worker.MaxPerTenant
	opts.TenantConcurrency = c.Worker.TenantConcurrency
	opts.MaxItemsPerSecond = c.Worker.ItemsPerSecond
	return opts, nil
}

// Level parses logging.level, defaulting to INFO.
func (c *Config) Level() slog.Level {
	switch strings.ToUpper(strings.TrimSpace(c.Logging.Level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}
