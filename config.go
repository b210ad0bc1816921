package labflow

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"github.com/viant/labflow/internal/logging"
	"github.com/viant/labflow/internal/yml"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/service/broker"
	"github.com/viant/labflow/service/workflow"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML, JSON or LABFLOW_* environment variables.
type Config struct {
	Seed           uint64         `json:"seed" yaml:"seed"`
	Epoch          time.Time      `json:"epoch" yaml:"epoch"`
	RealTimeFactor float64        `json:"realTimeFactor,omitempty" yaml:"realTimeFactor,omitempty" validate:"gte=0"`
	Resources      broker.Config  `json:"resources" yaml:"resources"`
	Durations      Durations      `json:"durations" yaml:"durations"`
	Policy         *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
	Catalog        string         `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Actors         string         `json:"actors,omitempty" yaml:"actors,omitempty"`
	Store          StoreConfig    `json:"store" yaml:"store"`
	Log            logging.Config `json:"log" yaml:"log"`
	Tracing        TracingConfig  `json:"tracing" yaml:"tracing"`
}

// Durations bounds the randomized service times.
type Durations struct {
	CheckIn workflow.Range `json:"checkIn" yaml:"checkIn"`
	Analyze workflow.Range `json:"analyze" yaml:"analyze"`
}

// StoreConfig selects the snapshot store used by Save and Load. Name is the
// snapshot name; URL is a directory for fs and a file path for sqlite.
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind" validate:"oneof=memory fs sqlite"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty" validate:"required_unless=Kind memory"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// TracingConfig enables stdout span export; an empty Output writes to stdout.
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	engine := workflow.DefaultConfig()
	return &Config{
		Seed:      engine.Seed,
		Epoch:     engine.Epoch,
		Resources: engine.Resources,
		Durations: Durations{CheckIn: engine.CheckIn, Analyze: engine.Analyze},
		Policy:    policy.DefaultConfig(),
		Store:     StoreConfig{Kind: StoreMemory, Name: "default"},
		Log:       logging.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := yml.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return c.engine().Validate()
}

func (c *Config) engine() *workflow.Config {
	return &workflow.Config{
		Seed:      c.Seed,
		Epoch:     c.Epoch,
		Resources: c.Resources,
		CheckIn:   c.Durations.CheckIn,
		Analyze:   c.Durations.Analyze,
	}
}

// LoadConfig reads a YAML config from URL on top of DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := yml.Load(ctx, afs.New(), URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ApplyEnv loads a .env file when present and overlays LABFLOW_* variables.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if value, ok := os.LookupEnv("LABFLOW_SEED"); ok {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LABFLOW_SEED %q: %w", value, err)
		}
		c.Seed = seed
	}
	if value, ok := os.LookupEnv("LABFLOW_REAL_TIME_FACTOR"); ok {
		factor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid LABFLOW_REAL_TIME_FACTOR %q: %w", value, err)
		}
		c.RealTimeFactor = factor
	}
	c.Catalog = getEnv("LABFLOW_CATALOG", c.Catalog)
	c.Actors = getEnv("LABFLOW_ACTORS", c.Actors)
	c.Store.Kind = getEnv("LABFLOW_STORE_KIND", c.Store.Kind)
	c.Store.URL = getEnv("LABFLOW_STORE_URL", c.Store.URL)
	c.Store.Name = getEnv("LABFLOW_STORE_NAME", c.Store.Name)
	c.Log.Level = getEnv("LABFLOW_LOG_LEVEL", c.Log.Level)
	c.Log.Encoding = getEnv("LABFLOW_LOG_ENCODING", c.Log.Encoding)
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
