package workflow

import (
	"fmt"
	"time"

	"github.com/viant/labflow/service/broker"
)

// Range bounds a randomized service duration; both ends are inclusive.
type Range struct {
	Min time.Duration `json:"min" yaml:"min" validate:"gte=0"`
	Max time.Duration `json:"max" yaml:"max" validate:"gtefield=Min"`
}

// Config drives the randomized durations and resource capacities of a run.
type Config struct {
	Seed      uint64        `json:"seed" yaml:"seed"`
	Epoch     time.Time     `json:"epoch" yaml:"epoch"`
	Resources broker.Config `json:"resources" yaml:"resources"`
	CheckIn   Range         `json:"checkIn" yaml:"checkIn"`
	Analyze   Range         `json:"analyze" yaml:"analyze"`
}

// DefaultEpoch anchors virtual time zero.
var DefaultEpoch = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

// DefaultConfig returns a single reception desk and instrument, 5 to 15
// minutes of check-in and 30 to 60 minutes of analysis.
func DefaultConfig() Config {
	return Config{
		Seed:      1,
		Epoch:     DefaultEpoch,
		Resources: broker.DefaultConfig(),
		CheckIn:   Range{Min: 5 * time.Minute, Max: 15 * time.Minute},
		Analyze:   Range{Min: 30 * time.Minute, Max: 60 * time.Minute},
	}
}

// Validate checks ranges and capacities.
func (c *Config) Validate() error {
	if c.Resources.Reception < 1 || c.Resources.Instrument < 1 {
		return fmt.Errorf("resource capacities must be >= 1: reception=%d instrument=%d", c.Resources.Reception, c.Resources.Instrument)
	}
	if err := c.CheckIn.validate("checkIn"); err != nil {
		return err
	}
	return c.Analyze.validate("analyze")
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("invalid %s range [%v, %v]", name, r.Min, r.Max)
	}
	return nil
}
