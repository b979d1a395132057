// Package config holds the settings of the visualisation harnesses.
//
// Values arrive as opaque inputs (TOML, environment, flags, JSON bodies) and
// are coerced with fallbacks: an invalid value never fails loading, it is
// replaced by its default and reported in Config.Warnings.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Keys accepted by FromValues.
const (
	KeyColumns      = "columns"
	KeyRows         = "rows"
	KeyDensity      = "density"
	KeyDiagonal     = "diagonal"
	KeyStepsPerTick = "steps_per_tick"
	KeySeed         = "seed"
	KeyTick         = "tick"
	KeyLogLevel     = "log_level"
)

// Defaults.
const (
	DefaultColumns      = 40
	DefaultRows         = 24
	DefaultDensity      = 0.7
	DefaultDiagonal     = true
	DefaultStepsPerTick = 1
	DefaultTick         = 50 * time.Millisecond
	DefaultLogLevel     = "info"
)

// Config represents the harness configuration.
type Config struct {
	Columns int
	Rows    int
	// Density is the probability that a cell is walkable: 0 blocks the whole
	// field, 1 leaves it empty.
	Density  float64
	Diagonal bool
	// StepsPerTick is how many engine steps run per rendered frame.
	StepsPerTick int
	// Seed drives obstacle placement; 0 means seed from the clock.
	Seed     int64
	Tick     time.Duration
	LogLevel string
	// Warnings contains any fallbacks applied during loading.
	Warnings []string
}

// Default returns the configuration used when nothing is supplied.
func Default() Config {
	return Config{
		Columns:      DefaultColumns,
		Rows:         DefaultRows,
		Density:      DefaultDensity,
		Diagonal:     DefaultDiagonal,
		StepsPerTick: DefaultStepsPerTick,
		Tick:         DefaultTick,
		LogLevel:     DefaultLogLevel,
	}
}

// FromValues applies values on top of base. Unknown keys are reported as
// warnings and ignored.
func FromValues(base Config, values map[string]any) Config {
	c := base
	c.Warnings = append([]string(nil), base.Warnings...)
	for key, raw := range values {
		switch strings.ToLower(key) {
		case KeyColumns:
			c.Columns = c.positiveInt(key, raw, DefaultColumns)
		case KeyRows:
			c.Rows = c.positiveInt(key, raw, DefaultRows)
		case KeyDensity:
			v, err := cast.ToFloat64E(raw)
			if err != nil {
				c.warnf("%s: %v is not a number, using %v", key, raw, DefaultDensity)
				v = DefaultDensity
			}
			c.Density = v
		case KeyDiagonal:
			v, err := cast.ToBoolE(raw)
			if err != nil {
				c.warnf("%s: %v is not a boolean, using %v", key, raw, DefaultDiagonal)
				v = DefaultDiagonal
			}
			c.Diagonal = v
		case KeyStepsPerTick:
			c.StepsPerTick = c.positiveInt(key, raw, DefaultStepsPerTick)
		case KeySeed:
			v, err := cast.ToInt64E(raw)
			if err != nil {
				c.warnf("%s: %v is not an integer, seeding from the clock", key, raw)
				v = 0
			}
			c.Seed = v
		case KeyTick:
			v, err := cast.ToDurationE(raw)
			if err != nil || v <= 0 {
				c.warnf("%s: %v is not a positive duration, using %v", key, raw, DefaultTick)
				v = DefaultTick
			}
			c.Tick = v
		case KeyLogLevel:
			s := strings.ToLower(cast.ToString(raw))
			if _, err := ParseLevel(s); err != nil {
				c.warnf("%s: %v", key, err)
				s = DefaultLogLevel
			}
			c.LogLevel = s
		default:
			c.warnf("unknown option %q", key)
		}
	}
	return c
}

func (c *Config) positiveInt(key string, raw any, fallback int) int {
	v, err := cast.ToIntE(raw)
	if err != nil || v <= 0 {
		c.warnf("%s: %v is not a positive integer, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Level returns the slog level for LogLevel, info if it does not parse.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
