package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the global log level. Output format is selected
// by APP_ENV: "dev" switches to the console writer.
type LoggingConfig struct {
	// Level is one of the zerolog levels: "debug", "info", "warn", "error".
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level parses.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	return nil
}

// ZerologLevel returns the parsed level. Validate must have passed.
func (c LoggingConfig) ZerologLevel() zerolog.Level {
	lvl, _ := zerolog.ParseLevel(c.Level)
	return lvl
}
