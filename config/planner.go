package config

import (
	"fmt"

	"github.com/kverlo/fieldday/core/clock"
)

// PlannerConfig defines workday defaults applied to routes that omit
// their own bounds, plus the timeout for recalculation submissions.
type PlannerConfig struct {
	// WorkdayStart and WorkdayEnd are "HH:MM" clock strings.
	WorkdayStart string `json:"workday_start"`
	WorkdayEnd   string `json:"workday_end"`
	// JobTimeoutSeconds bounds a recalculation submit round-trip.
	JobTimeoutSeconds int `json:"job_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.WorkdayStart == "" {
		c.WorkdayStart = "08:00"
	}
	if c.WorkdayEnd == "" {
		c.WorkdayEnd = "17:00"
	}
	if c.JobTimeoutSeconds <= 0 {
		c.JobTimeoutSeconds = 10
	}
}

// Validate checks that the workday bounds parse and are ordered.
func (c PlannerConfig) Validate() error {
	start, ok := clock.ParseMinutes(c.WorkdayStart)
	if !ok {
		return fmt.Errorf("invalid workday_start %q", c.WorkdayStart)
	}
	end, ok := clock.ParseMinutes(c.WorkdayEnd)
	if !ok {
		return fmt.Errorf("invalid workday_end %q", c.WorkdayEnd)
	}
	if end <= start {
		return fmt.Errorf("workday_end %q is not after workday_start %q", c.WorkdayEnd, c.WorkdayStart)
	}
	return nil
}

// WorkdayMinutes returns the parsed bounds. Validate must have passed.
func (c PlannerConfig) WorkdayMinutes() (start, end int) {
	start, _ = clock.ParseMinutes(c.WorkdayStart)
	end, _ = clock.ParseMinutes(c.WorkdayEnd)
	return start, end
}
