// Package metrics defines the sink interface for operational metrics of
// the timeline engine. Sinks like PromSink and InfluxSink record builds,
// local edits and capacity classifications; NewMultiSink combines them.
package metrics

import (
	"time"

	"github.com/kverlo/fieldday/core/capacity"
)

// BuildEvent describes one timeline build.
type BuildEvent struct {
	RouteID   string
	ItemCount int
	GapCount  int
	LateCount int
	Elapsed   time.Duration
}

// EditKind labels the local edit gestures.
type EditKind string

const (
	EditReorder EditKind = "reorder"
	EditGapDrop EditKind = "gap_drop"
	EditRecalc  EditKind = "recalculate"
)

// EditEvent describes one local edit gesture, including rejected ones.
type EditEvent struct {
	RouteID  string
	Kind     EditKind
	Accepted bool
	// Confirmation marks edits that required an explicit user decision
	// because the moved stop carried a customer-agreed time.
	Confirmation bool
}

// CapacityEvent records a route's classification after a build.
type CapacityEvent struct {
	RouteID     string
	LoadStatus  capacity.Status
	SlackStatus capacity.Status
	LoadPercent float64
}

// MetricsSink receives engine events. Implementations must be safe for
// concurrent use.
type MetricsSink interface {
	RecordBuild(ev BuildEvent) error
	RecordEdit(ev EditEvent) error
	RecordCapacity(ev CapacityEvent) error
}

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordBuild(BuildEvent) error       { return nil }
func (NopSink) RecordEdit(EditEvent) error         { return nil }
func (NopSink) RecordCapacity(CapacityEvent) error { return nil }
