// Package capacity classifies route load and slack for display and for
// gating edit affordances. Thresholds are policy constants, not derived.
package capacity

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kverlo/fieldday/core/timeline"
)

// Status is a three-level classification used for both load and slack.
type Status int

const (
	StatusOK Status = iota
	StatusTight
	StatusOverloaded
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTight:
		return "tight"
	case StatusOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// Policy thresholds. Load is the share of the workday committed to
// travel and service; slack is the smallest contiguous idle block.
const (
	LoadTightPercent      = 80.0
	LoadOverloadedPercent = 95.0
	SlackTightMin         = 30
	SlackCriticalMin      = 15
)

// ClassifyLoad maps a load percentage onto the three-level scale.
func ClassifyLoad(loadPercent float64) Status {
	switch {
	case loadPercent > LoadOverloadedPercent:
		return StatusOverloaded
	case loadPercent >= LoadTightPercent:
		return StatusTight
	default:
		return StatusOK
	}
}

// ClassifySlack maps the minimum slack in minutes onto the scale.
func ClassifySlack(minSlack int) Status {
	switch {
	case minSlack < SlackCriticalMin:
		return StatusOverloaded
	case minSlack <= SlackTightMin:
		return StatusTight
	default:
		return StatusOK
	}
}

// RouteMetrics aggregates one route's committed time and idle slack.
type RouteMetrics struct {
	DistanceKm      float64 `json:"distance_km"`
	TravelMinutes   int     `json:"travel_minutes"`
	ServiceMinutes  int     `json:"service_minutes"`
	LoadPercent     float64 `json:"load_percent"`
	MinSlackMinutes int     `json:"min_slack_minutes"`
	MeanGapMinutes  float64 `json:"mean_gap_minutes"`
	StopCount       int     `json:"stop_count"`
}

// LoadStatus classifies the route's load.
func (m RouteMetrics) LoadStatus() Status { return ClassifyLoad(m.LoadPercent) }

// SlackStatus classifies the route's minimum slack.
func (m RouteMetrics) SlackStatus() Status { return ClassifySlack(m.MinSlackMinutes) }

// Summarize derives RouteMetrics from a built timeline. Gap items and
// the idle tail before the closing depot count as slack; travel and
// stop/break items count as load.
func Summarize(items []timeline.Item, workdayStart, workdayEnd int) RouteMetrics {
	m := RouteMetrics{}
	var gaps []float64
	var distances []float64
	cursor := workdayStart

	for _, it := range items {
		switch it.Kind {
		case timeline.KindTravel:
			m.TravelMinutes += it.Duration
			if it.DistanceKm != nil {
				distances = append(distances, *it.DistanceKm)
			}
		case timeline.KindStop, timeline.KindBreak:
			m.ServiceMinutes += it.Duration
			m.StopCount++
		case timeline.KindGap:
			gaps = append(gaps, float64(it.Duration))
		}
		// Depot bookends don't advance the committed-time cursor; the
		// closing one is pinned to workdayEnd and would hide tail slack.
		if it.Kind != timeline.KindDepot && it.End != nil && *it.End > cursor {
			cursor = *it.End
		}
	}
	if tail := workdayEnd - cursor; tail > 0 {
		gaps = append(gaps, float64(tail))
	}

	m.DistanceKm = floats.Sum(distances)
	if len(gaps) > 0 {
		m.MinSlackMinutes = int(floats.Min(gaps))
		m.MeanGapMinutes = stat.Mean(gaps, nil)
	}

	if day := workdayEnd - workdayStart; day > 0 {
		m.LoadPercent = 100 * float64(m.TravelMinutes+m.ServiceMinutes) / float64(day)
	}
	return m
}
