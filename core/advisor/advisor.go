// Package advisor defines the contract with the external insertion
// advisor: the backend service that ranks candidate insertion points by
// incremental cost. The engine consumes its suggestions and maps them
// onto gap items; it never re-derives the cost model itself.
package advisor

import (
	"context"

	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
)

// SlotStatus is the advisor's feasibility verdict for one insertion point.
type SlotStatus string

const (
	SlotOK       SlotStatus = "ok"
	SlotTight    SlotStatus = "tight"
	SlotConflict SlotStatus = "conflict"
)

// Candidate describes the visit to be inserted.
type Candidate struct {
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	ServiceDuration int     `json:"service_duration_min"`
}

// SlotSuggestion is one ranked insertion point returned by the advisor.
// AnchorIndex counts customer stops, matching the anchor carried by gap
// timeline items.
type SlotSuggestion struct {
	AnchorIndex        int        `json:"insertion_anchor_index"`
	EstimatedArrival   int        `json:"estimated_arrival_min"`
	EstimatedDeparture int        `json:"estimated_departure_min"`
	DeltaDistanceKm    float64    `json:"delta_distance_km"`
	DeltaDurationMin   int        `json:"delta_duration_min"`
	Status             SlotStatus `json:"status"`
}

// Advisor ranks insertion points for a candidate against a route. An
// implementation must honor ctx cancellation; callers fall back to an
// empty suggestion set on error rather than blocking the surface.
type Advisor interface {
	SuggestSlots(ctx context.Context, route model.Route, cand Candidate) ([]SlotSuggestion, error)
}

// GapInsertionInfo pairs a gap item with the suggestions targeting it,
// ready for click-to-insert rendering.
type GapInsertionInfo struct {
	Gap         timeline.Item
	Suggestions []SlotSuggestion
}

// MapToGaps attaches suggestions to the gap items they target, matching
// on the anchor index. Suggestions whose anchor has no matching gap are
// dropped; gaps without an anchor (break gaps) receive none.
func MapToGaps(items []timeline.Item, suggestions []SlotSuggestion) []GapInsertionInfo {
	var out []GapInsertionInfo
	for _, it := range items {
		if it.Kind != timeline.KindGap || it.AnchorIndex == nil {
			continue
		}
		info := GapInsertionInfo{Gap: it}
		for _, s := range suggestions {
			if s.AnchorIndex == *it.AnchorIndex {
				info.Suggestions = append(info.Suggestions, s)
			}
		}
		if len(info.Suggestions) > 0 {
			out = append(out, info)
		}
	}
	return out
}
