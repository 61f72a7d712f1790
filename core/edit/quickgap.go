package edit

import (
	"math"

	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
)

// SnapGridMin is the drop grid. Raw drop positions quantize to this step
// so provisional placements land on round clock values.
const SnapGridMin = 15

// SnapToGrid quantizes a raw drop clock value to the grid and clamps the
// resulting interval [snapped, snapped+duration] into [gapStart, gapEnd].
// The second return value is false when no position inside the gap can
// hold the duration; the caller must reject the drop.
func SnapToGrid(raw, duration, gapStart, gapEnd int) (int, bool) {
	if duration < 0 || gapEnd-gapStart < duration {
		return 0, false
	}
	snapped := int(math.Round(float64(raw)/SnapGridMin)) * SnapGridMin
	// Gap bounds win over the grid: a clamped start may sit off-grid
	// when the gap itself does.
	if snapped < gapStart {
		snapped = gapStart
	}
	if snapped+duration > gapEnd {
		snapped = gapEnd - duration
	}
	return snapped, true
}

// PlaceInGap computes the new stop list after the stop at index from is
// dropped onto a gap item. fraction is the pointer's relative position
// inside the gap's rendered bounds, 0 at the top and 1 at the bottom.
//
// The placement is provisional: travel deltas and true feasibility have
// not been recomputed. A placed customer stop gets its agreed window set
// to the snapped interval and NeedsReschedule raised so the surface can
// flag the tentative time until the insertion advisor confirms it.
//
// Returns (nil, false) and leaves the input untouched when the drop
// cannot fit inside the gap or the gap item is malformed.
func PlaceInGap(stops []model.Stop, from int, gap timeline.Item, fraction float64) ([]model.Stop, bool) {
	if gap.Kind != timeline.KindGap || gap.Start == nil || gap.End == nil {
		return nil, false
	}
	if from < 0 || from >= len(stops) {
		return nil, false
	}
	dropped := stops[from]

	duration := dropped.ServiceMinutes()
	if dropped.Kind == model.StopBreak {
		duration = dropped.BreakMinutes()
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	raw := *gap.Start + int(math.Round(fraction*float64(*gap.End-*gap.Start)))
	snapped, ok := SnapToGrid(raw, duration, *gap.Start, *gap.End)
	if !ok {
		return nil, false
	}

	out := model.CloneStops(stops)
	out = append(out[:from], out[from+1:]...)

	// Insert in front of the stop the gap ran into. When that stop is the
	// dropped item itself the anchor is gone; the old index is the spot
	// just after its former predecessor.
	at := from
	if at > len(out) {
		at = len(out)
	}
	if gap.NextStopID != dropped.ID {
		for i := range out {
			if out[i].ID == gap.NextStopID {
				at = i
				break
			}
		}
	}

	start := snapped
	end := snapped + duration
	switch dropped.Kind {
	case model.StopBreak:
		dropped.BreakStart = &start
		dropped.BreakDuration = &duration
		dropped.EstimatedArrival = &start
		dropped.EstimatedDeparture = &end
		// Travel to the break belonged to its old predecessor; the next
		// recalculation recomputes it.
		dropped.DistanceFromPrevKm = nil
		dropped.DurationFromPrevMin = nil
		dropped.TravelOverrideMin = nil
	default:
		dropped.EstimatedArrival = &start
		dropped.EstimatedDeparture = &end
		dropped.AgreedStart = &start
		dropped.AgreedEnd = &end
		dropped.NeedsReschedule = true
	}

	out = append(out[:at], append([]model.Stop{dropped}, out[at:]...)...)
	model.Renumber(out)
	return out, true
}
