// Package edit implements local, provisional route edits: drag-and-drop
// reordering and quick placement into idle gaps. All functions are pure;
// they copy the stop list and never touch the caller's slice. Authoritative
// times are only re-established by a recalculation round-trip, so edits
// that move a promised visit flag it for rescheduling instead of failing.
package edit

import (
	"github.com/kverlo/fieldday/core/model"
)

// Reorder moves the stop at index from to index to and reassigns the
// 1-indexed positions. Indices are 0-based slice indices. Out-of-range
// indices return an unchanged copy.
//
// A moved break keeps its duration but loses its recorded start and
// routed times: they describe the old arrangement, and the builder's
// stale-time guard would otherwise mask the move instead of surfacing a
// fresh gap at the new position.
func Reorder(stops []model.Stop, from, to int) []model.Stop {
	out := model.CloneStops(stops)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		model.Renumber(out)
		return out
	}
	moved := out[from]
	if moved.Kind == model.StopBreak {
		moved.BreakStart = nil
		moved.EstimatedArrival = nil
		moved.EstimatedDeparture = nil
	}
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]model.Stop{moved}, out[to:]...)...)
	model.Renumber(out)
	return out
}

// NeedsConfirmation returns the stop being moved when the move requires
// an explicit user decision: the stop carries a customer-agreed time, so
// reordering it silently could break a promise that is now physically
// unreachable. Returns nil when the move can commit directly.
func NeedsConfirmation(stops []model.Stop, from, to int) *model.Stop {
	if from == to || from < 0 || from >= len(stops) {
		return nil
	}
	s := stops[from]
	if s.HasAgreedTime() {
		return &s
	}
	return nil
}
