package timeline

import (
	"github.com/google/uuid"

	"github.com/kverlo/fieldday/core/model"
)

// Kind identifies the type of a timeline item.
type Kind int

const (
	KindDepot Kind = iota
	KindTravel
	KindStop
	KindBreak
	KindGap
)

// String returns a human-readable representation of the item kind.
func (k Kind) String() string {
	switch k {
	case KindDepot:
		return "depot"
	case KindTravel:
		return "travel"
	case KindStop:
		return "stop"
	case KindBreak:
		return "break"
	case KindGap:
		return "gap"
	default:
		return "unknown"
	}
}

// Item is one derived event of a route timeline. Items are ephemeral:
// Build recomputes the whole sequence from the stop list after every
// mutation, so items never drift from their source stops. Clock fields
// are minutes from midnight; nil marks an unknown edge.
type Item struct {
	ID       uuid.UUID
	Kind     Kind
	Start    *int
	End      *int
	Duration int // minutes, never negative

	// Travel items.
	DistanceKm *float64

	// Stop and break items carry a copy of the originating stop, not a
	// pointer into the caller's list.
	Stop   *model.Stop
	StopID uuid.UUID

	// Gap items emitted before a customer stop carry the insertion
	// anchor: the index of the customer stop preceding the gap, -1 when
	// the gap opens the day. Nil for gaps in front of breaks.
	AnchorIndex *int

	// NextStopID identifies the stop the gap runs into; quick-gap
	// placement inserts a dropped item in front of it.
	NextStopID uuid.UUID

	// Late-arrival annotations on stop items. LateBy is zero when the
	// crew arrives inside the agreed window.
	LateBy        int
	ActualArrival *int

	// Agreed-window annotations on stop items. WindowDuration is only
	// set for flexible slots where the planned service time is strictly
	// shorter than the promised window.
	WindowStart    *int
	WindowEnd      *int
	WindowDuration *int
}

func intPtr(v int) *int { return &v }

func newItem(kind Kind, start, end *int) Item {
	it := Item{ID: uuid.New(), Kind: kind, Start: start, End: end}
	if start != nil && end != nil && *end > *start {
		it.Duration = *end - *start
	}
	return it
}
