package model

import (
	"fmt"

	"github.com/google/uuid"
)

// StopKind distinguishes customer visits from rest breaks in a route.
type StopKind int

const (
	StopCustomer StopKind = iota
	StopBreak
)

// String returns a human-readable representation of the stop kind.
func (k StopKind) String() string {
	switch k {
	case StopCustomer:
		return "customer"
	case StopBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Stop is one element of the ordered daily route: either a customer visit
// or a break. All clock fields are minutes from midnight; nil means the
// value has not been computed (or was invalidated by a reorder).
type Stop struct {
	ID       uuid.UUID
	Position int      // 1-indexed order, reassigned on every mutation
	Kind     StopKind

	// Customer visit fields.
	CustomerID         string
	CustomerName       string
	Address            string
	EstimatedArrival   *int // set by the external router
	EstimatedDeparture *int
	AgreedStart        *int // customer-promised window
	AgreedEnd          *int
	ServiceDuration    *int // planned on-site minutes
	ServiceOverride    *int // manual override of ServiceDuration
	NeedsReschedule    bool // placement is provisional until a recalculation confirms it

	// Break fields.
	BreakStart    *int
	BreakDuration *int

	// Travel from the previous stop, populated by the external router.
	DistanceFromPrevKm   *float64
	DurationFromPrevMin  *int
	TravelOverrideMin    *int // manual override of DurationFromPrevMin
}

// TravelMinutes returns the effective travel duration from the previous
// stop, preferring a manual override. Unknown travel counts as zero.
func (s Stop) TravelMinutes() int {
	if s.TravelOverrideMin != nil {
		return *s.TravelOverrideMin
	}
	if s.DurationFromPrevMin != nil {
		return *s.DurationFromPrevMin
	}
	return 0
}

// DefaultStopMinutes is the placeholder duration used when a stop or
// break carries no duration information at all.
const DefaultStopMinutes = 30

// ServiceMinutes returns the planned on-site duration for a customer
// stop, preferring a manual override, then the planned duration, then
// the routed arrival/departure pair.
func (s Stop) ServiceMinutes() int {
	if s.ServiceOverride != nil {
		return *s.ServiceOverride
	}
	if s.ServiceDuration != nil {
		return *s.ServiceDuration
	}
	if s.EstimatedArrival != nil && s.EstimatedDeparture != nil {
		return *s.EstimatedDeparture - *s.EstimatedArrival
	}
	return DefaultStopMinutes
}

// BreakMinutes returns the duration of a break, falling back to the
// routed arrival/departure pair and finally to the placeholder default.
func (s Stop) BreakMinutes() int {
	if s.BreakDuration != nil {
		return *s.BreakDuration
	}
	if s.EstimatedArrival != nil && s.EstimatedDeparture != nil {
		return *s.EstimatedDeparture - *s.EstimatedArrival
	}
	return DefaultStopMinutes
}

// HasAgreedTime reports whether the customer was promised a time.
func (s Stop) HasAgreedTime() bool {
	return s.Kind == StopCustomer && s.AgreedStart != nil
}

// Validate checks the arrival/departure pairing invariant.
func (s Stop) Validate() error {
	if (s.EstimatedArrival == nil) != (s.EstimatedDeparture == nil) {
		return fmt.Errorf("stop %s: arrival and departure must both be set or both be nil", s.ID)
	}
	if s.EstimatedArrival != nil && *s.EstimatedDeparture < *s.EstimatedArrival {
		return fmt.Errorf("stop %s: departure before arrival", s.ID)
	}
	return nil
}

// TravelLeg describes a pre-computed travel segment, such as the return
// leg to the depot at the end of a route.
type TravelLeg struct {
	DistanceKm  *float64
	DurationMin *int
}

// Renumber reassigns contiguous 1-indexed positions in slice order.
func Renumber(stops []Stop) {
	for i := range stops {
		stops[i].Position = i + 1
	}
}

// CloneStops returns an independent copy of the stop list. The pure edit
// helpers operate on copies so callers keep the original until a gesture
// is committed.
func CloneStops(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	copy(out, stops)
	return out
}
