package timeline

import (
	"github.com/kverlo/fieldday/core/model"
)

// GapThresholdMin is the minimum idle time, in minutes, treated as a real
// gap. Differences up to the threshold are rounding noise, not idle time;
// the same threshold guards late-arrival detection so an exact-fit
// arrival is never flagged.
const GapThresholdMin = 1

// Build converts an ordered stop list into the flat timeline sequence for
// one workday. It performs a single left-to-right pass with a running
// time cursor starting at workdayStart.
//
// Build never fails: every missing input has a fallback (unknown travel
// counts as zero, a bare break lasts model.DefaultStopMinutes, a customer
// stop without routed times collapses to a zero-duration item at the
// cursor). Late arrivals and idle gaps are reported as annotations and
// gap items, never as errors.
func Build(stops []model.Stop, workdayStart, workdayEnd int, returnLeg *model.TravelLeg) []Item {
	items := make([]Item, 0, 2*len(stops)+3)
	cursor := workdayStart

	items = append(items, newItem(KindDepot, intPtr(cursor), intPtr(cursor)))

	if len(stops) == 0 {
		items = append(items, newItem(KindDepot, intPtr(workdayEnd), intPtr(workdayEnd)))
		return items
	}

	customersSeen := 0
	for i := range stops {
		s := stops[i]

		var lateBy int
		var actualArrival *int
		if s.Kind == model.StopCustomer {
			travel := s.TravelMinutes()
			leg := newItem(KindTravel, intPtr(cursor), intPtr(cursor+travel))
			leg.DistanceKm = s.DistanceFromPrevKm
			items = append(items, leg)
			cursor += travel

			if s.AgreedStart != nil && cursor > *s.AgreedStart+GapThresholdMin {
				lateBy = cursor - *s.AgreedStart
				actualArrival = intPtr(cursor)
			}
		}

		// A break's recorded start can be stale after a reorder; a time
		// behind the cursor must not manufacture a phantom gap.
		var effectiveArrival *int
		switch s.Kind {
		case model.StopCustomer:
			effectiveArrival = s.EstimatedArrival
		case model.StopBreak:
			if s.BreakStart != nil && *s.BreakStart > cursor {
				effectiveArrival = s.BreakStart
			}
		}
		if effectiveArrival != nil && *effectiveArrival-cursor > GapThresholdMin {
			gap := newItem(KindGap, intPtr(cursor), intPtr(*effectiveArrival))
			gap.NextStopID = s.ID
			if s.Kind == model.StopCustomer {
				gap.AnchorIndex = intPtr(customersSeen - 1)
			}
			items = append(items, gap)
			cursor = *effectiveArrival
		}

		var it Item
		switch s.Kind {
		case model.StopBreak:
			start := cursor
			if s.BreakStart != nil && *s.BreakStart > start {
				start = *s.BreakStart
			}
			it = newItem(KindBreak, intPtr(start), intPtr(start+s.BreakMinutes()))
		default:
			start := cursor
			if s.EstimatedArrival != nil {
				start = *s.EstimatedArrival
			}
			end := start
			if s.EstimatedDeparture != nil && *s.EstimatedDeparture > start {
				end = *s.EstimatedDeparture
			}
			it = newItem(KindStop, intPtr(start), intPtr(end))
			it.LateBy = lateBy
			it.ActualArrival = actualArrival
			if s.AgreedStart != nil && s.AgreedEnd != nil {
				it.WindowStart = s.AgreedStart
				it.WindowEnd = s.AgreedEnd
				// A window wider than the planned service marks a
				// flexible slot; it renders as an overlay instead of a
				// pinned exact-time slot.
				if s.ServiceMinutes() < *s.AgreedEnd-*s.AgreedStart {
					it.WindowDuration = intPtr(*s.AgreedEnd - *s.AgreedStart)
				}
			}
		}
		stopCopy := s
		it.Stop = &stopCopy
		it.StopID = s.ID
		items = append(items, it)

		cursor = *it.End
		if s.Kind == model.StopCustomer {
			customersSeen++
		}
	}

	if returnLeg != nil {
		dur := 0
		if returnLeg.DurationMin != nil {
			dur = *returnLeg.DurationMin
		}
		leg := newItem(KindTravel, intPtr(cursor), intPtr(cursor+dur))
		leg.DistanceKm = returnLeg.DistanceKm
		items = append(items, leg)
		cursor += dur
		items = append(items, newItem(KindDepot, intPtr(cursor), intPtr(cursor)))
		return items
	}

	// No return leg computed yet: placeholder travel with unknown times,
	// closing depot pinned to the end of the workday.
	items = append(items, newItem(KindTravel, nil, nil))
	items = append(items, newItem(KindDepot, intPtr(workdayEnd), intPtr(workdayEnd)))
	return items
}
