package timeline

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kverlo/fieldday/core/clock"
	"github.com/kverlo/fieldday/core/model"
)

func mins(s string, t *testing.T) int {
	t.Helper()
	m, ok := clock.ParseMinutes(s)
	if !ok {
		t.Fatalf("bad clock literal %q", s)
	}
	return m
}

func customer(arrival, departure string, travelMin int, t *testing.T) model.Stop {
	s := model.Stop{ID: uuid.New(), Kind: model.StopCustomer}
	if arrival != "" {
		s.EstimatedArrival = intPtr(mins(arrival, t))
		s.EstimatedDeparture = intPtr(mins(departure, t))
	}
	if travelMin > 0 {
		s.DurationFromPrevMin = intPtr(travelMin)
	}
	return s
}

func kinds(items []Item) []Kind {
	out := make([]Kind, len(items))
	for i, it := range items {
		out[i] = it.Kind
	}
	return out
}

func TestBuildEmptyRoute(t *testing.T) {
	items := Build(nil, mins("08:00", t), mins("16:00", t), nil)
	if len(items) != 2 {
		t.Fatalf("expected 2 depot items, got %d", len(items))
	}
	if items[0].Kind != KindDepot || items[1].Kind != KindDepot {
		t.Fatalf("expected depot bookends, got %v", kinds(items))
	}
	if *items[0].Start != mins("08:00", t) || *items[1].Start != mins("16:00", t) {
		t.Fatalf("depot times wrong: %v %v", *items[0].Start, *items[1].Start)
	}
}

func TestBuildSingleStopNoGap(t *testing.T) {
	stops := []model.Stop{customer("08:25", "09:10", 25, t)}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)

	want := []Kind{KindDepot, KindTravel, KindStop, KindTravel, KindDepot}
	got := kinds(items)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	leg := items[1]
	if *leg.Start != mins("08:00", t) || *leg.End != mins("08:25", t) || leg.Duration != 25 {
		t.Fatalf("travel leg wrong: %+v", leg)
	}
	// Exact-fit arrival: travel consumes all time before the known
	// arrival, so no gap is emitted.
	for _, it := range items {
		if it.Kind == KindGap {
			t.Fatalf("unexpected gap item")
		}
	}
}

func TestBuildDepotBookends(t *testing.T) {
	stops := []model.Stop{
		customer("08:30", "09:00", 30, t),
		customer("10:30", "11:00", 15, t),
	}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)
	depots := 0
	for _, it := range items {
		if it.Kind == KindDepot {
			depots++
		}
	}
	if depots != 2 || items[0].Kind != KindDepot || items[len(items)-1].Kind != KindDepot {
		t.Fatalf("expected exactly one leading and one trailing depot, got %v", kinds(items))
	}
}

func TestBuildGapAnchoredAfterFirstCustomer(t *testing.T) {
	stops := []model.Stop{
		customer("08:30", "09:00", 30, t),
		customer("10:30", "11:00", 15, t),
	}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)

	var gap *Item
	for i := range items {
		if items[i].Kind == KindGap {
			gap = &items[i]
		}
	}
	if gap == nil {
		t.Fatalf("expected a gap item, got %v", kinds(items))
	}
	if *gap.Start != mins("09:15", t) || *gap.End != mins("10:30", t) || gap.Duration != 75 {
		t.Fatalf("gap bounds wrong: start=%d end=%d dur=%d", *gap.Start, *gap.End, gap.Duration)
	}
	if gap.AnchorIndex == nil || *gap.AnchorIndex != 0 {
		t.Fatalf("expected anchor 0, got %v", gap.AnchorIndex)
	}
}

func TestBuildLateArrivalAnnotation(t *testing.T) {
	s := customer("", "", 77, t)
	s.AgreedStart = intPtr(mins("09:00", t))
	items := Build([]model.Stop{s}, mins("08:00", t), mins("16:00", t), nil)

	var stop *Item
	for i := range items {
		if items[i].Kind == KindStop {
			stop = &items[i]
		}
	}
	if stop == nil {
		t.Fatalf("no stop item")
	}
	if stop.LateBy != 17 {
		t.Fatalf("expected 17 late minutes, got %d", stop.LateBy)
	}
	if stop.ActualArrival == nil || clock.FormatMinutes(*stop.ActualArrival) != "09:17" {
		t.Fatalf("expected actual arrival 09:17, got %v", stop.ActualArrival)
	}
}

func TestBuildExactFitArrivalNotLate(t *testing.T) {
	s := customer("09:00", "09:30", 60, t)
	s.AgreedStart = intPtr(mins("09:00", t))
	items := Build([]model.Stop{s}, mins("08:00", t), mins("16:00", t), nil)
	for _, it := range items {
		if it.Kind == KindStop && it.LateBy != 0 {
			t.Fatalf("exact-fit arrival flagged late by %d", it.LateBy)
		}
	}
}

func TestBuildStaleBreakStartNeverMakesGap(t *testing.T) {
	// The break still carries its start from before a reorder; it is now
	// behind the cursor and must be clamped, not trusted.
	br := model.Stop{
		ID:         uuid.New(),
		Kind:       model.StopBreak,
		BreakStart: intPtr(mins("08:15", t)),
	}
	stops := []model.Stop{
		customer("08:30", "10:00", 30, t),
		br,
	}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)

	var brk *Item
	for i := range items {
		if items[i].Kind == KindGap {
			t.Fatalf("stale break start produced a gap")
		}
		if items[i].Kind == KindBreak {
			brk = &items[i]
		}
	}
	if brk == nil {
		t.Fatalf("no break item")
	}
	if *brk.Start != mins("10:00", t) {
		t.Fatalf("break start not clamped to cursor: %s", clock.FormatMinutes(*brk.Start))
	}
	if brk.Duration != model.DefaultStopMinutes {
		t.Fatalf("expected default break duration, got %d", brk.Duration)
	}
}

func TestBuildBreakAheadOfCursorMakesGap(t *testing.T) {
	br := model.Stop{
		ID:            uuid.New(),
		Kind:          model.StopBreak,
		BreakStart:    intPtr(mins("12:00", t)),
		BreakDuration: intPtr(45),
	}
	stops := []model.Stop{
		customer("08:30", "10:00", 30, t),
		br,
	}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)

	var gap, brk *Item
	for i := range items {
		switch items[i].Kind {
		case KindGap:
			gap = &items[i]
		case KindBreak:
			brk = &items[i]
		}
	}
	if gap == nil || *gap.Start != mins("10:00", t) || *gap.End != mins("12:00", t) {
		t.Fatalf("expected 10:00-12:00 gap before break")
	}
	if gap.AnchorIndex != nil {
		t.Fatalf("break gap must not carry an insertion anchor")
	}
	if brk == nil || *brk.Start != mins("12:00", t) || brk.Duration != 45 {
		t.Fatalf("break item wrong: %+v", brk)
	}
}

func TestBuildUnknownTimesCollapseToCursor(t *testing.T) {
	stops := []model.Stop{customer("", "", 0, t)}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)
	for _, it := range items {
		if it.Kind == KindStop {
			if *it.Start != mins("08:00", t) || it.Duration != 0 {
				t.Fatalf("expected zero-duration stop at cursor, got %+v", it)
			}
		}
		if it.Duration < 0 {
			t.Fatalf("negative duration item: %+v", it)
		}
	}
}

func TestBuildReturnLeg(t *testing.T) {
	dist := 12.5
	leg := &model.TravelLeg{DistanceKm: &dist, DurationMin: intPtr(20)}
	stops := []model.Stop{customer("08:30", "09:00", 30, t)}
	items := Build(stops, mins("08:00", t), mins("16:00", t), leg)

	last := items[len(items)-1]
	back := items[len(items)-2]
	if back.Kind != KindTravel || back.Duration != 20 || back.DistanceKm == nil {
		t.Fatalf("return travel wrong: %+v", back)
	}
	if last.Kind != KindDepot || *last.Start != mins("09:20", t) {
		t.Fatalf("closing depot should sit at the end of the return leg")
	}
}

func TestBuildFlexibleWindowAnnotation(t *testing.T) {
	s := customer("09:00", "09:30", 0, t)
	s.AgreedStart = intPtr(mins("09:00", t))
	s.AgreedEnd = intPtr(mins("11:00", t))
	s.ServiceDuration = intPtr(30)
	items := Build([]model.Stop{s}, mins("08:00", t), mins("16:00", t), nil)
	for _, it := range items {
		if it.Kind != KindStop {
			continue
		}
		if it.WindowStart == nil || it.WindowEnd == nil {
			t.Fatalf("expected window annotations")
		}
		if it.WindowDuration == nil || *it.WindowDuration != 120 {
			t.Fatalf("expected flexible window duration 120, got %v", it.WindowDuration)
		}
	}

	// A pinned slot (service fills the window) carries no window duration.
	s.AgreedEnd = intPtr(mins("09:30", t))
	items = Build([]model.Stop{s}, mins("08:00", t), mins("16:00", t), nil)
	for _, it := range items {
		if it.Kind == KindStop && it.WindowDuration != nil {
			t.Fatalf("pinned slot must not report a window duration")
		}
	}
}

func TestBuildEndEqualsStartPlusDuration(t *testing.T) {
	br := model.Stop{ID: uuid.New(), Kind: model.StopBreak, BreakStart: intPtr(mins("12:00", t)), BreakDuration: intPtr(30)}
	stops := []model.Stop{
		customer("08:30", "09:00", 30, t),
		br,
		customer("13:00", "13:45", 20, t),
	}
	items := Build(stops, mins("08:00", t), mins("16:00", t), nil)
	for _, it := range items {
		if it.Start == nil || it.End == nil {
			continue
		}
		if *it.End != *it.Start+it.Duration {
			t.Fatalf("%s: end %d != start %d + duration %d", it.Kind, *it.End, *it.Start, it.Duration)
		}
		if it.Duration < 0 {
			t.Fatalf("negative duration on %s", it.Kind)
		}
	}
}
