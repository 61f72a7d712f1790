package routes

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kverlo/fieldday/core/edit"
	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
)

var (
	// ErrNotFound is returned for unknown route ids.
	ErrNotFound = errors.New("route not found")
	// ErrUnknownStop is returned when a gesture references a stop that
	// is no longer in the route.
	ErrUnknownStop = errors.New("stop not in route")
	// ErrUnknownGap is returned when a drop targets a gap item from a
	// stale build.
	ErrUnknownGap = errors.New("gap not in current timeline")
	// ErrInfeasibleDrop is returned when the snapped interval cannot fit
	// inside the targeted gap; the route is left unchanged.
	ErrInfeasibleDrop = errors.New("drop does not fit inside gap")
)

// Store owns the route state. It is the single writer of stop lists and
// serializes gestures under one lock: a reorder, quick placement or
// recalculation apply completes before the next gesture is accepted.
type Store struct {
	mu     sync.Mutex
	routes map[uuid.UUID]*routeState
}

type routeState struct {
	route model.Route
	// items is the last built timeline; gap drops resolve their target
	// against it. Cleared on every mutation.
	items []timeline.Item
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{routes: make(map[uuid.UUID]*routeState)}
}

// Upsert inserts or replaces a route, renumbering its stops.
func (s *Store) Upsert(route model.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	model.Renumber(route.Stops)
	s.routes[route.ID] = &routeState{route: route}
}

// Get returns a copy of the route.
func (s *Store) Get(id uuid.UUID) (model.Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.routes[id]
	if !ok {
		return model.Route{}, false
	}
	return snapshot(st), true
}

// Timeline rebuilds the route's timeline from its stop list and caches
// the items for gesture targeting. Items are always derived wholesale;
// they can never drift from the stops.
func (s *Store) Timeline(id uuid.UUID) ([]timeline.Item, model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.routes[id]
	if !ok {
		return nil, model.Route{}, ErrNotFound
	}
	st.items = timeline.Build(st.route.Stops, st.route.WorkdayStart, st.route.WorkdayEnd, st.route.ReturnToDepot)
	return append([]timeline.Item(nil), st.items...), snapshot(st), nil
}

// Reorder moves a stop. When the move needs an explicit user decision
// and confirmed is false, the moved stop is returned and nothing is
// committed; the caller asks the user and retries with confirmed=true.
func (s *Store) Reorder(id uuid.UUID, from, to int, confirmed bool) (*model.Stop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if from < 0 || from >= len(st.route.Stops) || to < 0 || to >= len(st.route.Stops) {
		return nil, ErrUnknownStop
	}
	if pending := edit.NeedsConfirmation(st.route.Stops, from, to); pending != nil && !confirmed {
		return pending, nil
	}
	st.route.Stops = edit.Reorder(st.route.Stops, from, to)
	st.items = nil
	return nil, nil
}

// GapDrop places the stop onto a gap of the last built timeline. The
// placement is provisional; an infeasible drop leaves the route
// unchanged.
func (s *Store) GapDrop(id, stopID, gapID uuid.UUID, fraction float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.routes[id]
	if !ok {
		return ErrNotFound
	}
	from := -1
	for i := range st.route.Stops {
		if st.route.Stops[i].ID == stopID {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrUnknownStop
	}
	var gap *timeline.Item
	for i := range st.items {
		if st.items[i].ID == gapID && st.items[i].Kind == timeline.KindGap {
			gap = &st.items[i]
			break
		}
	}
	if gap == nil {
		return ErrUnknownGap
	}
	stops, ok := edit.PlaceInGap(st.route.Stops, from, *gap, fraction)
	if !ok {
		return ErrInfeasibleDrop
	}
	st.route.Stops = stops
	st.items = nil
	return nil
}

// ApplyRecalculation replaces a route's stops with the router's output,
// clearing provisional flags. Called when a recalculation job reaches
// its terminal state.
func (s *Store) ApplyRecalculation(id uuid.UUID, stops []model.Stop, returnLeg *model.TravelLeg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.routes[id]
	if !ok {
		return ErrNotFound
	}
	for i := range stops {
		stops[i].NeedsReschedule = false
	}
	model.Renumber(stops)
	st.route.Stops = stops
	st.route.ReturnToDepot = returnLeg
	st.items = nil
	return nil
}

func snapshot(st *routeState) model.Route {
	r := st.route
	r.Stops = model.CloneStops(st.route.Stops)
	return r
}
