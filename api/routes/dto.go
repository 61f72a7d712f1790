package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	coreadvisor "github.com/kverlo/fieldday/core/advisor"
	"github.com/kverlo/fieldday/core/capacity"
	"github.com/kverlo/fieldday/core/clock"
	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
)

// routeRequest is the upsert payload. Clock values are "HH:MM" strings;
// malformed or missing clocks become unknown values, never errors.
type routeRequest struct {
	TechnicianID  string        `json:"technician_id"`
	Date          string        `json:"date"`
	WorkdayStart  string        `json:"workday_start"`
	WorkdayEnd    string        `json:"workday_end"`
	Stops         []stopRequest `json:"stops"`
	ReturnToDepot *legRequest   `json:"return_to_depot,omitempty"`
}

type stopRequest struct {
	ID                 string   `json:"id,omitempty"`
	Kind               string   `json:"kind"`
	CustomerID         string   `json:"customer_id,omitempty"`
	CustomerName       string   `json:"customer_name,omitempty"`
	Address            string   `json:"address,omitempty"`
	EstimatedArrival   string   `json:"estimated_arrival,omitempty"`
	EstimatedDeparture string   `json:"estimated_departure,omitempty"`
	AgreedStart        string   `json:"scheduled_time_start,omitempty"`
	AgreedEnd          string   `json:"scheduled_time_end,omitempty"`
	ServiceDuration    *int     `json:"service_duration_min,omitempty"`
	ServiceOverride    *int     `json:"service_override_min,omitempty"`
	NeedsReschedule    bool     `json:"needs_reschedule,omitempty"`
	BreakStart         string   `json:"break_start,omitempty"`
	BreakDuration      *int     `json:"break_duration_min,omitempty"`
	DistanceFromPrevKm *float64 `json:"distance_from_prev_km,omitempty"`
	DurationFromPrev   *int     `json:"duration_from_prev_min,omitempty"`
	TravelOverride     *int     `json:"travel_override_min,omitempty"`
}

type legRequest struct {
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	DurationMin *int     `json:"duration_min,omitempty"`
}

func parseClockField(s string) *int {
	if m, ok := clock.ParseMinutes(s); ok {
		return &m
	}
	return nil
}

func (r routeRequest) toRoute(id uuid.UUID) (model.Route, error) {
	start, ok := clock.ParseMinutes(r.WorkdayStart)
	if !ok {
		return model.Route{}, fmt.Errorf("invalid workday_start %q", r.WorkdayStart)
	}
	end, ok := clock.ParseMinutes(r.WorkdayEnd)
	if !ok || end < start {
		return model.Route{}, fmt.Errorf("invalid workday_end %q", r.WorkdayEnd)
	}

	route := model.Route{
		ID:           id,
		TechnicianID: r.TechnicianID,
		Date:         r.Date,
		WorkdayStart: start,
		WorkdayEnd:   end,
	}
	if r.ReturnToDepot != nil {
		route.ReturnToDepot = &model.TravelLeg{
			DistanceKm:  r.ReturnToDepot.DistanceKm,
			DurationMin: r.ReturnToDepot.DurationMin,
		}
	}

	for i, sr := range r.Stops {
		s := model.Stop{
			CustomerID:          sr.CustomerID,
			CustomerName:        sr.CustomerName,
			Address:             sr.Address,
			EstimatedArrival:    parseClockField(sr.EstimatedArrival),
			EstimatedDeparture:  parseClockField(sr.EstimatedDeparture),
			AgreedStart:         parseClockField(sr.AgreedStart),
			AgreedEnd:           parseClockField(sr.AgreedEnd),
			ServiceDuration:     sr.ServiceDuration,
			ServiceOverride:     sr.ServiceOverride,
			NeedsReschedule:     sr.NeedsReschedule,
			BreakStart:          parseClockField(sr.BreakStart),
			BreakDuration:       sr.BreakDuration,
			DistanceFromPrevKm:  sr.DistanceFromPrevKm,
			DurationFromPrevMin: sr.DurationFromPrev,
			TravelOverrideMin:   sr.TravelOverride,
		}
		switch sr.Kind {
		case "customer":
			s.Kind = model.StopCustomer
		case "break":
			s.Kind = model.StopBreak
		default:
			return model.Route{}, fmt.Errorf("stop %d: unknown kind %q", i, sr.Kind)
		}
		if sr.ID != "" {
			sid, err := uuid.Parse(sr.ID)
			if err != nil {
				return model.Route{}, fmt.Errorf("stop %d: invalid id: %w", i, err)
			}
			s.ID = sid
		} else {
			s.ID = uuid.New()
		}
		// Arrival and departure travel in pairs; an unpaired value is
		// treated as unknown.
		if (s.EstimatedArrival == nil) != (s.EstimatedDeparture == nil) {
			s.EstimatedArrival = nil
			s.EstimatedDeparture = nil
		}
		route.Stops = append(route.Stops, s)
	}
	return route, nil
}

// ParseRoute decodes a route payload into the domain model. The
// timeline command uses it to render route files offline.
func ParseRoute(data []byte, id uuid.UUID) (model.Route, error) {
	var req routeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return model.Route{}, fmt.Errorf("decode route: %w", err)
	}
	return req.toRoute(id)
}

// clockDTO renders a nullable minute value as "HH:MM".
func clockDTO(m *int) *string {
	if m == nil {
		return nil
	}
	s := clock.FormatMinutes(*m)
	return &s
}

type itemDTO struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Start       *string   `json:"start,omitempty"`
	End         *string   `json:"end,omitempty"`
	DurationMin int       `json:"duration_min"`

	DistanceKm *float64 `json:"distance_km,omitempty"`

	StopID       *uuid.UUID `json:"stop_id,omitempty"`
	CustomerName string     `json:"customer_name,omitempty"`
	NeedsResched bool       `json:"needs_reschedule,omitempty"`

	AnchorIndex *int `json:"anchor_index,omitempty"`

	LateByMin     int     `json:"late_by_min,omitempty"`
	ActualArrival *string `json:"actual_arrival,omitempty"`

	WindowStart       *string `json:"window_start,omitempty"`
	WindowEnd         *string `json:"window_end,omitempty"`
	WindowDurationMin *int    `json:"window_duration_min,omitempty"`
}

func toItemDTOs(items []timeline.Item) []itemDTO {
	out := make([]itemDTO, len(items))
	for i, it := range items {
		d := itemDTO{
			ID:                it.ID,
			Kind:              it.Kind.String(),
			Start:             clockDTO(it.Start),
			End:               clockDTO(it.End),
			DurationMin:       it.Duration,
			DistanceKm:        it.DistanceKm,
			AnchorIndex:       it.AnchorIndex,
			LateByMin:         it.LateBy,
			ActualArrival:     clockDTO(it.ActualArrival),
			WindowStart:       clockDTO(it.WindowStart),
			WindowEnd:         clockDTO(it.WindowEnd),
			WindowDurationMin: it.WindowDuration,
		}
		if it.Stop != nil {
			id := it.StopID
			d.StopID = &id
			d.CustomerName = it.Stop.CustomerName
			d.NeedsResched = it.Stop.NeedsReschedule
		}
		out[i] = d
	}
	return out
}

type metricsDTO struct {
	capacity.RouteMetrics
	LoadStatus  string `json:"load_status"`
	SlackStatus string `json:"slack_status"`
}

type timelineResponse struct {
	RouteID uuid.UUID  `json:"route_id"`
	Items   []itemDTO  `json:"items"`
	Metrics metricsDTO `json:"metrics"`
}

type reorderRequest struct {
	From      int  `json:"from"`
	To        int  `json:"to"`
	Confirmed bool `json:"confirmed"`
}

type gapDropRequest struct {
	StopID   uuid.UUID `json:"stop_id"`
	GapID    uuid.UUID `json:"gap_id"`
	Fraction float64   `json:"fraction"`
}

type confirmationResponse struct {
	ConfirmationRequired bool      `json:"confirmation_required"`
	StopID               uuid.UUID `json:"stop_id"`
	CustomerName         string    `json:"customer_name"`
	AgreedStart          *string   `json:"agreed_start,omitempty"`
}

type jobResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

type gapSuggestionsDTO struct {
	GapID       uuid.UUID                    `json:"gap_id"`
	GapStart    *string                      `json:"gap_start,omitempty"`
	GapEnd      *string                      `json:"gap_end,omitempty"`
	AnchorIndex int                          `json:"anchor_index"`
	Suggestions []coreadvisor.SlotSuggestion `json:"suggestions"`
}

type suggestionsResponse struct {
	RouteID            uuid.UUID           `json:"route_id"`
	Gaps               []gapSuggestionsDTO `json:"gaps"`
	AdvisorUnavailable bool                `json:"advisor_unavailable,omitempty"`
}

func candidateFromQuery(r *http.Request) (coreadvisor.Candidate, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return coreadvisor.Candidate{}, fmt.Errorf("invalid lat")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return coreadvisor.Candidate{}, fmt.Errorf("invalid lon")
	}
	dur := model.DefaultStopMinutes
	if v := q.Get("service_duration_min"); v != "" {
		dur, err = strconv.Atoi(v)
		if err != nil || dur <= 0 {
			return coreadvisor.Candidate{}, fmt.Errorf("invalid service_duration_min")
		}
	}
	return coreadvisor.Candidate{Latitude: lat, Longitude: lon, ServiceDuration: dur}, nil
}
