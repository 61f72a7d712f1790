package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	coreadvisor "github.com/kverlo/fieldday/core/advisor"
	"github.com/kverlo/fieldday/core/capacity"
	"github.com/kverlo/fieldday/core/jobs"
	coremetrics "github.com/kverlo/fieldday/core/metrics"
	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
	"github.com/kverlo/fieldday/infra/logger"
)

// Handler exposes the route timeline and the local edit gestures over
// HTTP. It is the adapter between the interactive surface and the pure
// core: all stop-list ownership sits in the Store.
type Handler struct {
	store      *Store
	advisor    coreadvisor.Advisor
	jobClient  jobs.Client
	sink       coremetrics.MetricsSink
	log        logger.Logger
	jobTimeout time.Duration
}

// NewHandler creates a Handler. advisor and jobClient may be nil when
// the respective collaborator is not configured; sink may be nil to
// disable metrics.
func NewHandler(store *Store, adv coreadvisor.Advisor, jc jobs.Client, sink coremetrics.MetricsSink, jobTimeout time.Duration) *Handler {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Second
	}
	return &Handler{
		store:      store,
		advisor:    adv,
		jobClient:  jc,
		sink:       sink,
		log:        logger.New("routes-api"),
		jobTimeout: jobTimeout,
	}
}

// Register attaches the handlers to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/routes/{id}", h.putRoute)
	mux.HandleFunc("GET /api/routes/{id}/timeline", h.getTimeline)
	mux.HandleFunc("POST /api/routes/{id}/reorder", h.postReorder)
	mux.HandleFunc("POST /api/routes/{id}/gap-drop", h.postGapDrop)
	mux.HandleFunc("POST /api/routes/{id}/recalculate", h.postRecalculate)
	mux.HandleFunc("GET /api/routes/{id}/suggestions", h.getSuggestions)
}

func (h *Handler) routeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid route id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) putRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	route, err := req.toRoute(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.Upsert(route)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	start := time.Now()
	items, route, err := h.store.Timeline(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	metrics := capacity.Summarize(items, route.WorkdayStart, route.WorkdayEnd)
	h.recordBuild(route, items, time.Since(start), metrics)

	writeJSON(w, http.StatusOK, timelineResponse{
		RouteID: route.ID,
		Items:   toItemDTOs(items),
		Metrics: metricsDTO{
			RouteMetrics: metrics,
			LoadStatus:   metrics.LoadStatus().String(),
			SlackStatus:  metrics.SlackStatus().String(),
		},
	})
}

func (h *Handler) postReorder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	pending, err := h.store.Reorder(id, req.From, req.To, req.Confirmed)
	if err != nil {
		h.recordEdit(id, coremetrics.EditReorder, false, false)
		status := http.StatusNotFound
		if errors.Is(err, ErrUnknownStop) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	if pending != nil {
		// The moved stop has a promised time; committing silently could
		// break it. The surface must ask and retry with confirmed=true.
		writeJSON(w, http.StatusConflict, confirmationResponse{
			ConfirmationRequired: true,
			StopID:               pending.ID,
			CustomerName:         pending.CustomerName,
			AgreedStart:          clockDTO(pending.AgreedStart),
		})
		h.recordEdit(id, coremetrics.EditReorder, false, true)
		return
	}
	h.recordEdit(id, coremetrics.EditReorder, true, req.Confirmed)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postGapDrop(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	var req gapDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	err := h.store.GapDrop(id, req.StopID, req.GapID, req.Fraction)
	switch {
	case err == nil:
		h.recordEdit(id, coremetrics.EditGapDrop, true, false)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrInfeasibleDrop):
		h.recordEdit(id, coremetrics.EditGapDrop, false, false)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.recordEdit(id, coremetrics.EditGapDrop, false, false)
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *Handler) postRecalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	if h.jobClient == nil {
		http.Error(w, "no job collaborator configured", http.StatusServiceUnavailable)
		return
	}
	if _, found := h.store.Get(id); !found {
		http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.jobTimeout)
	defer cancel()
	jobID, err := h.jobClient.Submit(ctx, jobs.Request{Kind: jobs.KindRecalculate, RouteID: id})
	if err != nil {
		h.recordEdit(id, coremetrics.EditRecalc, false, false)
		h.log.Errorf("submit recalculation: %v", err)
		http.Error(w, "recalculation submit failed", http.StatusBadGateway)
		return
	}
	h.recordEdit(id, coremetrics.EditRecalc, true, false)
	writeJSON(w, http.StatusAccepted, jobResponse{JobID: jobID})
}

func (h *Handler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.routeID(w, r)
	if !ok {
		return
	}
	cand, err := candidateFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, route, err := h.store.Timeline(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	resp := suggestionsResponse{RouteID: route.ID}
	if h.advisor != nil {
		suggestions, err := h.advisor.SuggestSlots(r.Context(), route, cand)
		if err != nil {
			// Fall back to an empty set so the surface stays responsive;
			// the flag drives a transient retry banner.
			h.log.Warnf("insertion advisor: %v", err)
			resp.AdvisorUnavailable = true
		} else {
			for _, info := range coreadvisor.MapToGaps(items, suggestions) {
				resp.Gaps = append(resp.Gaps, gapSuggestionsDTO{
					GapID:       info.Gap.ID,
					GapStart:    clockDTO(info.Gap.Start),
					GapEnd:      clockDTO(info.Gap.End),
					AnchorIndex: *info.Gap.AnchorIndex,
					Suggestions: info.Suggestions,
				})
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) recordBuild(route model.Route, items []timeline.Item, elapsed time.Duration, m capacity.RouteMetrics) {
	gaps, late := 0, 0
	for _, it := range items {
		if it.Kind == timeline.KindGap {
			gaps++
		}
		if it.LateBy > 0 {
			late++
		}
	}
	if err := h.sink.RecordBuild(coremetrics.BuildEvent{
		RouteID:   route.ID.String(),
		ItemCount: len(items),
		GapCount:  gaps,
		LateCount: late,
		Elapsed:   elapsed,
	}); err != nil {
		h.log.Warnf("record build: %v", err)
	}
	if err := h.sink.RecordCapacity(coremetrics.CapacityEvent{
		RouteID:     route.ID.String(),
		LoadStatus:  m.LoadStatus(),
		SlackStatus: m.SlackStatus(),
		LoadPercent: m.LoadPercent,
	}); err != nil {
		h.log.Warnf("record capacity: %v", err)
	}
}

func (h *Handler) recordEdit(id uuid.UUID, kind coremetrics.EditKind, accepted, confirmation bool) {
	if err := h.sink.RecordEdit(coremetrics.EditEvent{
		RouteID:      id.String(),
		Kind:         kind,
		Accepted:     accepted,
		Confirmation: confirmation,
	}); err != nil {
		h.log.Warnf("record edit: %v", err)
	}
}
