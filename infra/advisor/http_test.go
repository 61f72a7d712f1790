package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverlo/fieldday/auth"
	coreadvisor "github.com/kverlo/fieldday/core/advisor"
	"github.com/kverlo/fieldday/core/model"
)

func testRoute() model.Route {
	return model.Route{
		ID:   uuid.New(),
		Date: "2026-09-01",
		Stops: []model.Stop{
			{ID: uuid.New(), Kind: model.StopCustomer},
			{ID: uuid.New(), Kind: model.StopBreak},
		},
	}
}

func TestSuggestSlots(t *testing.T) {
	route := testRoute()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/insertions/rank", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))

		var req suggestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, route.ID, req.RouteID)
		assert.Len(t, req.StopIDs, 2)

		resp := suggestResponse{Suggestions: []coreadvisor.SlotSuggestion{
			{AnchorIndex: 0, EstimatedArrival: 570, EstimatedDeparture: 600, DeltaDurationMin: 12, Status: coreadvisor.SlotOK},
			{AnchorIndex: 1, Status: coreadvisor.SlotTight},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(Config{BaseURL: srv.URL, APIKey: "secret"})
	got, err := a.SuggestSlots(context.Background(), route, coreadvisor.Candidate{ServiceDuration: 30})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, coreadvisor.SlotOK, got[0].Status)
	assert.Equal(t, 12, got[0].DeltaDurationMin)
}

func TestSuggestSlotsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "solver busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(Config{BaseURL: srv.URL})
	_, err := a.SuggestSlots(context.Background(), testRoute(), coreadvisor.Candidate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSuggestSlotsOrEmptyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got := a.SuggestSlotsOrEmpty(ctx, testRoute(), coreadvisor.Candidate{})
	assert.Empty(t, got)
}

func TestSuggestSlotsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(Config{BaseURL: srv.URL})
	_, err := a.SuggestSlots(context.Background(), testRoute(), coreadvisor.Candidate{})
	require.Error(t, err)
}

func TestSuggestSlotsOAuthBearer(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(suggestResponse{}))
	}))
	defer srv.Close()

	a := NewHTTPAdvisor(Config{
		BaseURL: srv.URL,
		APIKey:  "ignored-when-oauth-set",
		OAuth:   auth.Config{ClientID: "id", ClientSecret: "secret", TokenURL: tokenSrv.URL},
	})
	_, err := a.SuggestSlots(context.Background(), testRoute(), coreadvisor.Candidate{})
	require.NoError(t, err)
}
