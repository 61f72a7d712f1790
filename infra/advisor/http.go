// Package advisor provides the HTTP adapter for the external insertion
// advisor service.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kverlo/fieldday/auth"
	coreadvisor "github.com/kverlo/fieldday/core/advisor"
	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/infra/logger"
)

// Config defines the connection parameters for the advisor service.
// Either a static APIKey or an OAuth client-credentials grant can
// authenticate the calls; OAuth wins when both are set.
type Config struct {
	BaseURL        string      `json:"base_url"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	APIKey         string      `json:"api_key"`
	OAuth          auth.Config `json:"oauth"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// HTTPAdvisor calls the insertion advisor over HTTP.
type HTTPAdvisor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	creds   *auth.ClientCred
	log     logger.Logger
}

// NewHTTPAdvisor creates an advisor client for the configured endpoint.
func NewHTTPAdvisor(cfg Config) *HTTPAdvisor {
	cfg.SetDefaults()
	a := &HTTPAdvisor{
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		log:     logger.New("advisor-client"),
	}
	if cfg.OAuth.Enabled() {
		a.creds = auth.NewClientCred(cfg.OAuth)
	}
	return a
}

type suggestRequest struct {
	RouteID   uuid.UUID             `json:"route_id"`
	Date      string                `json:"date"`
	StopIDs   []uuid.UUID           `json:"stop_ids"`
	Candidate coreadvisor.Candidate `json:"candidate"`
}

type suggestResponse struct {
	Suggestions []coreadvisor.SlotSuggestion `json:"suggestions"`
}

// SuggestSlots asks the advisor to rank insertion points for the
// candidate against the route. The route order is transmitted as the
// stop id sequence; the advisor holds the geometry.
func (a *HTTPAdvisor) SuggestSlots(ctx context.Context, route model.Route, cand coreadvisor.Candidate) ([]coreadvisor.SlotSuggestion, error) {
	ids := make([]uuid.UUID, len(route.Stops))
	for i, s := range route.Stops {
		ids[i] = s.ID
	}
	body, err := json.Marshal(suggestRequest{
		RouteID:   route.ID,
		Date:      route.Date,
		StopIDs:   ids,
		Candidate: cand,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest slots: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/insertions/rank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("suggest slots: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	switch {
	case a.creds != nil:
		if err := a.creds.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("suggest slots: %w", err)
		}
	case a.apiKey != "":
		req.Header.Set("Authorization", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest slots: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("suggest slots: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("suggest slots: decode response: %w", err)
	}
	return out.Suggestions, nil
}

// SuggestSlotsOrEmpty wraps SuggestSlots with the caller-facing fallback
// policy: on timeout or error the surface gets an empty suggestion set
// instead of a blocked gesture. The error is logged, not swallowed
// silently.
func (a *HTTPAdvisor) SuggestSlotsOrEmpty(ctx context.Context, route model.Route, cand coreadvisor.Candidate) []coreadvisor.SlotSuggestion {
	suggestions, err := a.SuggestSlots(ctx, route, cand)
	if err != nil {
		a.log.Warnf("insertion advisor unavailable: %v", err)
		return nil
	}
	return suggestions
}
