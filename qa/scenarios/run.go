package scenarios

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kverlo/fieldday/core/capacity"
	coremetrics "github.com/kverlo/fieldday/core/metrics"
	"github.com/kverlo/fieldday/core/model"
	"github.com/kverlo/fieldday/core/timeline"
	"github.com/kverlo/fieldday/infra/metrics"
)

// RunScenario builds the scenario's route day and verifies the timeline
// against the expectations. Builds are also recorded into a fresh prom
// registry so the sink path is exercised end to end.
func RunScenario(t *testing.T, sc *Scenario) {
	start, end, err := sc.Workday()
	if err != nil {
		t.Fatalf("workday: %v", err)
	}
	stops := make([]model.Stop, len(sc.Stops))
	for i, def := range sc.Stops {
		s, err := def.ToModel()
		if err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
		stops[i] = s
	}
	model.Renumber(stops)

	buildStart := time.Now()
	items := timeline.Build(stops, start, end, nil)

	kinds := make([]string, len(items))
	gaps, late := 0, 0
	for i, it := range items {
		kinds[i] = it.Kind.String()
		if it.Kind == timeline.KindGap {
			gaps++
		}
		if it.LateBy > 0 {
			late++
		}
	}
	if len(kinds) != len(sc.Expected.Items) {
		t.Fatalf("items %v, want %v", kinds, sc.Expected.Items)
	}
	for i := range kinds {
		if kinds[i] != sc.Expected.Items[i] {
			t.Fatalf("item %d is %s, want %s (%v)", i, kinds[i], sc.Expected.Items[i], kinds)
		}
	}
	if gaps != sc.Expected.Gaps {
		t.Errorf("gaps %d, want %d", gaps, sc.Expected.Gaps)
	}
	if late != sc.Expected.Late {
		t.Errorf("late stops %d, want %d", late, sc.Expected.Late)
	}

	m := capacity.Summarize(items, start, end)
	if sc.Expected.LoadStatus != "" && m.LoadStatus().String() != sc.Expected.LoadStatus {
		t.Errorf("load status %s, want %s (load %.1f%%)", m.LoadStatus(), sc.Expected.LoadStatus, m.LoadPercent)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	if err := sink.RecordBuild(coremetrics.BuildEvent{
		RouteID:   sc.Name,
		ItemCount: len(items),
		GapCount:  gaps,
		LateCount: late,
		Elapsed:   time.Since(buildStart),
	}); err != nil {
		t.Fatalf("record build: %v", err)
	}
	if err := sink.RecordCapacity(coremetrics.CapacityEvent{
		RouteID:     sc.Name,
		LoadStatus:  m.LoadStatus(),
		SlackStatus: m.SlackStatus(),
		LoadPercent: m.LoadPercent,
	}); err != nil {
		t.Fatalf("record capacity: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "timeline_builds_total" {
			found = true
		}
	}
	if !found {
		t.Errorf("timeline_builds_total not recorded")
	}
}
