package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kverlo/fieldday/core/capacity"
	coremetrics "github.com/kverlo/fieldday/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordBuild(coremetrics.BuildEvent{
		RouteID:   "r1",
		ItemCount: 7,
		GapCount:  2,
		LateCount: 1,
		Elapsed:   3 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordEdit(coremetrics.EditEvent{
		RouteID: "r1", Kind: coremetrics.EditGapDrop, Accepted: true,
	}))
	require.NoError(t, sink.RecordCapacity(coremetrics.CapacityEvent{
		RouteID:     "r1",
		LoadStatus:  capacity.StatusTight,
		SlackStatus: capacity.StatusOK,
		LoadPercent: 84.5,
	}))

	fams, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range fams {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"timeline_builds_total",
		"route_gap_items",
		"route_late_stops",
		"route_edits_total",
		"route_load_percent",
		"route_capacity_status_total",
	} {
		require.True(t, names[want], "missing metric %s", want)
	}
}

func TestMultiSinkForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	multi := NewMultiSink(coremetrics.NopSink{}, prom)

	require.NoError(t, multi.RecordBuild(coremetrics.BuildEvent{RouteID: "r2", ItemCount: 2}))
	require.NoError(t, multi.RecordEdit(coremetrics.EditEvent{Kind: coremetrics.EditReorder, Accepted: false}))
	require.NoError(t, multi.RecordCapacity(coremetrics.CapacityEvent{RouteID: "r2"}))
}
