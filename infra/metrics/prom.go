package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kverlo/fieldday/core/metrics"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	builds    prometheus.Counter
	buildTime prometheus.Histogram
	gaps      *prometheus.GaugeVec
	lateStops *prometheus.GaugeVec
	edits     *prometheus.CounterVec
	load      *prometheus.GaugeVec
	status    *prometheus.CounterVec
}

// NewPromSink registers engine metrics on the default Prometheus
// registerer. The Prometheus server is started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	builds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_builds_total",
		Help: "Total number of timeline rebuilds",
	})
	buildTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_build_seconds",
		Help:    "Time spent rebuilding a route timeline",
		Buckets: prometheus.DefBuckets,
	})
	gaps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "route_gap_items",
		Help: "Idle gaps in the latest build of a route",
	}, []string{"route_id"})
	lateStops := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "route_late_stops",
		Help: "Stops past their agreed time in the latest build of a route",
	}, []string{"route_id"})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_edits_total",
		Help: "Local edit gestures, including rejected ones",
	}, []string{"kind", "accepted", "confirmation"})
	load := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "route_load_percent",
		Help: "Share of the workday committed to travel and service",
	}, []string{"route_id"})
	status := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_capacity_status_total",
		Help: "Capacity classifications observed after builds",
	}, []string{"load", "slack"})

	for _, c := range []prometheus.Collector{builds, buildTime, gaps, lateStops, edits, load, status} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return &PromSink{
		builds:    builds,
		buildTime: buildTime,
		gaps:      gaps,
		lateStops: lateStops,
		edits:     edits,
		load:      load,
		status:    status,
	}, nil
}

// RecordBuild counts the rebuild and updates the per-route gauges.
func (s *PromSink) RecordBuild(ev coremetrics.BuildEvent) error {
	s.builds.Inc()
	s.buildTime.Observe(ev.Elapsed.Seconds())
	s.gaps.WithLabelValues(ev.RouteID).Set(float64(ev.GapCount))
	s.lateStops.WithLabelValues(ev.RouteID).Set(float64(ev.LateCount))
	return nil
}

// RecordEdit counts the gesture.
func (s *PromSink) RecordEdit(ev coremetrics.EditEvent) error {
	s.edits.WithLabelValues(string(ev.Kind), strconv.FormatBool(ev.Accepted), strconv.FormatBool(ev.Confirmation)).Inc()
	return nil
}

// RecordCapacity updates the load gauge and status counter.
func (s *PromSink) RecordCapacity(ev coremetrics.CapacityEvent) error {
	s.load.WithLabelValues(ev.RouteID).Set(ev.LoadPercent)
	s.status.WithLabelValues(ev.LoadStatus.String(), ev.SlackStatus.String()).Inc()
	return nil
}
