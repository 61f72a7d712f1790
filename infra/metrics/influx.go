package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kverlo/fieldday/core/metrics"
	"github.com/kverlo/fieldday/infra/logger"
)

// InfluxSink writes engine events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a down metrics store never
// blocks the service.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordBuild writes the build event as a point.
func (s *InfluxSink) RecordBuild(ev coremetrics.BuildEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("timeline_build").
		AddTag("route_id", ev.RouteID).
		AddField("items", ev.ItemCount).
		AddField("gaps", ev.GapCount).
		AddField("late_stops", ev.LateCount).
		AddField("elapsed_ms", float64(ev.Elapsed.Microseconds())/1000).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEdit writes the edit gesture as a point.
func (s *InfluxSink) RecordEdit(ev coremetrics.EditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_edit").
		AddTag("route_id", ev.RouteID).
		AddTag("kind", string(ev.Kind)).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddField("confirmation", ev.Confirmation).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCapacity writes the capacity classification as a point.
func (s *InfluxSink) RecordCapacity(ev coremetrics.CapacityEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("route_capacity").
		AddTag("route_id", ev.RouteID).
		AddTag("load_status", ev.LoadStatus.String()).
		AddTag("slack_status", ev.SlackStatus.String()).
		AddField("load_percent", ev.LoadPercent).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts the underlying client down.
func (s *InfluxSink) Close() { s.client.Close() }
