package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kverlo/fieldday/api/routes"
	"github.com/kverlo/fieldday/config"
	"github.com/kverlo/fieldday/core/jobs"
	coremetrics "github.com/kverlo/fieldday/core/metrics"
	"github.com/kverlo/fieldday/infra/advisor"
	"github.com/kverlo/fieldday/infra/logger"
	"github.com/kverlo/fieldday/infra/metrics"
	"github.com/kverlo/fieldday/infra/mqtt"
	"github.com/kverlo/fieldday/internal/eventbus"
)

// Service wires the route store, the HTTP surface and the external
// collaborators together.
type Service struct {
	Store *routes.Store

	server      *http.Server
	jobClient   jobs.Client
	bus         *eventbus.JobStatusBus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	zerolog.SetGlobalLevel(cfg.Logging.ZerologLevel())
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.NewJobStatus()
	var jobClient jobs.Client
	if cfg.MQTT.Broker != "" {
		jc, err := mqtt.NewJobClient(cfg.MQTT, bus)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		jobClient = jc
	} else {
		// No broker configured: recalculations are accepted but only
		// recorded, useful for local development.
		logg.Warnf("no mqtt broker configured, using in-memory job client")
		jobClient = mqtt.NewMockJobClient()
	}

	var adv *advisor.HTTPAdvisor
	if cfg.Advisor.BaseURL != "" {
		adv = advisor.NewHTTPAdvisor(cfg.Advisor)
	}

	store := routes.NewStore()
	handler := routes.NewHandler(store, adv, jobClient, sink,
		time.Duration(cfg.Planner.JobTimeoutSeconds)*time.Second)
	mux := http.NewServeMux()
	handler.Register(mux)

	return &Service{
		Store:       store,
		server:      &http.Server{Addr: cfg.API.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		jobClient:   jobClient,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the HTTP surface and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.watchJobStatus(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("route api listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// watchJobStatus logs job progress reported by the worker backend. The
// recalculated stop list itself arrives through a route upsert, so a
// terminal status only tells the surface to refetch.
func (s *Service) watchJobStatus(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch {
			case ev.State == jobs.StateFailed:
				s.log.Errorf("job %s (%s) for route %s failed: %s", ev.JobID, ev.Kind, ev.RouteID, ev.Error)
			case ev.State.Terminal():
				s.log.Infof("job %s (%s) for route %s completed", ev.JobID, ev.Kind, ev.RouteID)
			default:
				s.log.Debugf("job %s (%s) for route %s: %s", ev.JobID, ev.Kind, ev.RouteID, ev.State)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.jobClient.Close()
}
