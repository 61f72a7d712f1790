package metrics

import coremetrics "github.com/kverlo/fieldday/core/metrics"

// MultiSink fans engine events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordBuild forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordBuild(ev coremetrics.BuildEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordBuild(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordEdit forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordEdit(ev coremetrics.EditEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordEdit(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCapacity forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordCapacity(ev coremetrics.CapacityEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCapacity(ev); err != nil {
			return err
		}
	}
	return nil
}
