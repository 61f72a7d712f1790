// Package scenarios runs YAML-described route days through the timeline
// builder and checks the produced items against expectations. The files
// double as living documentation of the builder's behavior.
package scenarios

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kverlo/fieldday/core/clock"
	"github.com/kverlo/fieldday/core/model"
)

type StopDef struct {
	Kind         string `yaml:"kind"`
	CustomerName string `yaml:"customer_name,omitempty"`
	Arrival      string `yaml:"arrival,omitempty"`
	Departure    string `yaml:"departure,omitempty"`
	AgreedStart  string `yaml:"agreed_start,omitempty"`
	AgreedEnd    string `yaml:"agreed_end,omitempty"`
	TravelMin    *int   `yaml:"travel_min,omitempty"`
	ServiceMin   *int   `yaml:"service_min,omitempty"`
	BreakStart   string `yaml:"break_start,omitempty"`
	BreakMin     *int   `yaml:"break_min,omitempty"`
}

func (d StopDef) ToModel() (model.Stop, error) {
	s := model.Stop{
		ID:                  uuid.New(),
		CustomerName:        d.CustomerName,
		EstimatedArrival:    clockPtr(d.Arrival),
		EstimatedDeparture:  clockPtr(d.Departure),
		AgreedStart:         clockPtr(d.AgreedStart),
		AgreedEnd:           clockPtr(d.AgreedEnd),
		DurationFromPrevMin: d.TravelMin,
		ServiceDuration:     d.ServiceMin,
		BreakStart:          clockPtr(d.BreakStart),
		BreakDuration:       d.BreakMin,
	}
	switch d.Kind {
	case "customer":
		s.Kind = model.StopCustomer
	case "break":
		s.Kind = model.StopBreak
	default:
		return model.Stop{}, fmt.Errorf("unknown stop kind %q", d.Kind)
	}
	return s, nil
}

type Expected struct {
	Items      []string `yaml:"items"`
	Gaps       int      `yaml:"gaps"`
	Late       int      `yaml:"late"`
	LoadStatus string   `yaml:"load_status"`
}

type Scenario struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description,omitempty"`
	WorkdayStart string    `yaml:"workday_start"`
	WorkdayEnd   string    `yaml:"workday_end"`
	Stops        []StopDef `yaml:"stops"`
	Expected     Expected  `yaml:"expected"`
}

func (sc *Scenario) Workday() (start, end int, err error) {
	start, ok := clock.ParseMinutes(sc.WorkdayStart)
	if !ok {
		return 0, 0, fmt.Errorf("bad workday_start %q", sc.WorkdayStart)
	}
	end, ok = clock.ParseMinutes(sc.WorkdayEnd)
	if !ok {
		return 0, 0, fmt.Errorf("bad workday_end %q", sc.WorkdayEnd)
	}
	return start, end, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func clockPtr(s string) *int {
	if m, ok := clock.ParseMinutes(s); ok {
		return &m
	}
	return nil
}
