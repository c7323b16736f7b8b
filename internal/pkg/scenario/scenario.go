/*
Package scenario holds the per-solve time series inputs: horizon length,
per-carrier demand, renewable availability and the time-of-use tariff. A
Scenario is constructed once per solve request and is immutable during the
solve.
*/
package scenario

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/iesplan/ies_core/internal/pkg/tariff"
)

// Scenario is the solve horizon and its exogenous series. Load series may be
// nil when the site has no demand for that carrier; a non-nil series must
// span the full horizon.
type Scenario struct {
	Hours          int       `json:"Hours"`
	ElectricalLoad []float64 `json:"ElectricalLoad"`
	HeatLoad       []float64 `json:"HeatLoad"`
	CoolingLoad    []float64 `json:"CoolingLoad"`
	HydrogenLoad   []float64 `json:"HydrogenLoad"`
	PVAvailability []float64 `json:"PVAvailability"`

	TOUBands   []tariff.Band `json:"TOUBands"`
	BuySeries  []float64     `json:"BuySeries"`
	SellSeries []float64     `json:"SellSeries"`

	tariff *tariff.Schedule
}

// ScenarioError reports invalid scenario input.
type ScenarioError struct {
	Field  string
	Reason string
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario error: %s: %s", e.Field, e.Reason)
}

// New unmarshals and validates a scenario from JSON config.
func New(jsonConfig []byte) (Scenario, error) {
	scn := Scenario{}
	if err := json.Unmarshal(jsonConfig, &scn); err != nil {
		return Scenario{}, err
	}
	if err := scn.Validate(); err != nil {
		return Scenario{}, err
	}
	return scn, nil
}

// NewFromFile reads a scenario config from disk.
func NewFromFile(configPath string) (Scenario, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Scenario{}, err
	}
	return New(jsonConfig)
}

// Validate checks series lengths and value ranges and constructs the tariff
// schedule. Must be called before Tariff on hand-built scenarios.
func (s *Scenario) Validate() error {
	if s.Hours <= 0 {
		return &ScenarioError{Field: "Hours", Reason: "must be positive"}
	}

	series := map[string][]float64{
		"ElectricalLoad": s.ElectricalLoad,
		"HeatLoad":       s.HeatLoad,
		"CoolingLoad":    s.CoolingLoad,
		"HydrogenLoad":   s.HydrogenLoad,
		"PVAvailability": s.PVAvailability,
	}
	for name, values := range series {
		if values != nil && len(values) != s.Hours {
			return &ScenarioError{Field: name, Reason: fmt.Sprintf("length %d != horizon %d", len(values), s.Hours)}
		}
	}

	for name, values := range series {
		if name == "PVAvailability" {
			continue
		}
		for t, v := range values {
			if v < 0 {
				return &ScenarioError{Field: name, Reason: fmt.Sprintf("negative load at step %d", t)}
			}
		}
	}
	for t, v := range s.PVAvailability {
		if v < 0 || v > 1 {
			return &ScenarioError{Field: "PVAvailability", Reason: fmt.Sprintf("value outside [0,1] at step %d", t)}
		}
	}

	switch {
	case s.BuySeries != nil:
		sched, err := tariff.FromSeries(s.BuySeries, s.SellSeries)
		if err != nil {
			return err
		}
		s.tariff = sched
	case s.TOUBands != nil:
		sched, err := tariff.New(s.TOUBands)
		if err != nil {
			return err
		}
		s.tariff = sched
	default:
		s.tariff = tariff.Flat(0, 0)
	}
	return nil
}

// Tariff returns the validated time-of-use schedule.
func (s Scenario) Tariff() *tariff.Schedule {
	return s.tariff
}
