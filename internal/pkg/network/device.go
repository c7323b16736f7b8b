package network

import (
	"fmt"
	"math"
)

// Kind tags the device variant. Each variant contributes its own terms to the
// bus balance equations and its own box or recurrence constraints.
type Kind int

const (
	KindGenerator Kind = iota
	KindStorage
	KindLink
)

var kindNames = map[Kind]string{
	KindGenerator: "generator",
	KindStorage:   "storage",
	KindLink:      "link",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a config file string onto a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindGenerator, fmt.Errorf("unknown device kind %q", s)
}

// OutputSpec is one output leg of a link: the carrier produced and the
// conversion efficiency applied to the link's input power. Dual-mode links
// carry a COP/EER here, which may exceed unity.
type OutputSpec struct {
	Carrier    Carrier
	Efficiency float64
}

// DeviceSpec fully describes one device instance handed to the builder.
// Specs originate in the catalog (archetype defaults merged with user
// parameters); the builder treats them as read-only.
type DeviceSpec struct {
	Type string
	Name string
	Kind Kind

	// Generator and storage attachment bus. Links attach via Input/Outputs.
	Carrier Carrier
	Input   Carrier
	Outputs []OutputSpec

	// DualMode marks a link whose two outputs are mutually exclusive
	// thermal modes (heat pump heating vs. cooling).
	DualMode bool

	Capacity float64
	Cost     float64

	// Storage parameters. Energy capacity is Capacity*Hours.
	Hours               float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	SelfDischarge       float64
	Cyclic              bool
	InitialSOC          float64

	// TariffPriced generators draw their marginal cost from the scenario
	// tariff instead of Cost. AllowExport adds a sell-back variable.
	TariffPriced bool
	AllowExport  bool

	// UseAvailability caps generator output by the scenario availability
	// profile (PV).
	UseAvailability bool
}

// ConfigurationError reports an invalid device or scenario parameter. The
// caller must correct the input before requesting another solve.
type ConfigurationError struct {
	Device string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Device, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s: %s", e.Device, e.Field, e.Reason)
}

func configErr(device, field, reason string) error {
	return &ConfigurationError{Device: device, Field: field, Reason: reason}
}

// Validate checks the spec's parameters against their physical ranges.
func (s DeviceSpec) Validate() error {
	if s.Name == "" {
		return configErr(s.Type, "Name", "missing")
	}
	if s.Capacity <= 0 {
		return configErr(s.Name, "Capacity", "must be positive")
	}
	if s.Cost < 0 {
		return configErr(s.Name, "Cost", "must be non-negative")
	}

	switch s.Kind {
	case KindGenerator:
		// No further parameters.
	case KindStorage:
		if s.Hours <= 0 {
			return configErr(s.Name, "Hours", "must be positive")
		}
		if s.ChargeEfficiency <= 0 || s.ChargeEfficiency > 1 {
			return configErr(s.Name, "ChargeEfficiency", "must be in (0,1]")
		}
		if s.DischargeEfficiency <= 0 || s.DischargeEfficiency > 1 {
			return configErr(s.Name, "DischargeEfficiency", "must be in (0,1]")
		}
		if s.SelfDischarge < 0 || s.SelfDischarge >= 1 {
			return configErr(s.Name, "SelfDischarge", "must be in [0,1)")
		}
		if s.InitialSOC < 0 || s.InitialSOC > 1 {
			return configErr(s.Name, "InitialSOC", "must be in [0,1]")
		}
	case KindLink:
		if len(s.Outputs) < 1 || len(s.Outputs) > 2 {
			return configErr(s.Name, "Outputs", "links require one or two outputs")
		}
		for _, out := range s.Outputs {
			if out.Carrier == s.Input {
				return configErr(s.Name, "Outputs", "output carrier matches input carrier")
			}
			if out.Efficiency <= 0 {
				return configErr(s.Name, "Efficiency", "must be positive")
			}
			if !s.DualMode && out.Efficiency > 1 {
				return configErr(s.Name, "Efficiency", "must be in (0,1]")
			}
		}
		if s.DualMode && len(s.Outputs) != 2 {
			return configErr(s.Name, "Outputs", "dual-mode links require heating and cooling outputs")
		}
	default:
		return configErr(s.Name, "Kind", "unknown device kind")
	}

	if math.IsNaN(s.Capacity) {
		return configErr(s.Name, "Capacity", "not a number")
	}
	return nil
}

// carriers lists every carrier the spec touches.
func (s DeviceSpec) carriers() []Carrier {
	switch s.Kind {
	case KindLink:
		cs := []Carrier{s.Input}
		for _, out := range s.Outputs {
			cs = append(cs, out.Carrier)
		}
		return cs
	default:
		return []Carrier{s.Carrier}
	}
}
