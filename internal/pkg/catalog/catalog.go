/*
Package catalog is the process-wide registry of device archetypes. The
default catalog is immutable configuration data loaded once at startup;
concurrent solves read it without locking.
*/
package catalog

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"sort"

	"github.com/iesplan/ies_core/internal/pkg/network"
)

// Request is one user-selected device: an archetype name plus parameter
// overrides. Zero-valued fields fall back to the archetype defaults.
type Request struct {
	Type        string  `json:"Type"`
	Name        string  `json:"Name"`
	Capacity    float64 `json:"Capacity"`
	Efficiency  float64 `json:"Efficiency"`
	Efficiency2 float64 `json:"Efficiency2"`
	Hours       float64 `json:"Hours"`
	Cost        float64 `json:"Cost"`
}

// Catalog maps archetype names onto device spec templates.
type Catalog struct {
	archetypes map[string]network.DeviceSpec
}

// Default returns the built-in archetype set.
func Default() Catalog {
	specs := []network.DeviceSpec{
		{
			Type:         "grid",
			Kind:         network.KindGenerator,
			Carrier:      network.Electricity,
			Capacity:     math.Inf(1),
			TariffPriced: true,
			AllowExport:  true,
		},
		{
			Type:            "pv",
			Kind:            network.KindGenerator,
			Carrier:         network.Electricity,
			Capacity:        1000,
			Cost:            0.01,
			UseAvailability: true,
		},
		{
			Type:     "electric_boiler",
			Kind:     network.KindLink,
			Input:    network.Electricity,
			Capacity: 20,
			Outputs:  []network.OutputSpec{{Carrier: network.Heat, Efficiency: 0.98}},
		},
		heatPump("ashp", 40, 3.0, 3.5),
		heatPump("gshp_shallow", 40, 3.5, 4.0),
		heatPump("gshp_deep", 40, 4.0, 4.5),
		{
			Type:     "electrolyzer",
			Kind:     network.KindLink,
			Input:    network.Electricity,
			Capacity: 50,
			Outputs:  []network.OutputSpec{{Carrier: network.Hydrogen, Efficiency: 0.75}},
		},
		{
			Type:     "fuel_cell",
			Kind:     network.KindLink,
			Input:    network.Hydrogen,
			Capacity: 50,
			Outputs: []network.OutputSpec{
				{Carrier: network.Electricity, Efficiency: 0.45},
				{Carrier: network.Heat, Efficiency: 0.40},
			},
		},
		{
			Type:                "battery",
			Kind:                network.KindStorage,
			Carrier:             network.Electricity,
			Capacity:            30,
			Hours:               4,
			ChargeEfficiency:    0.9,
			DischargeEfficiency: 0.9,
			Cyclic:              true,
			Cost:                0.01,
		},
		{
			Type:                "h2_storage",
			Kind:                network.KindStorage,
			Carrier:             network.Hydrogen,
			Capacity:            100,
			Hours:               20,
			ChargeEfficiency:    0.98,
			DischargeEfficiency: 0.98,
			Cyclic:              true,
			Cost:                0.005,
		},
	}

	archetypes := make(map[string]network.DeviceSpec, len(specs))
	for _, s := range specs {
		archetypes[s.Type] = s
	}
	return Catalog{archetypes: archetypes}
}

func heatPump(deviceType string, capacity, cop, eer float64) network.DeviceSpec {
	return network.DeviceSpec{
		Type:     deviceType,
		Kind:     network.KindLink,
		Input:    network.Electricity,
		Capacity: capacity,
		DualMode: true,
		Outputs: []network.OutputSpec{
			{Carrier: network.Heat, Efficiency: cop},
			{Carrier: network.Cooling, Efficiency: eer},
		},
	}
}

// archetypeConfig is the JSON overlay format for site-specific catalogs.
type archetypeConfig struct {
	Type                string         `json:"Type"`
	Kind                string         `json:"Kind"`
	Carrier             string         `json:"Carrier"`
	Input               string         `json:"Input"`
	Capacity            float64        `json:"Capacity"`
	Cost                float64        `json:"Cost"`
	Hours               float64        `json:"Hours"`
	Outputs             []outputConfig `json:"Outputs"`
	DualMode            bool           `json:"DualMode"`
	ChargeEfficiency    float64        `json:"ChargeEfficiency"`
	DischargeEfficiency float64        `json:"DischargeEfficiency"`
	Cyclic              bool           `json:"Cyclic"`
	TariffPriced        bool           `json:"TariffPriced"`
	AllowExport         bool           `json:"AllowExport"`
	UseAvailability     bool           `json:"UseAvailability"`
}

type outputConfig struct {
	Carrier    string  `json:"Carrier"`
	Efficiency float64 `json:"Efficiency"`
}

// Load overlays archetypes from a JSON config file onto the default catalog.
func Load(configPath string) (Catalog, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Catalog{}, err
	}

	entries := []archetypeConfig{}
	if err := json.Unmarshal(jsonConfig, &entries); err != nil {
		return Catalog{}, err
	}

	c := Default()
	for _, e := range entries {
		spec := network.DeviceSpec{
			Type:                e.Type,
			Capacity:            e.Capacity,
			Cost:                e.Cost,
			Hours:               e.Hours,
			DualMode:            e.DualMode,
			ChargeEfficiency:    e.ChargeEfficiency,
			DischargeEfficiency: e.DischargeEfficiency,
			Cyclic:              e.Cyclic,
			TariffPriced:        e.TariffPriced,
			AllowExport:         e.AllowExport,
			UseAvailability:     e.UseAvailability,
		}
		spec.Kind, err = network.ParseKind(e.Kind)
		if err != nil {
			return Catalog{}, err
		}
		if e.Carrier != "" {
			spec.Carrier, err = network.ParseCarrier(e.Carrier)
			if err != nil {
				return Catalog{}, err
			}
		}
		if e.Input != "" {
			spec.Input, err = network.ParseCarrier(e.Input)
			if err != nil {
				return Catalog{}, err
			}
		}
		for _, out := range e.Outputs {
			carrier, err := network.ParseCarrier(out.Carrier)
			if err != nil {
				return Catalog{}, err
			}
			spec.Outputs = append(spec.Outputs, network.OutputSpec{Carrier: carrier, Efficiency: out.Efficiency})
		}
		c.archetypes[spec.Type] = spec
	}
	return c, nil
}

// Spec looks up an archetype template by type name.
func (c Catalog) Spec(deviceType string) (network.DeviceSpec, bool) {
	s, ok := c.archetypes[deviceType]
	return s, ok
}

// Types lists the registered archetype names in sorted order.
func (c Catalog) Types() []string {
	names := make([]string, 0, len(c.archetypes))
	for name := range c.archetypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve merges a user request with its archetype defaults into a fully
// specified device. Unknown archetypes and out-of-range overrides return
// ConfigurationError.
func (c Catalog) Resolve(req Request) (network.DeviceSpec, error) {
	spec, ok := c.Spec(req.Type)
	if !ok {
		return network.DeviceSpec{}, &network.ConfigurationError{
			Device: req.Type, Field: "Type", Reason: "unknown device type",
		}
	}

	spec.Name = req.Name
	if spec.Name == "" {
		spec.Name = req.Type
	}
	if req.Capacity != 0 {
		spec.Capacity = req.Capacity
	}
	if req.Hours != 0 {
		spec.Hours = req.Hours
	}
	if req.Cost != 0 {
		spec.Cost = req.Cost
	}
	if req.Efficiency != 0 {
		switch spec.Kind {
		case network.KindStorage:
			spec.ChargeEfficiency = req.Efficiency
			spec.DischargeEfficiency = req.Efficiency
		case network.KindLink:
			if len(spec.Outputs) > 0 {
				spec.Outputs = cloneOutputs(spec.Outputs)
				spec.Outputs[0].Efficiency = req.Efficiency
			}
		}
	}
	if req.Efficiency2 != 0 && spec.Kind == network.KindLink && len(spec.Outputs) > 1 {
		spec.Outputs = cloneOutputs(spec.Outputs)
		spec.Outputs[1].Efficiency = req.Efficiency2
	}

	if err := spec.Validate(); err != nil {
		return network.DeviceSpec{}, err
	}
	return spec, nil
}

func cloneOutputs(outputs []network.OutputSpec) []network.OutputSpec {
	return append([]network.OutputSpec(nil), outputs...)
}
