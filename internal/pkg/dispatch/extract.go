package dispatch

import (
	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
	"github.com/iesplan/ies_core/internal/pkg/solver"
)

// Series is a per-timestep value trajectory over the solve horizon.
type Series []float64

// DeviceResult is the per-timestep dispatch of one device. Populated fields
// depend on the device variant: generators fill Output (and Export for grid
// ties), links fill Input and Output, storage fills Charge/Discharge/SOC,
// dual-mode links additionally fill the mode indicator series.
type DeviceResult struct {
	Name string `json:"Name"`
	Type string `json:"Type"`

	Input  Series                     `json:"Input,omitempty"`
	Output map[network.Carrier]Series `json:"Output,omitempty"`
	Export Series                     `json:"Export,omitempty"`

	Charge    Series `json:"Charge,omitempty"`
	Discharge Series `json:"Discharge,omitempty"`
	SOC       Series `json:"SOC,omitempty"`

	HeatingOn Series `json:"HeatingOn,omitempty"`
	CoolingOn Series `json:"CoolingOn,omitempty"`
}

// CostBreakdown splits the objective into its cost categories.
type CostBreakdown struct {
	Fuel    float64 `json:"Fuel"`
	Grid    float64 `json:"Grid"`
	Cycling float64 `json:"Cycling"`
	Total   float64 `json:"Total"`
}

// Solution is the extracted dispatch schedule for one solve request.
// Immutable once produced; owned by the caller.
type Solution struct {
	PID       uuid.UUID      `json:"PID"`
	Horizon   int            `json:"Horizon"`
	Mode      string         `json:"Mode"`
	Objective float64        `json:"Objective"`
	Cost      CostBreakdown  `json:"Cost"`
	Devices   []DeviceResult `json:"Devices"`
}

func series(columns []float64, cols []int) Series {
	s := make(Series, len(cols))
	for t, col := range cols {
		if col < len(columns) {
			s[t] = columns[col]
		}
	}
	return s
}

// Extract converts the raw primal solution into per-device dispatch series,
// SOC trajectories, and the cost breakdown. Pure, read-only transform.
func Extract(net *network.Network, scn scenario.Scenario, idx *VarIndex, raw solver.Raw) Solution {
	pid, _ := uuid.NewUUID()
	tou := scn.Tariff()

	sol := Solution{
		PID:       pid,
		Horizon:   net.Horizon,
		Objective: raw.Objective,
	}
	if idx.MixedInteger {
		sol.Mode = MILP.String()
	} else {
		sol.Mode = LP.String()
	}

	cost := CostBreakdown{Total: raw.Objective}

	for _, g := range net.Generators {
		name := g.Spec.Name
		dispatch := series(raw.Columns, idx.Gen[name])
		result := DeviceResult{
			Name:   name,
			Type:   g.Spec.Type,
			Output: map[network.Carrier]Series{g.Bus.Carrier(): dispatch},
		}
		if exports, ok := idx.Export[name]; ok {
			result.Export = series(raw.Columns, exports)
		}

		for t := 0; t < net.Horizon; t++ {
			if g.Spec.TariffPriced {
				buy, sell := tou.PriceAt(t)
				cost.Grid += buy * dispatch[t]
				if result.Export != nil {
					cost.Grid -= sell * result.Export[t]
				}
			} else {
				cost.Fuel += g.Spec.Cost * dispatch[t]
			}
		}
		sol.Devices = append(sol.Devices, result)
	}

	for _, s := range net.Storages {
		name := s.Spec.Name
		result := DeviceResult{
			Name:      name,
			Type:      s.Spec.Type,
			Charge:    series(raw.Columns, idx.Charge[name]),
			Discharge: series(raw.Columns, idx.Discharge[name]),
			SOC:       series(raw.Columns, idx.SOC[name]),
		}
		for t := 0; t < net.Horizon; t++ {
			cost.Cycling += s.Spec.Cost * result.Discharge[t]
		}
		sol.Devices = append(sol.Devices, result)
	}

	for _, l := range net.Links {
		name := l.Spec.Name
		result := DeviceResult{
			Name:   name,
			Type:   l.Spec.Type,
			Output: make(map[network.Carrier]Series),
		}

		if l.DualMode() {
			heat := series(raw.Columns, idx.LinkHeat[name])
			cool := series(raw.Columns, idx.LinkCool[name])
			input := make(Series, net.Horizon)
			heatOut := make(Series, net.Horizon)
			coolOut := make(Series, net.Horizon)
			for t := 0; t < net.Horizon; t++ {
				input[t] = heat[t] + cool[t]
				heatOut[t] = heat[t] * l.Outputs[0].Efficiency
				coolOut[t] = cool[t] * l.Outputs[1].Efficiency
				cost.Fuel += l.Spec.Cost * input[t]
			}
			result.Input = input
			result.Output[l.Outputs[0].Bus.Carrier()] = heatOut
			result.Output[l.Outputs[1].Bus.Carrier()] = coolOut
			result.HeatingOn = series(raw.Columns, idx.ModeHeat[name])
			result.CoolingOn = series(raw.Columns, idx.ModeCool[name])
		} else {
			input := series(raw.Columns, idx.LinkIn[name])
			result.Input = input
			for _, out := range l.Outputs {
				converted := make(Series, net.Horizon)
				for t := 0; t < net.Horizon; t++ {
					converted[t] = input[t] * out.Efficiency
				}
				result.Output[out.Bus.Carrier()] = converted
			}
			for t := 0; t < net.Horizon; t++ {
				cost.Fuel += l.Spec.Cost * input[t]
			}
		}
		sol.Devices = append(sol.Devices, result)
	}

	sol.Cost = cost
	return sol
}
