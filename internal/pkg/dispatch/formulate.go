package dispatch

import (
	"fmt"

	"github.com/iesplan/ies_core/internal/pkg/lp"
	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
)

// Mode selects the formulation class. Auto defers to problem structure: a
// MILP is built only when a device requires discrete mode decisions, since
// MILP solve time grows combinatorially with binary count.
type Mode int

const (
	Auto Mode = iota
	LP
	MILP
)

func (m Mode) String() string {
	switch m {
	case LP:
		return "lp"
	case MILP:
		return "milp"
	default:
		return "auto"
	}
}

// ParseMode maps a request string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "lp":
		return LP, nil
	case "milp":
		return MILP, nil
	}
	return Auto, fmt.Errorf("unknown solve mode %q", s)
}

// VarIndex maps device names onto the per-timestep column indices of their
// decision variables. The extractor walks it to recover dispatch series.
type VarIndex struct {
	Gen       map[string][]int
	Export    map[string][]int
	LinkIn    map[string][]int
	LinkHeat  map[string][]int
	LinkCool  map[string][]int
	ModeHeat  map[string][]int
	ModeCool  map[string][]int
	Charge    map[string][]int
	Discharge map[string][]int
	SOC       map[string][]int

	MixedInteger bool
}

func newVarIndex() *VarIndex {
	return &VarIndex{
		Gen:       make(map[string][]int),
		Export:    make(map[string][]int),
		LinkIn:    make(map[string][]int),
		LinkHeat:  make(map[string][]int),
		LinkCool:  make(map[string][]int),
		ModeHeat:  make(map[string][]int),
		ModeCool:  make(map[string][]int),
		Charge:    make(map[string][]int),
		Discharge: make(map[string][]int),
		SOC:       make(map[string][]int),
	}
}

// balanceTerms accumulates each device's contribution to the per-bus,
// per-timestep energy balance equalities.
type balanceTerms map[network.Carrier][][]lp.Term

func newBalanceTerms(net *network.Network) balanceTerms {
	bt := make(balanceTerms, len(net.Buses))
	for c := range net.Buses {
		bt[c] = make([][]lp.Term, net.Horizon)
	}
	return bt
}

func (bt balanceTerms) add(c network.Carrier, t, col int, coef float64) {
	bt[c][t] = append(bt[c][t], lp.Term{Col: col, Coef: coef})
}

// Formulate assembles the full-horizon optimization problem from the wired
// network, the scenario's tariff, and the coupling constraints. The network
// is not mutated; the returned program is handed read-only to the solver.
func Formulate(net *network.Network, scn scenario.Scenario, mode Mode) (*lp.Program, *VarIndex, error) {
	useBinaries := mode == MILP || (mode == Auto && net.HasDualModeLinks())

	prog := lp.New()
	idx := newVarIndex()
	idx.MixedInteger = useBinaries && net.HasDualModeLinks()
	balance := newBalanceTerms(net)
	tou := scn.Tariff()
	T := net.Horizon

	for _, g := range net.Generators {
		name := g.Spec.Name
		cols := make([]int, T)
		for t := 0; t < T; t++ {
			cost := g.Spec.Cost
			if g.Spec.TariffPriced {
				cost, _ = tou.PriceAt(t)
			}
			cols[t] = prog.AddVariable(fmt.Sprintf("%s.p[%d]", name, t), cost, 0, g.MaxOutput(t))
			balance.add(g.Bus.Carrier(), t, cols[t], 1)
		}
		idx.Gen[name] = cols

		if g.Spec.AllowExport {
			exports := make([]int, T)
			for t := 0; t < T; t++ {
				_, sell := tou.PriceAt(t)
				exports[t] = prog.AddVariable(fmt.Sprintf("%s.x[%d]", name, t), -sell, 0, g.Spec.Capacity)
				balance.add(g.Bus.Carrier(), t, exports[t], -1)
			}
			idx.Export[name] = exports
		}
	}

	for _, s := range net.Storages {
		name := s.Spec.Name
		charge := make([]int, T)
		discharge := make([]int, T)
		soc := make([]int, T)
		for t := 0; t < T; t++ {
			charge[t] = prog.AddVariable(fmt.Sprintf("%s.c[%d]", name, t), 0, 0, s.Spec.Capacity)
			discharge[t] = prog.AddVariable(fmt.Sprintf("%s.d[%d]", name, t), s.Spec.Cost, 0, s.Spec.Capacity)
			soc[t] = prog.AddVariable(fmt.Sprintf("%s.soc[%d]", name, t), 0, 0, s.EnergyCapacity())
			balance.add(s.Bus.Carrier(), t, charge[t], -1)
			balance.add(s.Bus.Carrier(), t, discharge[t], 1)
		}
		idx.Charge[name] = charge
		idx.Discharge[name] = discharge
		idx.SOC[name] = soc
	}

	for _, l := range net.Links {
		name := l.Spec.Name
		if l.DualMode() {
			heat := make([]int, T)
			cool := make([]int, T)
			for t := 0; t < T; t++ {
				heat[t] = prog.AddVariable(fmt.Sprintf("%s.ph[%d]", name, t), l.Spec.Cost, 0, l.Spec.Capacity)
				cool[t] = prog.AddVariable(fmt.Sprintf("%s.pc[%d]", name, t), l.Spec.Cost, 0, l.Spec.Capacity)
				balance.add(l.Input.Carrier(), t, heat[t], -1)
				balance.add(l.Input.Carrier(), t, cool[t], -1)
				balance.add(l.Outputs[0].Bus.Carrier(), t, heat[t], l.Outputs[0].Efficiency)
				balance.add(l.Outputs[1].Bus.Carrier(), t, cool[t], l.Outputs[1].Efficiency)
			}
			idx.LinkHeat[name] = heat
			idx.LinkCool[name] = cool
			continue
		}

		cols := make([]int, T)
		for t := 0; t < T; t++ {
			cols[t] = prog.AddVariable(fmt.Sprintf("%s.p[%d]", name, t), l.Spec.Cost, 0, l.Spec.Capacity)
			balance.add(l.Input.Carrier(), t, cols[t], -1)
			for _, out := range l.Outputs {
				balance.add(out.Bus.Carrier(), t, cols[t], out.Efficiency)
			}
		}
		idx.LinkIn[name] = cols
	}

	addModeExclusivity(prog, idx, net, useBinaries)
	addStorageContinuity(prog, idx, net)
	addEnergyBalance(prog, net, balance)

	return prog, idx, nil
}
