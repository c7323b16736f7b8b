package dispatch

import (
	"fmt"
	"math"

	"github.com/iesplan/ies_core/internal/pkg/lp"
	"github.com/iesplan/ies_core/internal/pkg/network"
)

// addModeExclusivity encodes the cold-heat mutual exclusion for dual-mode
// links: per timestep, binary indicators for heating and cooling sum to at
// most one, each mode's throughput is gated by its indicator, and the two
// modes share the link's capacity. Under LP mode the indicators relax to
// [0,1] continuous variables.
func addModeExclusivity(prog *lp.Program, idx *VarIndex, net *network.Network, useBinaries bool) {
	ninf := math.Inf(-1)

	for _, l := range net.Links {
		if !l.DualMode() {
			continue
		}
		name := l.Spec.Name
		pNom := l.Spec.Capacity
		heat := idx.LinkHeat[name]
		cool := idx.LinkCool[name]

		heatOn := make([]int, net.Horizon)
		coolOn := make([]int, net.Horizon)
		for t := 0; t < net.Horizon; t++ {
			if useBinaries {
				heatOn[t] = prog.AddBinary(fmt.Sprintf("%s.hon[%d]", name, t), 0)
				coolOn[t] = prog.AddBinary(fmt.Sprintf("%s.con[%d]", name, t), 0)
			} else {
				heatOn[t] = prog.AddVariable(fmt.Sprintf("%s.hon[%d]", name, t), 0, 0, 1)
				coolOn[t] = prog.AddVariable(fmt.Sprintf("%s.con[%d]", name, t), 0, 0, 1)
			}

			prog.AddConstraint(fmt.Sprintf("%s.excl[%d]", name, t), ninf,
				[]lp.Term{{Col: heatOn[t], Coef: 1}, {Col: coolOn[t], Coef: 1}}, 1)
			prog.AddConstraint(fmt.Sprintf("%s.hgate[%d]", name, t), ninf,
				[]lp.Term{{Col: heat[t], Coef: 1}, {Col: heatOn[t], Coef: -pNom}}, 0)
			prog.AddConstraint(fmt.Sprintf("%s.cgate[%d]", name, t), ninf,
				[]lp.Term{{Col: cool[t], Coef: 1}, {Col: coolOn[t], Coef: -pNom}}, 0)
			prog.AddConstraint(fmt.Sprintf("%s.share[%d]", name, t), ninf,
				[]lp.Term{{Col: heat[t], Coef: 1}, {Col: cool[t], Coef: 1}}, pNom)
		}
		idx.ModeHeat[name] = heatOn
		idx.ModeCool[name] = coolOn
	}
}

// addStorageContinuity chains the state-of-charge recurrence
//
//	soc[t] = (1-sd)*soc[t-1] + eta_c*charge[t] - discharge[t]/eta_d
//
// across the horizon. Cyclic storage ties soc[0] back to soc[T-1]; fixed
// storage anchors soc[0] on the configured initial fill.
func addStorageContinuity(prog *lp.Program, idx *VarIndex, net *network.Network) {
	for _, s := range net.Storages {
		name := s.Spec.Name
		charge := idx.Charge[name]
		discharge := idx.Discharge[name]
		soc := idx.SOC[name]

		retain := 1 - s.Spec.SelfDischarge
		etaC := s.Spec.ChargeEfficiency
		invEtaD := 1 / s.Spec.DischargeEfficiency

		for t := 1; t < net.Horizon; t++ {
			prog.AddEquality(fmt.Sprintf("%s.cont[%d]", name, t), []lp.Term{
				{Col: soc[t], Coef: 1},
				{Col: soc[t-1], Coef: -retain},
				{Col: charge[t], Coef: -etaC},
				{Col: discharge[t], Coef: invEtaD},
			}, 0)
		}

		if s.Spec.Cyclic {
			prog.AddEquality(fmt.Sprintf("%s.cont[0]", name), []lp.Term{
				{Col: soc[0], Coef: 1},
				{Col: soc[net.Horizon-1], Coef: -retain},
				{Col: charge[0], Coef: -etaC},
				{Col: discharge[0], Coef: invEtaD},
			}, 0)
		} else {
			initial := retain * s.Spec.InitialSOC * s.EnergyCapacity()
			prog.AddEquality(fmt.Sprintf("%s.cont[0]", name), []lp.Term{
				{Col: soc[0], Coef: 1},
				{Col: charge[0], Coef: -etaC},
				{Col: discharge[0], Coef: invEtaD},
			}, initial)
		}
	}
}

// addEnergyBalance emits the supply-equals-demand equality for every bus and
// timestep. These rows tie all devices together; a missing contribution here
// means the builder mis-wired a device.
func addEnergyBalance(prog *lp.Program, net *network.Network, balance balanceTerms) {
	for _, c := range network.Carriers() {
		bus, ok := net.Buses[c]
		if !ok {
			continue
		}
		for t := 0; t < net.Horizon; t++ {
			prog.AddEquality(fmt.Sprintf("balance.%s[%d]", c, t), balance[c][t], bus.Load(t))
		}
	}
}
