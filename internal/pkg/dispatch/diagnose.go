package dispatch

import (
	"fmt"

	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
)

// Shortfall identifies a bus and timestep where demand exceeds the maximum
// deliverable supply, independent of any dispatch decision.
type Shortfall struct {
	Carrier  network.Carrier `json:"Carrier"`
	Step     int             `json:"Step"`
	Load     float64         `json:"Load"`
	Capacity float64         `json:"Capacity"`
}

func (s *Shortfall) Error() string {
	return fmt.Sprintf("infeasible: %s bus at step %d: load %.3f exceeds deliverable capacity %.3f",
		s.Carrier, s.Step, s.Load, s.Capacity)
}

// Diagnose scans each bus and timestep for a static capacity shortfall after
// an infeasible solve. The bound ignores cross-carrier supply limits, so a
// nil result does not prove feasibility; a non-nil result pinpoints a bus
// balance that can never hold.
func Diagnose(net *network.Network, scn scenario.Scenario) *Shortfall {
	const tolerance = 1e-6

	for _, c := range network.Carriers() {
		bus, ok := net.Buses[c]
		if !ok {
			continue
		}
		for t := 0; t < net.Horizon; t++ {
			load := bus.Load(t)
			if load <= 0 {
				continue
			}

			deliverable := 0.0
			for _, g := range net.Generators {
				if g.Bus == bus {
					deliverable += g.MaxOutput(t)
				}
			}
			for _, s := range net.Storages {
				if s.Bus == bus {
					deliverable += s.Spec.Capacity
				}
			}
			for _, l := range net.Links {
				for _, out := range l.Outputs {
					if out.Bus != bus {
						continue
					}
					deliverable += l.Spec.Capacity * out.Efficiency
					if l.DualMode() {
						// one mode at a time: credit a single output
						break
					}
				}
			}

			if load > deliverable+tolerance {
				return &Shortfall{Carrier: c, Step: t, Load: load, Capacity: deliverable}
			}
		}
	}
	return nil
}
