/*
Package network wires a user-selected set of devices onto per-carrier energy
buses. The resulting Network is the read-only input to problem formulation;
it is built once per solve request and discarded after result extraction.
*/
package network

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
)

// Bus is the aggregation point enforcing supply equals demand for one
// carrier at every timestep.
type Bus struct {
	pid     uuid.UUID
	carrier Carrier
	load    []float64
}

// PID is a getter for the bus PID.
func (b *Bus) PID() uuid.UUID {
	return b.pid
}

// Carrier returns the commodity this bus balances.
func (b *Bus) Carrier() Carrier {
	return b.carrier
}

// Load returns the demand on the bus at a timestep. Buses without a demand
// series carry zero load.
func (b *Bus) Load(t int) float64 {
	if b.load == nil || t < 0 || t >= len(b.load) {
		return 0
	}
	return b.load[t]
}

// Generator produces onto a single bus, bounded by capacity and an optional
// availability profile.
type Generator struct {
	pid          uuid.UUID
	Spec         DeviceSpec
	Bus          *Bus
	Availability []float64
}

// PID is a getter for the generator PID.
func (g *Generator) PID() uuid.UUID {
	return g.pid
}

// MaxOutput is the generator's upper dispatch bound at a timestep.
func (g *Generator) MaxOutput(t int) float64 {
	if g.Availability == nil {
		return g.Spec.Capacity
	}
	if t < 0 || t >= len(g.Availability) {
		return 0
	}
	return g.Spec.Capacity * g.Availability[t]
}

// Storage charges and discharges on a single bus with a bounded, recurrent
// state of charge.
type Storage struct {
	pid  uuid.UUID
	Spec DeviceSpec
	Bus  *Bus
}

// PID is a getter for the storage PID.
func (s *Storage) PID() uuid.UUID {
	return s.pid
}

// EnergyCapacity is the storage's maximum state of charge.
func (s *Storage) EnergyCapacity() float64 {
	return s.Spec.Capacity * s.Spec.Hours
}

// Output is one output leg of a wired link.
type Output struct {
	Bus        *Bus
	Efficiency float64
}

// Link converts flow drawn from its input bus onto one or two output buses.
// Dual-mode links gate their outputs with per-timestep mode exclusivity.
type Link struct {
	pid     uuid.UUID
	Spec    DeviceSpec
	Input   *Bus
	Outputs []Output
}

// PID is a getter for the link PID.
func (l *Link) PID() uuid.UUID {
	return l.pid
}

// DualMode reports whether the link's outputs are mutually exclusive modes.
func (l *Link) DualMode() bool {
	return l.Spec.DualMode
}

// Network is the fully wired bus/device topology for one solve request.
type Network struct {
	pid        uuid.UUID
	Horizon    int
	Buses      map[Carrier]*Bus
	Generators []*Generator
	Storages   []*Storage
	Links      []*Link
}

// PID is a getter for the network PID.
func (n *Network) PID() uuid.UUID {
	return n.pid
}

// HasDualModeLinks reports whether any link requires discrete mode
// decisions, which forces the MILP formulation under Auto mode.
func (n *Network) HasDualModeLinks() bool {
	for _, l := range n.Links {
		if l.DualMode() {
			return true
		}
	}
	return false
}

// Build instantiates one bus per carrier referenced by a device or by
// scenario demand, then attaches every device to its declared buses.
// Malformed specs and unconnectable topologies return ConfigurationError.
func Build(specs []DeviceSpec, scn scenario.Scenario) (*Network, error) {
	if scn.Hours <= 0 {
		return nil, configErr("scenario", "Hours", "must be positive")
	}

	seen := make(map[string]bool)
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, configErr(s.Name, "Name", "duplicate device name")
		}
		seen[s.Name] = true
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}

	net := &Network{
		pid:     pid,
		Horizon: scn.Hours,
		Buses:   make(map[Carrier]*Bus),
	}

	loads := map[Carrier][]float64{
		Electricity: scn.ElectricalLoad,
		Heat:        scn.HeatLoad,
		Cooling:     scn.CoolingLoad,
		Hydrogen:    scn.HydrogenLoad,
	}

	addBus := func(c Carrier) (*Bus, error) {
		if b, ok := net.Buses[c]; ok {
			return b, nil
		}
		busPID, err := uuid.NewUUID()
		if err != nil {
			return nil, err
		}
		b := &Bus{pid: busPID, carrier: c, load: loads[c]}
		net.Buses[c] = b
		return b, nil
	}

	for _, c := range Carriers() {
		if loads[c] != nil {
			if _, err := addBus(c); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range specs {
		devicePID, err := uuid.NewUUID()
		if err != nil {
			return nil, err
		}

		switch s.Kind {
		case KindGenerator:
			b, err := addBus(s.Carrier)
			if err != nil {
				return nil, err
			}
			g := &Generator{pid: devicePID, Spec: s, Bus: b}
			if s.UseAvailability {
				if scn.PVAvailability == nil {
					return nil, configErr(s.Name, "PVAvailability", "scenario supplies no availability profile")
				}
				g.Availability = scn.PVAvailability
			}
			net.Generators = append(net.Generators, g)

		case KindStorage:
			b, err := addBus(s.Carrier)
			if err != nil {
				return nil, err
			}
			net.Storages = append(net.Storages, &Storage{pid: devicePID, Spec: s, Bus: b})

		case KindLink:
			in, err := addBus(s.Input)
			if err != nil {
				return nil, err
			}
			l := &Link{pid: devicePID, Spec: s, Input: in}
			for _, out := range s.Outputs {
				b, err := addBus(out.Carrier)
				if err != nil {
					return nil, err
				}
				l.Outputs = append(l.Outputs, Output{Bus: b, Efficiency: out.Efficiency})
			}
			net.Links = append(net.Links, l)
		}
	}

	if err := net.checkSupply(); err != nil {
		return nil, err
	}
	return net, nil
}

// checkSupply rejects topologies where a bus carries demand but no device
// can ever deliver onto it. The solver would report these as infeasible; the
// builder catches the degenerate wiring before formulation.
func (n *Network) checkSupply() error {
	for c, b := range n.Buses {
		demanded := false
		for t := 0; t < n.Horizon; t++ {
			if b.Load(t) > 0 {
				demanded = true
				break
			}
		}
		if !demanded {
			continue
		}

		supplied := false
		for _, g := range n.Generators {
			if g.Bus == b {
				supplied = true
			}
		}
		for _, s := range n.Storages {
			if s.Bus == b {
				supplied = true
			}
		}
		for _, l := range n.Links {
			for _, out := range l.Outputs {
				if out.Bus == b {
					supplied = true
				}
			}
		}
		if !supplied {
			return configErr(fmt.Sprintf("bus %s", c), "", "demand present but no device supplies this carrier")
		}
	}
	return nil
}
