/*
Package dispatch owns the solve pipeline: resolve device requests against
the catalog, build the network, formulate the optimization problem, invoke
the solver, and extract the dispatch schedule. Each run is stateless with
respect to prior runs, so concurrent solves need no locking as long as each
uses its own Network and Program.
*/
package dispatch

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
	"github.com/iesplan/ies_core/internal/pkg/solver"
)

// Infeasibility wraps the solver's infeasible verdict with the diagnostic
// needed to render it: the first bus balance that can never hold, when one
// is determinable.
type Infeasibility struct {
	Failure   *solver.SolveFailure
	Shortfall *Shortfall
}

func (e *Infeasibility) Error() string {
	if e.Shortfall != nil {
		return e.Shortfall.Error()
	}
	return e.Failure.Error()
}

// Dispatcher runs solve requests against a fixed catalog.
type Dispatcher struct {
	pid     uuid.UUID
	catalog catalog.Catalog
	timeout time.Duration
}

// New returns a configured Dispatcher. A non-positive timeout disables the
// solve deadline.
func New(cat catalog.Catalog, timeout time.Duration) (Dispatcher, error) {
	pid, err := uuid.NewUUID()
	return Dispatcher{pid: pid, catalog: cat, timeout: timeout}, err
}

// PID is a getter for the dispatcher PID.
func (d Dispatcher) PID() uuid.UUID {
	return d.pid
}

// Catalog returns the archetype registry backing this dispatcher.
func (d Dispatcher) Catalog() catalog.Catalog {
	return d.catalog
}

// Run executes one synchronous solve: build, constrain, formulate, solve,
// extract. Errors are typed and deterministic for the given input; nothing
// is retried.
func (d Dispatcher) Run(reqs []catalog.Request, scn scenario.Scenario, mode Mode) (Solution, error) {
	if err := scn.Validate(); err != nil {
		return Solution{}, err
	}

	specs := make([]network.DeviceSpec, 0, len(reqs))
	for _, req := range reqs {
		spec, err := d.catalog.Resolve(req)
		if err != nil {
			return Solution{}, err
		}
		specs = append(specs, spec)
	}

	net, err := network.Build(specs, scn)
	if err != nil {
		return Solution{}, err
	}

	prog, idx, err := Formulate(net, scn, mode)
	if err != nil {
		return Solution{}, err
	}
	log.Printf("[Dispatch] Formulated %s: %d variables, %d constraints",
		formClass(idx), prog.NumVariables(), prog.NumConstraints())

	raw, err := solver.Solve(prog, d.timeout)
	if err != nil {
		if failure, ok := err.(*solver.SolveFailure); ok && failure.Kind == solver.Infeasible {
			return Solution{}, &Infeasibility{
				Failure:   failure,
				Shortfall: Diagnose(net, scn),
			}
		}
		return Solution{}, err
	}

	return Extract(net, scn, idx, raw), nil
}

func formClass(idx *VarIndex) string {
	if idx.MixedInteger {
		return "MILP"
	}
	return "LP"
}
