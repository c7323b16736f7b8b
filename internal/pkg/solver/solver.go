/*
Package solver invokes the external HiGHS solver on an assembled program and
classifies the outcome. Failures are deterministic for a given program, so
nothing is retried here; the caller adjusts configuration and re-requests.
*/
package solver

import (
	"fmt"
	"time"

	"github.com/iesplan/ies_core/internal/pkg/lp"
	"github.com/ohowland/highs"
)

// FailureKind partitions solve failures by required caller action.
type FailureKind int

const (
	// Infeasible: no dispatch satisfies the constraints. The caller must
	// raise capacities or lower demand.
	Infeasible FailureKind = iota
	// Unbounded: the objective can decrease without limit. With well-formed
	// costs this signals a modeling bug.
	Unbounded
	// SolverError: the external solver failed or timed out.
	SolverError
)

func (k FailureKind) String() string {
	switch k {
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	default:
		return "solver error"
	}
}

// SolveFailure is the typed result for an unsuccessful solve.
type SolveFailure struct {
	Kind   FailureKind
	Reason string
}

func (e *SolveFailure) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("solve failed: %s", e.Kind)
	}
	return fmt.Sprintf("solve failed: %s: %s", e.Kind, e.Reason)
}

// Raw is the primal solution as returned by the solver.
type Raw struct {
	Columns   []float64
	Objective float64
}

type outcome struct {
	raw Raw
	err error
}

// Solve runs HiGHS on the program. A non-positive timeout solves without a
// deadline. On timeout the in-flight solver result is discarded and the
// caller receives SolverError; no partial solution is exposed.
func Solve(prog *lp.Program, timeout time.Duration) (Raw, error) {
	done := make(chan outcome, 1)
	go func() {
		done <- run(prog)
	}()

	if timeout <= 0 {
		o := <-done
		return o.raw, o.err
	}

	select {
	case o := <-done:
		return o.raw, o.err
	case <-time.After(timeout):
		return Raw{}, &SolveFailure{Kind: SolverError, Reason: "timeout"}
	}
}

func run(prog *lp.Program) outcome {
	s, err := highs.New(
		prog.CostCoefficients(),
		prog.Bounds(),
		prog.Constraints(),
		prog.Integrality())
	if err != nil {
		return outcome{err: &SolveFailure{Kind: SolverError, Reason: err.Error()}}
	}

	s.SetObjectiveSense(highs.Minimize)
	if err := s.RunSolver(); err != nil {
		return outcome{err: &SolveFailure{Kind: SolverError, Reason: err.Error()}}
	}

	switch status := s.ModelStatus(); status {
	case highs.ModelStatusOptimal:
		columns := s.PrimalColumnSolution()
		return outcome{raw: Raw{
			Columns:   columns,
			Objective: prog.Objective(columns),
		}}
	case highs.ModelStatusInfeasible, highs.ModelStatusUnboundedOrInfeasible:
		return outcome{err: &SolveFailure{Kind: Infeasible}}
	case highs.ModelStatusUnbounded:
		return outcome{err: &SolveFailure{Kind: Unbounded}}
	case highs.ModelStatusTimeLimit:
		return outcome{err: &SolveFailure{Kind: SolverError, Reason: "solver time limit"}}
	default:
		return outcome{err: &SolveFailure{Kind: SolverError, Reason: fmt.Sprintf("status %v", status)}}
	}
}
