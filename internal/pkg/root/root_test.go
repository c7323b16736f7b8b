package root

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/msg"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
	"github.com/iesplan/ies_core/internal/pkg/tariff"
	"gotest.tools/v3/assert"
)

func newSystem(t *testing.T) System {
	t.Helper()
	d, err := dispatch.New(catalog.Default(), 0)
	assert.NilError(t, err)
	sys, err := NewSystem(d)
	assert.NilError(t, err)
	return sys
}

func flatScenario(t *testing.T, hours int, load float64) scenario.Scenario {
	t.Helper()
	series := make([]float64, hours)
	for i := range series {
		series[i] = load
	}
	scn := scenario.Scenario{
		Hours:          hours,
		ElectricalLoad: series,
		TOUBands:       []tariff.Band{{Start: 0, End: 24, Buy: 1.0}},
	}
	assert.NilError(t, scn.Validate())
	return scn
}

func TestSolvePublishesSolution(t *testing.T) {
	sys := newSystem(t)
	defer sys.Stop()

	sinkPID, _ := uuid.NewUUID()
	ch, err := sys.Subscribe(sinkPID, msg.Solution)
	assert.NilError(t, err)

	sol, err := sys.Solve([]catalog.Request{{Type: "grid"}}, flatScenario(t, 2, 10), dispatch.Auto)
	assert.NilError(t, err)
	assert.Assert(t, math.Abs(sol.Objective-20) < 1e-6)

	m := <-ch
	published, ok := m.Payload().(dispatch.Solution)
	assert.Assert(t, ok)
	assert.Equal(t, sol.PID, published.PID)
	assert.Equal(t, sol.Objective, published.Objective)
}

func TestSolveErrorNotPublished(t *testing.T) {
	sys := newSystem(t)
	defer sys.Stop()

	sinkPID, _ := uuid.NewUUID()
	ch, err := sys.Subscribe(sinkPID, msg.Solution)
	assert.NilError(t, err)

	_, err = sys.Solve([]catalog.Request{{Type: "warp_core"}}, flatScenario(t, 1, 1), dispatch.Auto)
	assert.Assert(t, err != nil)

	select {
	case <-ch:
		t.Fatal("failed solve published a solution")
	default:
	}
}

func TestCatalogAccessor(t *testing.T) {
	sys := newSystem(t)
	defer sys.Stop()
	_, ok := sys.Catalog().Spec("battery")
	assert.Assert(t, ok)
}

func TestPublishConfig(t *testing.T) {
	sys := newSystem(t)
	defer sys.Stop()

	sinkPID, _ := uuid.NewUUID()
	ch, err := sys.Subscribe(sinkPID, msg.Config)
	assert.NilError(t, err)

	sys.PublishConfig()

	m := <-ch
	types, ok := m.Payload().([]string)
	assert.Assert(t, ok)
	assert.Assert(t, len(types) > 0)
}
