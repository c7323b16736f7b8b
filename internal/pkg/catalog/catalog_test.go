package catalog

import (
	"math"
	"testing"

	"github.com/iesplan/ies_core/internal/pkg/network"
	"gotest.tools/assert"
)

func TestDefaultTypes(t *testing.T) {
	c := Default()
	for _, name := range []string{
		"grid", "pv", "electric_boiler", "ashp", "gshp_shallow",
		"gshp_deep", "electrolyzer", "fuel_cell", "battery", "h2_storage",
	} {
		_, ok := c.Spec(name)
		assert.Assert(t, ok, "missing archetype %s", name)
	}
}

func TestGridArchetype(t *testing.T) {
	c := Default()
	spec, ok := c.Spec("grid")
	assert.Assert(t, ok)
	assert.Assert(t, math.IsInf(spec.Capacity, 1))
	assert.Assert(t, spec.TariffPriced)
	assert.Assert(t, spec.AllowExport)
}

func TestResolveDefaults(t *testing.T) {
	c := Default()
	spec, err := c.Resolve(Request{Type: "battery"})
	assert.NilError(t, err)
	assert.Equal(t, "battery", spec.Name)
	assert.Equal(t, 30.0, spec.Capacity)
	assert.Equal(t, 4.0, spec.Hours)
	assert.Equal(t, 0.9, spec.ChargeEfficiency)
}

func TestResolveOverrides(t *testing.T) {
	c := Default()
	spec, err := c.Resolve(Request{
		Type:     "battery",
		Name:     "battery_a",
		Capacity: 100,
		Hours:    2,
		Cost:     0.02,
	})
	assert.NilError(t, err)
	assert.Equal(t, "battery_a", spec.Name)
	assert.Equal(t, 100.0, spec.Capacity)
	assert.Equal(t, 2.0, spec.Hours)
	assert.Equal(t, 0.02, spec.Cost)
}

func TestResolveLinkEfficiency(t *testing.T) {
	c := Default()
	spec, err := c.Resolve(Request{Type: "ashp", Efficiency: 3.2, Efficiency2: 3.8})
	assert.NilError(t, err)
	assert.Equal(t, 3.2, spec.Outputs[0].Efficiency)
	assert.Equal(t, 3.8, spec.Outputs[1].Efficiency)

	// archetype template must stay untouched
	base, _ := c.Spec("ashp")
	assert.Equal(t, 3.0, base.Outputs[0].Efficiency)
	assert.Equal(t, 3.5, base.Outputs[1].Efficiency)
}

func TestResolveStorageEfficiency(t *testing.T) {
	c := Default()
	spec, err := c.Resolve(Request{Type: "h2_storage", Efficiency: 0.95})
	assert.NilError(t, err)
	assert.Equal(t, 0.95, spec.ChargeEfficiency)
	assert.Equal(t, 0.95, spec.DischargeEfficiency)
}

func TestResolveUnknownType(t *testing.T) {
	c := Default()
	_, err := c.Resolve(Request{Type: "flux_capacitor"})
	cfgErr, ok := err.(*network.ConfigurationError)
	assert.Assert(t, ok)
	assert.Equal(t, "flux_capacitor", cfgErr.Device)
}

func TestResolveRejectsBadOverride(t *testing.T) {
	c := Default()
	_, err := c.Resolve(Request{Type: "battery", Capacity: -5})
	_, ok := err.(*network.ConfigurationError)
	assert.Assert(t, ok)

	_, err = c.Resolve(Request{Type: "electrolyzer", Efficiency: 1.3})
	assert.Assert(t, err != nil)
}

func TestTypesSorted(t *testing.T) {
	c := Default()
	names := c.Types()
	assert.Equal(t, 10, len(names))
	for i := 1; i < len(names); i++ {
		assert.Assert(t, names[i-1] < names[i])
	}
}
