package dispatch

import (
	"testing"

	"github.com/iesplan/ies_core/internal/pkg/lp"
	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
	"github.com/iesplan/ies_core/internal/pkg/tariff"
	"gotest.tools/v3/assert"
)

func validated(t *testing.T, scn scenario.Scenario) scenario.Scenario {
	t.Helper()
	assert.NilError(t, scn.Validate())
	return scn
}

func gridSpec() network.DeviceSpec {
	return network.DeviceSpec{
		Type: "grid", Name: "grid", Kind: network.KindGenerator,
		Carrier: network.Electricity, Capacity: 1000,
		TariffPriced: true, AllowExport: true,
	}
}

func batterySpec() network.DeviceSpec {
	return network.DeviceSpec{
		Type: "battery", Name: "battery", Kind: network.KindStorage,
		Carrier: network.Electricity, Capacity: 30, Hours: 4,
		ChargeEfficiency: 0.9, DischargeEfficiency: 0.9,
		Cyclic: true, Cost: 0.01,
	}
}

func ashpSpec() network.DeviceSpec {
	return network.DeviceSpec{
		Type: "ashp", Name: "ashp", Kind: network.KindLink,
		Input: network.Electricity, Capacity: 40, DualMode: true,
		Outputs: []network.OutputSpec{
			{Carrier: network.Heat, Efficiency: 3.0},
			{Carrier: network.Cooling, Efficiency: 3.5},
		},
	}
}

func flatLoad(hours int, load float64) []float64 {
	s := make([]float64, hours)
	for i := range s {
		s[i] = load
	}
	return s
}

func TestFormulateGridOnly(t *testing.T) {
	scn := validated(t, scenario.Scenario{
		Hours:          24,
		ElectricalLoad: flatLoad(24, 10),
		TOUBands: []tariff.Band{
			{Start: 0, End: 8, Buy: 0.5},
			{Start: 8, End: 24, Buy: 1.5},
		},
	})
	net, err := network.Build([]network.DeviceSpec{gridSpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	// 24 import and 24 export columns, one balance row per step
	assert.Equal(t, 48, prog.NumVariables())
	assert.Equal(t, 24, prog.NumConstraints())
	assert.Assert(t, !idx.MixedInteger)
	assert.Assert(t, !prog.IsMixedInteger())

	// tariff prices land in the objective coefficients
	costs := prog.CostCoefficients()
	assert.Equal(t, 0.5, costs[idx.Gen["grid"][0]])
	assert.Equal(t, 0.5, costs[idx.Gen["grid"][7]])
	assert.Equal(t, 1.5, costs[idx.Gen["grid"][8]])
	assert.Equal(t, 1.5, costs[idx.Gen["grid"][23]])
}

func TestFormulateExportPricedAtSellRate(t *testing.T) {
	scn := validated(t, scenario.Scenario{
		Hours:          2,
		ElectricalLoad: flatLoad(2, 1),
		TOUBands:       []tariff.Band{{Start: 0, End: 24, Buy: 1.0, Sell: 0.3}},
	})
	net, err := network.Build([]network.DeviceSpec{gridSpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	costs := prog.CostCoefficients()
	assert.Equal(t, -0.3, costs[idx.Export["grid"][0]])
}

func TestFormulateStorageRows(t *testing.T) {
	scn := validated(t, scenario.Scenario{Hours: 4, ElectricalLoad: flatLoad(4, 10)})
	net, err := network.Build([]network.DeviceSpec{gridSpec(), batterySpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	// grid: 2*4, battery: charge+discharge+soc per step
	assert.Equal(t, 8+12, prog.NumVariables())
	// 4 balance rows plus 4 continuity rows (cyclic closes the chain)
	assert.Equal(t, 8, prog.NumConstraints())
	assert.Equal(t, 4, len(idx.SOC["battery"]))

	// soc bounded by energy capacity
	bounds := prog.Bounds()
	assert.Equal(t, 120.0, bounds[idx.SOC["battery"][0]][1])
	assert.Equal(t, 30.0, bounds[idx.Charge["battery"][0]][1])
}

func TestFormulateModeSelection(t *testing.T) {
	scn := validated(t, scenario.Scenario{
		Hours:          2,
		ElectricalLoad: flatLoad(2, 1),
		HeatLoad:       []float64{3, 0},
		CoolingLoad:    []float64{0, 3},
	})
	specs := []network.DeviceSpec{gridSpec(), ashpSpec()}

	net, err := network.Build(specs, scn)
	assert.NilError(t, err)

	// a dual-mode link forces a MILP under Auto
	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)
	assert.Assert(t, idx.MixedInteger)
	assert.Assert(t, prog.IsMixedInteger())

	// forced LP relaxes the indicators to continuous [0,1]
	prog, idx, err = Formulate(net, scn, LP)
	assert.NilError(t, err)
	assert.Assert(t, !idx.MixedInteger)
	assert.Equal(t, 0, len(prog.Integrality()))

	// per step: excl, hgate, cgate, share, plus three balance rows
	assert.Equal(t, 2*(4+3), prog.NumConstraints())
}

func TestFormulateMILPWithoutDualModeStaysLP(t *testing.T) {
	scn := validated(t, scenario.Scenario{Hours: 2, ElectricalLoad: flatLoad(2, 1)})
	net, err := network.Build([]network.DeviceSpec{gridSpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, MILP)
	assert.NilError(t, err)
	assert.Assert(t, !idx.MixedInteger)
	assert.Assert(t, !prog.IsMixedInteger())
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"": Auto, "auto": Auto, "lp": LP, "milp": MILP} {
		m, err := ParseMode(s)
		assert.NilError(t, err)
		assert.Equal(t, want, m)
	}
	_, err := ParseMode("quadratic")
	assert.ErrorContains(t, err, "unknown solve mode")
}

func boilerSpec() network.DeviceSpec {
	return network.DeviceSpec{
		Type: "electric_boiler", Name: "boiler", Kind: network.KindLink,
		Input: network.Electricity, Capacity: 20,
		Outputs: []network.OutputSpec{{Carrier: network.Heat, Efficiency: 0.98}},
	}
}

func fuelCellSpec() network.DeviceSpec {
	return network.DeviceSpec{
		Type: "fuel_cell", Name: "fuel_cell", Kind: network.KindLink,
		Input: network.Hydrogen, Capacity: 50,
		Outputs: []network.OutputSpec{
			{Carrier: network.Electricity, Efficiency: 0.45},
			{Carrier: network.Heat, Efficiency: 0.40},
		},
	}
}

func rowByName(t *testing.T, prog *lp.Program, name string) []float64 {
	t.Helper()
	for i := 0; i < prog.NumConstraints(); i++ {
		if prog.ConstraintName(i) == name {
			return prog.Constraints()[i]
		}
	}
	t.Fatalf("no constraint %s", name)
	return nil
}

// coefficient of a column in a dense [lower, coefs..., upper] row
func coef(row []float64, col int) float64 {
	return row[col+1]
}

func TestFormulateSingleOutputLink(t *testing.T) {
	scn := validated(t, scenario.Scenario{
		Hours:          2,
		ElectricalLoad: flatLoad(2, 1),
		HeatLoad:       flatLoad(2, 2),
	})
	net, err := network.Build([]network.DeviceSpec{gridSpec(), boilerSpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	// grid import/export plus one boiler column per step, no indicators
	assert.Equal(t, 6, prog.NumVariables())
	assert.Equal(t, 4, prog.NumConstraints())
	assert.Assert(t, !prog.IsMixedInteger())

	col := idx.LinkIn["boiler"][0]
	bounds := prog.Bounds()
	assert.Equal(t, 20.0, bounds[col][1])

	// the boiler draws from the electric bus and delivers scaled heat
	elec := rowByName(t, prog, "balance.electricity[0]")
	heat := rowByName(t, prog, "balance.heat[0]")
	assert.Equal(t, -1.0, coef(elec, col))
	assert.Equal(t, 0.98, coef(heat, col))
	assert.Equal(t, 1.0, elec[0])
	assert.Equal(t, 1.0, elec[len(elec)-1])
	assert.Equal(t, 2.0, heat[0])
	assert.Equal(t, 2.0, heat[len(heat)-1])
}

func TestFormulateFuelCellBalance(t *testing.T) {
	scn := validated(t, scenario.Scenario{Hours: 1, ElectricalLoad: []float64{1}})
	net, err := network.Build([]network.DeviceSpec{gridSpec(), fuelCellSpec()}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	// both outputs convert simultaneously from the one input column
	col := idx.LinkIn["fuel_cell"][0]
	assert.Equal(t, -1.0, coef(rowByName(t, prog, "balance.hydrogen[0]"), col))
	assert.Equal(t, 0.45, coef(rowByName(t, prog, "balance.electricity[0]"), col))
	assert.Equal(t, 0.40, coef(rowByName(t, prog, "balance.heat[0]"), col))

	hydrogen := rowByName(t, prog, "balance.hydrogen[0]")
	assert.Equal(t, 0.0, hydrogen[0])
	assert.Equal(t, 0.0, hydrogen[len(hydrogen)-1])
}

func TestFormulateSelfDischarge(t *testing.T) {
	spec := batterySpec()
	spec.SelfDischarge = 0.2

	scn := validated(t, scenario.Scenario{Hours: 3, ElectricalLoad: flatLoad(3, 10)})
	net, err := network.Build([]network.DeviceSpec{gridSpec(), spec}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	soc := idx.SOC["battery"]
	charge := idx.Charge["battery"]
	discharge := idx.Discharge["battery"]

	// soc[1] = 0.8*soc[0] + 0.9*c[1] - d[1]/0.9
	row := rowByName(t, prog, "battery.cont[1]")
	assert.Equal(t, 1.0, coef(row, soc[1]))
	assert.Equal(t, -0.8, coef(row, soc[0]))
	assert.Equal(t, -0.9, coef(row, charge[1]))
	assert.Equal(t, 1/0.9, coef(row, discharge[1]))

	// cyclic closure carries the same retention factor
	wrap := rowByName(t, prog, "battery.cont[0]")
	assert.Equal(t, -0.8, coef(wrap, soc[2]))
}

func TestFormulateFixedInitialBoundary(t *testing.T) {
	spec := batterySpec()
	spec.Cyclic = false
	spec.InitialSOC = 0.5
	spec.SelfDischarge = 0.1

	scn := validated(t, scenario.Scenario{Hours: 2, ElectricalLoad: flatLoad(2, 10)})
	net, err := network.Build([]network.DeviceSpec{gridSpec(), spec}, scn)
	assert.NilError(t, err)

	prog, idx, err := Formulate(net, scn, Auto)
	assert.NilError(t, err)

	soc := idx.SOC["battery"]
	charge := idx.Charge["battery"]
	discharge := idx.Discharge["battery"]

	// soc[0] anchors on the retained initial fill instead of wrapping
	row := rowByName(t, prog, "battery.cont[0]")
	assert.Equal(t, 0.9*0.5*120, row[0])
	assert.Equal(t, 0.9*0.5*120, row[len(row)-1])
	assert.Equal(t, 1.0, coef(row, soc[0]))
	assert.Equal(t, 0.0, coef(row, soc[1]))
	assert.Equal(t, -0.9, coef(row, charge[0]))
	assert.Equal(t, 1/0.9, coef(row, discharge[0]))
}
