package webservice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/root"
	"gotest.tools/v3/assert"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	d, err := dispatch.New(catalog.Default(), 0)
	assert.NilError(t, err)
	sys, err := root.NewSystem(d)
	assert.NilError(t, err)
	srv := httptest.NewServer(MakeRouter(NewService(&sys)))
	t.Cleanup(func() {
		srv.Close()
		sys.Stop()
	})
	return srv
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/catalog")
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	types := []string{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&types))

	found := false
	for _, name := range types {
		if name == "grid" {
			found = true
		}
	}
	assert.Assert(t, found)
}

func TestSolveEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"Devices": [{"Type": "grid"}],
		"Scenario": {
			"Hours": 2,
			"ElectricalLoad": [10, 10],
			"TOUBands": [{"Start": 0, "End": 24, "Buy": 1.0}]
		}
	}`
	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString(body))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sol := dispatch.Solution{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&sol))
	assert.Equal(t, 2, sol.Horizon)
	assert.Equal(t, 20.0, sol.Cost.Total)
}

func TestSolveMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString("{nope"))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := ErrorResponse{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "malformed_json", e.Kind)
}

func TestSolveUnknownDevice(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"Devices": [{"Type": "warp_core"}],
		"Scenario": {"Hours": 1, "ElectricalLoad": [1]}
	}`
	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString(body))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := ErrorResponse{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "configuration", e.Kind)
}

func TestSolveUnknownMode(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"Devices": [{"Type": "grid"}],
		"Scenario": {"Hours": 1, "ElectricalLoad": [1]},
		"Mode": "quadratic"
	}`
	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString(body))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSolveInfeasible(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"Devices": [{"Type": "pv", "Capacity": 10}],
		"Scenario": {
			"Hours": 1,
			"ElectricalLoad": [100],
			"PVAvailability": [1]
		}
	}`
	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString(body))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	e := ErrorResponse{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "infeasible", e.Kind)
	assert.Assert(t, e.Shortfall != nil)
	assert.Equal(t, 0, e.Shortfall.Step)
}

func TestSolutionRetrieval(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"Devices": [{"Type": "grid"}],
		"Scenario": {
			"Hours": 2,
			"ElectricalLoad": [10, 10],
			"TOUBands": [{"Start": 0, "End": 24, "Buy": 1.0}]
		}
	}`
	resp, err := http.Post(srv.URL+"/solve", "application/json", bytes.NewBufferString(body))
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sol := dispatch.Solution{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&sol))

	resp, err = http.Get(srv.URL + "/solve/" + sol.PID.String())
	assert.NilError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored := dispatch.Solution{}
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&stored))
	assert.Equal(t, sol.PID, stored.PID)
	assert.Equal(t, sol.Cost.Total, stored.Cost.Total)
}

func TestSolutionNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/solve/bad-pid")
	assert.NilError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/solve/00000000-0000-0000-0000-000000000000")
	assert.NilError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
