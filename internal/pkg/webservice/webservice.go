package webservice

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/network"
	"github.com/iesplan/ies_core/internal/pkg/root"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
	"github.com/iesplan/ies_core/internal/pkg/tariff"
)

// SolveRequest is the JSON body for a solve call: device selection,
// scenario series, and the requested formulation mode.
type SolveRequest struct {
	Devices  []catalog.Request `json:"Devices"`
	Scenario scenario.Scenario `json:"Scenario"`
	Mode     string            `json:"Mode"`
}

// ErrorResponse carries structured failure information to the UI.
type ErrorResponse struct {
	Kind      string              `json:"Kind"`
	Message   string              `json:"Message"`
	Shortfall *dispatch.Shortfall `json:"Shortfall,omitempty"`
}

// Service exposes the planning system over HTTP. Completed solutions are
// retained in memory for later retrieval by PID.
type Service struct {
	system *root.System

	mux       *sync.Mutex
	solutions map[uuid.UUID]dispatch.Solution
}

// NewService wraps a System for HTTP access.
func NewService(system *root.System) *Service {
	return &Service{
		system:    system,
		mux:       &sync.Mutex{},
		solutions: make(map[uuid.UUID]dispatch.Solution),
	}
}

// MakeRouter assembles the service's route table.
func MakeRouter(s *Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/catalog", s.CatalogHandler).Methods("GET")
	r.HandleFunc("/solve", s.SolveHandler).Methods("POST")
	r.HandleFunc("/solve/{pid}", s.SolutionHandler).Methods("GET")
	return r
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("[Webservice] encode:", err)
	}
}

// CatalogHandler lists the registered device archetypes.
func (s *Service) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.system.Catalog().Types())
}

// SolveHandler runs one dispatch optimization. Input faults map to 400,
// infeasible topologies to 422, solver faults to 502.
func (s *Service) SolveHandler(w http.ResponseWriter, r *http.Request) {
	req := SolveRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "malformed_json", Message: err.Error()})
		return
	}

	mode, err := dispatch.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "configuration", Message: err.Error()})
		return
	}

	sol, err := s.system.Solve(req.Devices, req.Scenario, mode)
	if err != nil {
		writeJSON(w, statusCode(err), errorResponse(err))
		return
	}

	s.mux.Lock()
	s.solutions[sol.PID] = sol
	s.mux.Unlock()

	writeJSON(w, http.StatusOK, sol)
}

// SolutionHandler returns a previously completed solution by PID.
func (s *Service) SolutionHandler(w http.ResponseWriter, r *http.Request) {
	pid, err := uuid.Parse(mux.Vars(r)["pid"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "configuration", Message: "malformed pid"})
		return
	}

	s.mux.Lock()
	sol, ok := s.solutions[pid]
	s.mux.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Kind: "not_found", Message: "no solution for pid"})
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

func statusCode(err error) int {
	switch err.(type) {
	case *network.ConfigurationError, *tariff.TariffConfigError, *scenario.ScenarioError:
		return http.StatusBadRequest
	case *dispatch.Infeasibility:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func errorResponse(err error) ErrorResponse {
	switch e := err.(type) {
	case *network.ConfigurationError:
		return ErrorResponse{Kind: "configuration", Message: e.Error()}
	case *tariff.TariffConfigError:
		return ErrorResponse{Kind: "tariff_config", Message: e.Error()}
	case *scenario.ScenarioError:
		return ErrorResponse{Kind: "scenario", Message: e.Error()}
	case *dispatch.Infeasibility:
		return ErrorResponse{Kind: "infeasible", Message: e.Error(), Shortfall: e.Shortfall}
	default:
		return ErrorResponse{Kind: "solver", Message: err.Error()}
	}
}
