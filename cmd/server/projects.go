package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/readymix/internal/estimate"
	"github.com/Simplici0/readymix/internal/store"
)

type projectRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type projectDetailResponse struct {
	Project      store.Project         `json:"project"`
	Calculations []calculationResponse `json:"calculations"`
}

type calculationResponse struct {
	store.Calculation
	Formatted estimate.Formatted `json:"formatted"`
}

func newCalculationResponse(c store.Calculation) calculationResponse {
	return calculationResponse{Calculation: c, Formatted: estimate.Format(c.Pricing)}
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	project, err := s.store.CreateProject(r.Context(), req.Name, req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	calculations, err := s.store.ListCalculations(r.Context(), projectID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := projectDetailResponse{
		Project:      project,
		Calculations: make([]calculationResponse, 0, len(calculations)),
	}
	for _, c := range calculations {
		resp.Calculations = append(resp.Calculations, newCalculationResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCreateCalculation(w http.ResponseWriter, r *http.Request) {
	params, ok := s.calculationParams(w, r)
	if !ok {
		return
	}

	calc, err := s.store.CreateCalculation(r.Context(), chi.URLParam(r, "projectID"), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCalculationResponse(calc))
}

func (s *server) handleUpdateCalculation(w http.ResponseWriter, r *http.Request) {
	params, ok := s.calculationParams(w, r)
	if !ok {
		return
	}

	calc, err := s.store.UpdateCalculation(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "calcID"), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(calc))
}

// calculationParams prices the request body and writes the error response
// itself when that fails.
func (s *server) calculationParams(w http.ResponseWriter, r *http.Request) (store.CalculationParams, bool) {
	var req estimateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return store.CalculationParams{}, false
	}

	est, err := s.buildEstimate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return store.CalculationParams{}, false
	}

	params := store.CalculationParams{
		Label:   req.Label,
		Input:   est.Input,
		Pricing: est.Pricing,
	}
	if est.Supplier != nil {
		params.SupplierID = est.Supplier.ID
	}
	return params, true
}
