package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/argusmon/argus/internal/monitor"
)

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Store.Endpoints())
}

func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := s.manager.Store.GetEndpoint(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

func (s *Server) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep monitor.Endpoint
	if err := decodeJSON(r, &ep); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.manager.CreateEndpoint(ep)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep monitor.Endpoint
	if err := decodeJSON(r, &ep); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.manager.UpdateEndpoint(chi.URLParam(r, "id"), ep)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteEndpoint(chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
