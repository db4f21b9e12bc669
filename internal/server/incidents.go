package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/argusmon/argus/internal/monitor"
)

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents := s.manager.Store.Incidents()

	if r.URL.Query().Get("ongoing") == "true" {
		ongoing := make([]monitor.Incident, 0, len(incidents))
		for _, in := range incidents {
			if in.Ongoing() {
				ongoing = append(ongoing, in)
			}
		}
		incidents = ongoing
	}

	writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	in, err := s.manager.Store.GetIncident(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleResolveIncident(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := s.manager.Store.ResolveIncident(id, req.Reason); err != nil {
		writeFailure(w, err)
		return
	}

	in, err := s.manager.Store.GetIncident(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleAddIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.manager.Store.AddIncidentUpdate(id, req.Message); err != nil {
		writeFailure(w, err)
		return
	}

	in, err := s.manager.Store.GetIncident(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("open") == "true" {
		writeJSON(w, http.StatusOK, s.manager.Store.OpenAlerts())
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Store.Alerts())
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	al, err := s.manager.Store.GetAlert(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Store.AcknowledgeAlert(id); err != nil {
		writeFailure(w, err)
		return
	}

	al, err := s.manager.Store.GetAlert(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Store.ResolveAlert(id); err != nil {
		writeFailure(w, err)
		return
	}

	al, err := s.manager.Store.GetAlert(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}
