package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/notify"
	"github.com/argusmon/argus/internal/report"
)

type endpointOverview struct {
	Endpoint monitor.Endpoint `json:"endpoint"`
	Status   monitor.Status   `json:"status"`
}

type statusOverview struct {
	Endpoints        []endpointOverview   `json:"endpoints"`
	Network          notify.NetworkStatus `json:"network"`
	OngoingIncidents int                  `json:"ongoing_incidents"`
	OpenAlerts       int                  `json:"open_alerts"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	endpoints := s.manager.Store.Endpoints()

	overview := statusOverview{
		Endpoints:  make([]endpointOverview, 0, len(endpoints)),
		Network:    s.manager.Self.Status(),
		OpenAlerts: len(s.manager.Store.OpenAlerts()),
	}

	for _, ep := range endpoints {
		st, err := s.manager.Store.GetStatus(ep.ID)
		if err != nil {
			continue
		}
		overview.Endpoints = append(overview.Endpoints, endpointOverview{Endpoint: ep, Status: st})
	}

	for _, in := range s.manager.Store.Incidents() {
		if in.Ongoing() {
			overview.OngoingIncidents++
		}
	}

	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Store.Activity())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Self.Status())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings monitor.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.manager.Store.SetSettings(settings)
	writeJSON(w, http.StatusOK, s.manager.Store.Settings())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	f, err := report.New(s.manager.Store.Snapshot())
	if err != nil {
		writeFailure(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="argus-report.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		s.logger.Warn("failed to stream report", zap.Error(err))
	}
}
