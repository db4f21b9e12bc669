// Package server exposes the monitoring core over HTTP: a JSON API, a
// websocket event stream and an MCP mount for AI tooling.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/manager"
	"github.com/argusmon/argus/internal/mcp"
	"github.com/argusmon/argus/internal/meta"
	"github.com/argusmon/argus/internal/store"
)

// Server is the HTTP surface of Argus.
type Server struct {
	manager *manager.Manager
	hub     *Hub
	logger  *zap.Logger

	allowedOrigins []string
}

// New builds the server and subscribes its websocket hub to the store's
// event stream. Start the hub with Hub().Run before serving.
func New(m *manager.Manager, allowedOrigins []string, logger *zap.Logger) *Server {
	s := &Server{
		manager:        m,
		hub:            NewHub(allowedOrigins, logger),
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}

	m.Store.OnEvent = append(m.Store.OnEvent, s.hub.Broadcast)

	return s
}

// Hub returns the websocket hub, whose Run loop the caller owns.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		// websocket upgrades go around the gzip wrapper
		r.Get("/events", s.hub.HandleConnect)

		r.Group(func(r chi.Router) {
			r.Use(gziphandler.GzipHandler)

			r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"version": meta.Version, "commit": meta.Commit})
			})

			r.Get("/status", s.handleStatus)
			r.Get("/activity", s.handleActivity)
			r.Get("/network", s.handleNetwork)
			r.Get("/report.xlsx", s.handleReport)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			r.Route("/endpoints", func(r chi.Router) {
				r.Get("/", s.handleListEndpoints)
				r.Post("/", s.handleCreateEndpoint)
				r.Get("/{id}", s.handleGetEndpoint)
				r.Put("/{id}", s.handleUpdateEndpoint)
				r.Delete("/{id}", s.handleDeleteEndpoint)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", s.handleListContacts)
				r.Post("/", s.handleCreateContact)
				r.Get("/{id}", s.handleGetContact)
				r.Put("/{id}", s.handleUpdateContact)
				r.Delete("/{id}", s.handleDeleteContact)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", s.handleListGroups)
				r.Post("/", s.handleCreateGroup)
				r.Get("/{id}", s.handleGetGroup)
				r.Put("/{id}", s.handleUpdateGroup)
				r.Delete("/{id}", s.handleDeleteGroup)
			})

			r.Route("/incidents", func(r chi.Router) {
				r.Get("/", s.handleListIncidents)
				r.Get("/{id}", s.handleGetIncident)
				r.Post("/{id}/resolve", s.handleResolveIncident)
				r.Post("/{id}/updates", s.handleAddIncidentUpdate)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", s.handleListAlerts)
				r.Get("/{id}", s.handleGetAlert)
				r.Post("/{id}/acknowledge", s.handleAcknowledgeAlert)
				r.Post("/{id}/resolve", s.handleResolveAlert)
			})
		})
	})

	r.Mount("/mcp", mcp.Handler("", s.manager.Store))

	return r
}

// handleHealthz reports the state of the pieces that can break at runtime,
// which today is the persistence writer.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	if s.manager.Healthy() {
		fmt.Fprintln(w, "HEALTHY")
	} else {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, "FAILURE")
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeFailure maps core errors onto status codes: unknown ids are 404,
// rejected definitions are 400, everything else is a 500.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownEndpoint),
		errors.Is(err, store.ErrUnknownIncident),
		errors.Is(err, store.ErrUnknownAlert),
		errors.Is(err, store.ErrUnknownContact),
		errors.Is(err, store.ErrUnknownGroup):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, argerr.ErrConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
