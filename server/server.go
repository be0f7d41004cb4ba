// Package server exposes the coordinator over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	coordinatorx "github.com/kritsada/procure-agent/agent/coordinator"
)

type Handler struct {
	coordinator *coordinatorx.Coordinator
}

func New(coordinator *coordinatorx.Coordinator) (*Handler, error) {
	if coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	return &Handler{coordinator: coordinator}, nil
}

// Router wires HTTP routes to the coordinator.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/sessions", h.handleCreateSession)
		api.Post("/sessions/{sessionID}/messages", h.handleMessage)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	respondJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.coordinator.HandleMessage(r.Context(), sessionID, payload.Text)
	if err != nil {
		switch {
		case errors.Is(err, coordinatorx.ErrInvalidSession), errors.Is(err, coordinatorx.ErrInvalidMessage):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("handle message failed")
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"reply":      reply,
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
