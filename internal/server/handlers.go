package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/pipeline"
)

type eventResponse struct {
	Status  string            `json:"status"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
	Kind    pipeline.Kind     `json:"kind,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, meta, err := decodeEvent(w, r)
	if err != nil && meta.Mode == modePubSub {
		// Push subscriptions redeliver anything but 2xx; an undecodable message never heals.
		s.logger.Warn("discarded undecodable push message", zap.String("message_id", meta.ID), zap.Error(err))
		s.respondJSON(w, http.StatusOK, eventResponse{Status: "discarded", Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Warn("rejected event", zap.String("mode", meta.Mode), zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("event received",
		zap.String("mode", meta.Mode),
		zap.String("event_id", meta.ID),
		zap.String("event_type", meta.Type),
		zap.String("uri", ev.URI()),
	)

	out, err := s.handler.Handle(r.Context(), ev)
	if err != nil {
		// The pipeline has already logged the failure with its input URI.
		resp := eventResponse{Status: "failed", Kind: pipeline.KindOf(err), Error: err.Error()}
		status := http.StatusOK
		if s.config.RedeliverOnFailure {
			status = http.StatusInternalServerError
		}
		s.respondJSON(w, status, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, eventResponse{Status: "processed", Outcome: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	if s.reference == nil {
		s.respondError(w, http.StatusNotImplemented, "reference data not loaded")
		return
	}
	s.respondJSON(w, http.StatusOK, s.reference.Stats())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
