package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/service"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError маппит доменные ошибки в HTTP-коды.
// Тексты внутренних ошибок наружу не выдаются.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.metrics.ErrorTotal.WithLabelValues("validation").Inc()
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		s.metrics.ErrorTotal.WithLabelValues("conflict").Inc()
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "record with this content hash already exists"})
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.ErrorTotal.WithLabelValues("not_found").Inc()
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		s.metrics.ErrorTotal.WithLabelValues("storage").Inc()
		s.logger.Error("request failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
