package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	errx "github.com/pamonha-express/server/internal/core/error"
	logx "github.com/pamonha-express/server/pkg/logger"
)

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type chatHandler struct {
	engine  TurnHandler
	timeout time.Duration
}

func (h *chatHandler) post(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "sessionId e message são obrigatórios")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	logx.Info().Str("session_id", req.SessionID).Str("message", req.Message).Msg("message received")
	reply, err := h.engine.HandleTurn(ctx, req.SessionID, req.Message)
	if err != nil {
		var appErr *errx.AppError
		if errors.As(err, &appErr) && appErr.Kind == errx.KindValidation {
			respondError(w, http.StatusBadRequest, appErr.Message)
			return
		}
		logx.Error().Err(err).Str("session_id", req.SessionID).Msg("turn failed")
		respondError(w, http.StatusInternalServerError, "erro interno, tente novamente")
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Status: "error", Message: message})
}
