package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"tinysteps/internal/service"
	"tinysteps/internal/suggestion"
	"tinysteps/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			zap.L().Error(logMsg, zap.Int("status", status), zap.Error(err))
		} else {
			zap.L().Debug(logMsg, zap.Int("status", status), zap.Error(err))
		}
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// respondWithServiceError maps service and domain errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, err error, logMsg string) {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Error(), logMsg, err)
	case errors.Is(err, suggestion.ErrNoValidSkills), errors.Is(err, suggestion.ErrUnknownCategory):
		respondWithError(w, http.StatusBadRequest, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, MsgNotFound, logMsg, err)
	case errors.Is(err, service.ErrSampleReadOnly):
		respondWithError(w, http.StatusForbidden, MsgSampleReadOnly, logMsg, err)
	case errors.Is(err, service.ErrRecentActivityIncomplete):
		respondWithError(w, http.StatusUnprocessableEntity, MsgRecentActivityIncomplete, logMsg, err)
	case errors.Is(err, service.ErrNoSuggestion):
		respondWithError(w, http.StatusConflict, MsgNoSuggestion, logMsg, err)
	case errors.Is(err, suggestion.ErrParseFailure):
		respondWithError(w, http.StatusBadGateway, MsgInvalidModelJSON, logMsg, err)
	case errors.Is(err, service.ErrOracleFailure):
		respondWithError(w, http.StatusBadGateway, err.Error(), logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, MsgInternalServerError, logMsg, err)
	}
}
