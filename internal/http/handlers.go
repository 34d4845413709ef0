package http

import (
	"errors"
	"net/http"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/services"
	"spesevoce/internal/sheets"
)

// statusFor maps service and sync errors onto HTTP statuses in one place.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateText):
		return http.StatusConflict
	case errors.Is(err, services.ErrSyncDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, sheets.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, sheets.ErrContainerNotFound):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers with its mapped status. rec, when set, is
// the record that was stored before the failure.
func writeError(w http.ResponseWriter, r *http.Request, err error, rec *core.Record) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldStatusCode, status)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}
	NewJSONResponse().Status(status).Body(errorBody{Error: err.Error(), Record: rec}).Write(w)
}

// handleTranscript accepts one speech-recognition event. Only result events
// reach the pipeline; lifecycle and recognizer-error events are acknowledged.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch req.Event {
	case "", "result":
	case "start", "end":
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	case "error":
		log.FromContext(r.Context()).WarnContext(r.Context(), "Speech recognition failed", log.FieldError, sanitizeInput(req.Error))
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	default:
		BadRequestError("unknown event " + req.Event).Write(w)
		return
	}

	rec, err := s.deps.Pipeline.ProcessTranscript(r.Context(), sanitizeInput(req.Text))
	if err != nil {
		var stored *core.Record
		if rec.ID != "" {
			stored = &rec
		}
		writeError(w, r, err, stored)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+rec.ID).
		Body(rec).
		Write(w)
}
