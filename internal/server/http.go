package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 16

// handleRange parses ?notation= and returns its canonical form and grid.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	parsed, err := eng.ParseRange(r.URL.Query().Get("notation"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RangeDataFrom(parsed))
}

func (s *Server) handleNarrowEquity(w http.ResponseWriter, r *http.Request) {
	var data NarrowEquityData
	if !s.readJSON(w, r, &data) {
		return
	}
	n, err := s.Narrower()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := narrowEquity(r.Context(), n, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNarrowPreference(w http.ResponseWriter, r *http.Request) {
	var data NarrowPreferenceData
	if !s.readJSON(w, r, &data) {
		return
	}
	n, err := s.Narrower()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := narrowPreference(r.Context(), n, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorData{
			Code:    CodeInvalidMessage,
			Message: "Failed to parse request body: " + err.Error(),
		})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := errorCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "requestId", middleware.GetReqID(r.Context()), "error", err)
	}
	s.writeJSON(w, status, ErrorData{Code: code, Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}
