package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/pkg/logger"
)

// Envelope is the JSON body of every API response
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// respondRaw wraps already-encoded JSON (a cache entry) in the envelope
func respondRaw(w http.ResponseWriter, data []byte) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(data)})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Envelope{Success: false, Error: message})
}

// respondEngineError maps an engine error onto a status code and message
func respondEngineError(w http.ResponseWriter, log *logger.Logger, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Debug("request rejected")
	}
	respondError(w, status, message)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound, notFoundMessage(err)
	case errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, contracts.ErrScoreIntegrity):
		return http.StatusInternalServerError, "Score integrity violation"
	case errors.Is(err, contracts.ErrComputationFailed):
		return http.StatusServiceUnavailable, "Computation failed, please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

var notFoundMessages = []struct{ prefix, message string }{
	{"industry", "Industry not found"},
	{"sector", "Sector not found"},
	{"company", "Company not found"},
}

func notFoundMessage(err error) string {
	msg := err.Error()
	for _, m := range notFoundMessages {
		if strings.HasPrefix(msg, m.prefix) {
			return m.message
		}
	}
	return "Not found"
}
