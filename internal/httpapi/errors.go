package httpapi

import (
	"encoding/json"
	"net/http"
)

// apiError is the wire shape of spec §6's error responses.
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: message, Code: status})
}

func badRequest(w http.ResponseWriter, message string) { writeError(w, http.StatusBadRequest, message) }

func notFound(w http.ResponseWriter, message string) { writeError(w, http.StatusNotFound, message) }

func internal(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}
