package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error half of the response contract. Success payloads sit
// under "data", failures under "error".
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ListMeta carries pagination metadata for list endpoints.
type ListMeta struct {
	Total int64 `json:"total"`
}

type dataEnvelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONData writes v wrapped in the data envelope.
func JSONData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataEnvelope{Data: v})
}

// JSONPage writes a list payload together with its pagination metadata.
func JSONPage(w http.ResponseWriter, status int, items any, total int64) {
	writeJSON(w, status, dataEnvelope{Data: items, Meta: ListMeta{Total: total}})
}

// JSONError renders a failure using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
