// Package api provides HTTP response utilities for FinAssist.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// fallbackErrorJSON is served verbatim when a response value cannot be
// marshaled, so clients always receive a well-formed error envelope.
const fallbackErrorJSON = `{"status":"error","message":"Internal server error"}`

// writeJSONResponse marshals response and writes it with the given status.
// Marshaling happens before any header is written; on failure the fallback
// error body is sent with a 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = []byte(fallbackErrorJSON)
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// writeJSONError is shorthand for writing the error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, models.Error(message))
}
