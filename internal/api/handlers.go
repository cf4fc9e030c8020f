// Package api provides HTTP handlers for FinAssist endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// maxUploadBytes bounds document upload size.
const maxUploadBytes = 8 << 20 // 8 MiB

// createSessionHandler handles POST /sessions, minting a new session ID.
// Session state itself is created lazily on the first turn.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.createSessionHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.createSessionHandler: method not allowed", "method", r.Method)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessionID := uuid.NewString()
	slog.Info("Server.createSessionHandler: session created", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusCreated, models.Success(map[string]string{"session_id": sessionID}))
}

// sessionsHandler routes /sessions/{id}/messages and /sessions/{id}/documents.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionsHandler invoked", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" {
		writeJSONError(w, http.StatusNotFound, "Unknown session endpoint")
		return
	}
	sessionID := segments[0]

	switch segments[1] {
	case "messages":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.messageHandler(w, r, sessionID)
	case "documents":
		switch r.Method {
		case http.MethodPost:
			s.attachDocumentHandler(w, r, sessionID)
		case http.MethodDelete:
			s.clearDocumentsHandler(w, r, sessionID)
		default:
			w.Header().Set("Allow", "POST, DELETE")
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	default:
		writeJSONError(w, http.StatusNotFound, "Unknown session endpoint")
	}
}

// messageHandler handles POST /sessions/{id}/messages: one conversation turn.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messageHandler: invalid JSON", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.messageHandler: validation failed", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, step, err := s.flow.ProcessMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		slog.Error("Server.messageHandler: turn failed", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	slog.Debug("Server.messageHandler: turn processed", "sessionID", sessionID, "step", step)
	writeJSONResponse(w, http.StatusOK, models.Success(models.MessageReply{Reply: reply, Step: step}))
}

// attachDocumentHandler handles POST /sessions/{id}/documents: the
// document-attach side channel. Expects a multipart form with a "file" field.
func (s *Server) attachDocumentHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Warn("Server.attachDocumentHandler: invalid multipart form", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("Server.attachDocumentHandler: missing file field", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	status, err := s.flow.AttachDocument(r.Context(), sessionID, header.Filename, file)
	if err != nil {
		slog.Error("Server.attachDocumentHandler: attach failed", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to attach document")
		return
	}

	slog.Info("Server.attachDocumentHandler: document attached", "sessionID", sessionID, "filename", header.Filename)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(status, nil))
}

// clearDocumentsHandler handles DELETE /sessions/{id}/documents.
func (s *Server) clearDocumentsHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.flow.ClearDocuments(r.Context(), sessionID); err != nil {
		slog.Error("Server.clearDocumentsHandler: clear failed", "error", err, "sessionID", sessionID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to clear documents")
		return
	}
	slog.Debug("Server.clearDocumentsHandler: documents cleared", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Documents cleared", nil))
}

// leadsHandler handles GET /leads, returning captured leads.
func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.leadsHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	leads, err := s.st.GetLeads()
	if err != nil {
		slog.Error("Server.leadsHandler: failed to fetch leads", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}

	slog.Debug("Server.leadsHandler: leads fetched", "count", len(leads))
	writeJSONResponse(w, http.StatusOK, models.Success(leads))
}

// healthHandler provides a health check endpoint for monitoring.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}
