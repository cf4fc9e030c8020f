// Package flow implements the banking conversation state machine.
//
// This file is the document-attach side channel. Attachment is not a state
// transition: it may happen before, during, or after verification, never
// touches the session's step, and the extracted text remains attached until
// cleared by reset or explicit removal.
package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/FinAssist/internal/extract"
	"github.com/BTreeMap/FinAssist/internal/models"
)

// MaxAttachedDocuments bounds how many document extracts a session holds at
// once. The oldest extract is evicted when the bound is exceeded.
const MaxAttachedDocuments = 3

// AttachDocument extracts text from the uploaded file and stores it on the
// session. Extraction failures degrade to an empty extract rather than
// failing the attach; a nil reader clears all attached documents.
func (f *BankingFlow) AttachDocument(ctx context.Context, sessionID, filename string, r io.Reader) (string, error) {
	if sessionID == "" {
		return "", models.ErrEmptySessionID
	}

	unlock := f.sessions.Lock(sessionID)
	defer unlock()

	state, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	if r == nil {
		state.Documents = nil
		if err := f.sessions.Save(ctx, state); err != nil {
			return "", fmt.Errorf("failed to save session: %w", err)
		}
		slog.Debug("BankingFlow.AttachDocument: documents cleared", "sessionID", sessionID)
		return replyDocumentsCleared, nil
	}

	text, err := f.extractor.Extract(ctx, filename, r)
	if err != nil {
		// Unreadable uploads degrade to an empty extract; the document
		// question branch stays reachable with an uninformative context.
		slog.Warn("BankingFlow.AttachDocument: extraction failed, storing empty extract", "error", err, "sessionID", sessionID, "filename", filename)
		text = ""
	}

	state.Documents = append(state.Documents, models.AttachedDocument{
		Filename:   filename,
		Text:       text,
		AttachedAt: time.Now(),
	})
	if len(state.Documents) > MaxAttachedDocuments {
		state.Documents = state.Documents[len(state.Documents)-MaxAttachedDocuments:]
	}

	if err := f.sessions.Save(ctx, state); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("BankingFlow.AttachDocument: document attached", "sessionID", sessionID, "filename", filename, "chars", len(text), "documents", len(state.Documents))
	return fmt.Sprintf("%s uploaded successfully! Ask away.", filename), nil
}

// ClearDocuments removes all attached documents from the session.
func (f *BankingFlow) ClearDocuments(ctx context.Context, sessionID string) error {
	_, err := f.AttachDocument(ctx, sessionID, "", nil)
	return err
}

// documentContext concatenates the attached document extracts, newest last,
// bounded to the answer-engine context limit.
func (f *BankingFlow) documentContext(state *models.SessionState) string {
	var parts []string
	for _, doc := range state.Documents {
		if doc.Text != "" {
			parts = append(parts, doc.Text)
		}
	}
	return extract.Truncate(strings.Join(parts, "\n"), extract.MaxDocumentChars)
}
