// Package messaging provides pluggable presentation channels for FinAssist.
//
// This file pumps inbound channel messages through the conversation flow and
// sends the resulting replies back out on the same channel.
package messaging

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// TurnProcessor runs one conversation turn. The canonical sender identity is
// used as the session key, so each phone number owns one conversation.
type TurnProcessor interface {
	ProcessMessage(ctx context.Context, sessionID, utterance string) (string, models.StepType, error)
}

// ResponseHandler consumes inbound messages from a Service and drives the
// conversation flow with them.
type ResponseHandler struct {
	service Service
	flow    TurnProcessor
}

// NewResponseHandler creates a handler pumping service messages into flow.
func NewResponseHandler(service Service, flow TurnProcessor) *ResponseHandler {
	return &ResponseHandler{service: service, flow: flow}
}

// Run processes inbound messages until the channel closes or ctx is done.
// Failures on individual turns are logged and skipped; the pump keeps going.
func (h *ResponseHandler) Run(ctx context.Context) {
	slog.Info("ResponseHandler.Run: message pump started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("ResponseHandler.Run: context done, stopping")
			return
		case msg, ok := <-h.service.Messages():
			if !ok {
				slog.Info("ResponseHandler.Run: message channel closed, stopping")
				return
			}
			h.handleMessage(ctx, msg)
		}
	}
}

// handleMessage runs one turn for one inbound message.
func (h *ResponseHandler) handleMessage(ctx context.Context, msg Message) {
	sessionID, err := h.service.ValidateAndCanonicalizeRecipient(msg.From)
	if err != nil {
		slog.Warn("ResponseHandler.handleMessage: invalid sender, dropping", "error", err, "from", msg.From)
		return
	}

	reply, _, err := h.flow.ProcessMessage(ctx, sessionID, msg.Body)
	if err != nil {
		slog.Error("ResponseHandler.handleMessage: turn failed", "error", err, "sessionID", sessionID)
		return
	}

	if err := h.service.SendMessage(ctx, sessionID, reply); err != nil {
		slog.Error("ResponseHandler.handleMessage: reply send failed", "error", err, "sessionID", sessionID)
	}
}
