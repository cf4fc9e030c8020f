// Package messaging provides pluggable presentation channels for FinAssist.
//
// A channel delivers assistant replies to users and surfaces their inbound
// utterances; the conversation flow itself is channel-agnostic.
package messaging

import (
	"context"
	"errors"
	"regexp"
)

// DefaultChannelBufferSize is the buffer size for inbound message channels.
const DefaultChannelBufferSize = 64

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// phoneNumberRegex strips non-digits during recipient canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Message is an inbound user utterance from a channel. The sender identity
// doubles as the conversation session key.
type Message struct {
	From string
	Body string
	Time int64
}

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. This allows each service to implement its own rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing.
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Messages returns a channel of inbound user utterances.
	Messages() <-chan Message
}
