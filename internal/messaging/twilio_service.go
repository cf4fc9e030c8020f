// Package messaging provides pluggable presentation channels for FinAssist.
//
// This file implements the Twilio SMS channel: outbound replies go through
// the Twilio REST API and inbound utterances arrive via the Twilio webhook.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultChannelTimeout bounds how long an inbound message waits for a free
// slot before being dropped.
const DefaultChannelTimeout = 5 * time.Second

// TwilioOpts holds configuration options for the Twilio SMS service.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// TwilioOption configures Twilio service construction.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromNumber = from }
}

// smsSender is the minimal Twilio REST surface used by the service.
type smsSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService implements Service over Twilio SMS.
type TwilioService struct {
	sender   smsSender
	from     string
	messages chan Message
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
}

// NewTwilioService creates a Twilio SMS service from the provided options.
func NewTwilioService(opts ...TwilioOption) (*TwilioService, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("messaging.NewTwilioService: config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		sender:   client.Api,
		from:     cfg.FromNumber,
		messages: make(chan Message, DefaultChannelBufferSize),
		done:     make(chan struct{}),
	}, nil
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a phone number.
// It removes all non-numeric characters and requires at least 6 digits.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}

	if recipient != canonical {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// SendMessage sends an SMS via the Twilio REST API.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService.SendMessage: validation error", "error", err, "to", to)
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("+" + canonicalTo)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.sender.CreateMessage(params); err != nil {
		slog.Error("TwilioService.SendMessage failed", "error", err, "to", canonicalTo)
		return fmt.Errorf("failed to send message to %s: %w", canonicalTo, err)
	}

	slog.Debug("TwilioService.SendMessage: message sent", "to", canonicalTo)
	return nil
}

// Start is a no-op: inbound messages arrive through the webhook handler.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.messages)
	}()

	return nil
}

// Messages returns the channel of inbound user utterances.
func (s *TwilioService) Messages() <-chan Message {
	return s.messages
}

// WebhookHandler handles inbound Twilio webhook requests, emitting each
// message into the Messages() channel.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("TwilioService.WebhookHandler: webhook received")

	if err := r.ParseForm(); err != nil {
		slog.Error("TwilioService.WebhookHandler: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("TwilioService.WebhookHandler: missing fields", "from_set", from != "", "body_set", body != "")
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	s.safeEmit(Message{From: from, Body: body, Time: time.Now().Unix()})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// safeEmit pushes a message into the inbound channel unless the service has
// stopped or the channel stays full past the timeout.
func (s *TwilioService) safeEmit(msg Message) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("TwilioService dropping inbound message (service stopped)", "from", msg.From)
		return
	}

	select {
	case s.messages <- msg:
		slog.Debug("TwilioService emitted inbound message", "from", msg.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService messages channel blocked, dropping message", "from", msg.From)
	}
}
