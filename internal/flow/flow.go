// Package flow implements the banking conversation state machine.
//
// One call per turn takes the user utterance plus the session's state,
// produces the assistant reply, and persists the updated state. The flow owns
// every step transition and all routing to the identity store and answer
// engine. Any unrecoverable failure during a turn resets the session
// atomically and returns a generic apology.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/FinAssist/internal/extract"
	"github.com/BTreeMap/FinAssist/internal/genai"
	"github.com/BTreeMap/FinAssist/internal/models"
	"github.com/BTreeMap/FinAssist/internal/session"
	"github.com/BTreeMap/FinAssist/internal/store"
)

// BankingFlow is the conversation state machine for the banking assistant.
type BankingFlow struct {
	store     store.Store
	sessions  session.Manager
	answerer  genai.ClientInterface // nil disables document question-answering
	extractor extract.Extractor
}

// NewBankingFlow creates a banking flow with its collaborators. The answerer
// may be nil, in which case document questions fall through to the generic
// topic list.
func NewBankingFlow(st store.Store, sessions session.Manager, answerer genai.ClientInterface, extractor extract.Extractor) *BankingFlow {
	slog.Debug("BankingFlow.NewBankingFlow: creating flow", "hasAnswerer", answerer != nil)
	return &BankingFlow{
		store:     st,
		sessions:  sessions,
		answerer:  answerer,
		extractor: extractor,
	}
}

// ProcessMessage runs one conversation turn for the session. It returns the
// assistant reply and the session's step after the turn, both captured under
// the session lock so callers never race a concurrent turn. A non-nil error
// indicates a session storage failure, not a dialogue-level problem;
// dialogue-level failures reset the session and surface as a generic apology
// reply.
func (f *BankingFlow) ProcessMessage(ctx context.Context, sessionID, utterance string) (string, models.StepType, error) {
	if sessionID == "" {
		return "", "", models.ErrEmptySessionID
	}

	unlock := f.sessions.Lock(sessionID)
	defer unlock()

	state, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		slog.Error("BankingFlow.ProcessMessage: session load failed", "error", err, "sessionID", sessionID)
		return "", "", fmt.Errorf("failed to load session: %w", err)
	}

	reply, turnErr := f.processTurn(ctx, state, utterance)
	if turnErr != nil {
		slog.Error("BankingFlow.ProcessMessage: turn failed, resetting session", "error", turnErr, "sessionID", sessionID, "step", state.Step)
		state.Reset()
		reply = replyInternalError
	}

	state.UpdatedAt = time.Now()
	if err := f.sessions.Save(ctx, state); err != nil {
		slog.Error("BankingFlow.ProcessMessage: session save failed", "error", err, "sessionID", sessionID)
		// Drop the session rather than leave partially applied state behind.
		if delErr := f.sessions.Delete(ctx, sessionID); delErr != nil {
			slog.Error("BankingFlow.ProcessMessage: session delete after failed save also failed", "error", delErr, "sessionID", sessionID)
		}
		return "", "", fmt.Errorf("failed to save session: %w", err)
	}

	slog.Debug("BankingFlow.ProcessMessage: turn complete", "sessionID", sessionID, "step", state.Step)
	return reply, state.Step, nil
}

// Step reports the session's current step without mutating it. Sessions that
// do not exist yet report the initial step.
func (f *BankingFlow) Step(ctx context.Context, sessionID string) (models.StepType, error) {
	state, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return state.Step, nil
}

// processTurn dispatches the utterance to the handler for the session's
// current step. Returned errors are unrecoverable and trigger a full reset.
func (f *BankingFlow) processTurn(ctx context.Context, state *models.SessionState, utterance string) (string, error) {
	if !models.ValidStep(state.Step) {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidSessionStep, state.Step)
	}

	msg := strings.TrimSpace(utterance)
	low := strings.ToLower(msg)

	switch state.Step {
	case models.StepStart:
		// The opening turn always advances, whatever the user said.
		state.Step = models.StepChooseType
		return replyWelcome, nil

	case models.StepChooseType:
		return f.handleChooseType(state, low), nil

	case models.StepNewUserName:
		if msg == "" {
			return replyAskName, nil
		}
		state.Prospect.Name = titleCase(msg)
		state.Step = models.StepNewUserPhone
		return replyAskProspectPhone, nil

	case models.StepNewUserPhone:
		if msg == "" {
			return replyAskProspectPhone, nil
		}
		state.Prospect.Phone = msg
		state.Step = models.StepNewUserEmail
		return replyAskProspectEmail, nil

	case models.StepNewUserEmail:
		if msg == "" {
			return replyAskProspectEmail, nil
		}
		state.Prospect.Email = msg
		return f.handleLeadComplete(state)

	case models.StepAwaitPhone:
		return f.handlePhoneLookup(state, msg)

	case models.StepAwaitZip:
		return f.handleZipCheck(state, msg)

	case models.StepVerifiedExisting, models.StepVerifiedNew:
		return f.handleVerified(ctx, state, msg, low)

	case models.StepConfirmExit:
		return f.handleConfirmExit(state, low), nil
	}

	return "", fmt.Errorf("%w: %q", models.ErrInvalidSessionStep, state.Step)
}

// handleChooseType resolves the existing-vs-new fork, re-prompting in place
// when neither intent matches.
func (f *BankingFlow) handleChooseType(state *models.SessionState, low string) string {
	if matchesExistingIntent(low) {
		state.Step = models.StepAwaitPhone
		return replyAskPhone
	}
	if matchesNewIntent(low) {
		state.Step = models.StepNewUserName
		return replyAskName
	}
	return replyChooseType
}

// handleLeadComplete hands off the fully captured lead and moves the session
// to the authenticated new-user step.
func (f *BankingFlow) handleLeadComplete(state *models.SessionState) (string, error) {
	lead := models.Lead{
		Name:      state.Prospect.Name,
		Phone:     state.Prospect.Phone,
		Email:     state.Prospect.Email,
		CreatedAt: time.Now(),
	}
	if err := f.store.AddLead(lead); err != nil {
		return "", fmt.Errorf("lead hand-off failed: %w", err)
	}
	slog.Info("BankingFlow.handleLeadComplete: lead captured", "sessionID", state.SessionID)

	name := state.Prospect.Name
	state.Prospect = models.ProspectFields{}
	state.VerifiedName = name
	state.Step = models.StepVerifiedNew
	return withFollowUp(fmt.Sprintf("Thanks %s! A banker will contact you soon.", name)), nil
}

// handlePhoneLookup resolves the phone number against the identity store.
// A miss is a normal negative path and re-prompts in place.
func (f *BankingFlow) handlePhoneLookup(state *models.SessionState, msg string) (string, error) {
	if msg == "" {
		return replyAskPhone, nil
	}
	customer, err := f.store.GetCustomerByPhone(msg)
	if err != nil {
		return "", fmt.Errorf("phone lookup failed: %w", err)
	}
	if customer == nil {
		slog.Debug("BankingFlow.handlePhoneLookup: phone not found", "sessionID", state.SessionID)
		return replyPhoneNotFound, nil
	}

	state.CustomerID = customer.ID
	state.VerifiedName = customer.FirstName + " " + customer.LastName
	state.Step = models.StepAwaitZip
	return replyAskZip, nil
}

// handleZipCheck compares the utterance against the looked-up identity's ZIP.
// A mismatch keeps the looked-up identity and re-prompts; only a match
// completes verification.
func (f *BankingFlow) handleZipCheck(state *models.SessionState, msg string) (string, error) {
	customer, err := f.store.GetCustomer(state.CustomerID)
	if err != nil {
		return "", fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer == nil {
		return "", fmt.Errorf("customer %d vanished during verification", state.CustomerID)
	}

	if msg != customer.ZipCode {
		slog.Debug("BankingFlow.handleZipCheck: ZIP mismatch", "sessionID", state.SessionID)
		return replyZipMismatch, nil
	}

	state.Step = models.StepVerifiedExisting
	slog.Info("BankingFlow.handleZipCheck: customer verified", "sessionID", state.SessionID, "customerID", customer.ID)
	return withFollowUp(fmt.Sprintf("Welcome back %s!", customer.FirstName)), nil
}

// handleConfirmExit resolves the exit confirmation: a leading "y" ends the
// session; anything else restores the authenticated step the session was in
// when exit was requested.
func (f *BankingFlow) handleConfirmExit(state *models.SessionState, low string) string {
	if matchesConfirmation(low) {
		slog.Info("BankingFlow.handleConfirmExit: session closed", "sessionID", state.SessionID)
		state.Reset()
		return replySessionClosed
	}

	returnStep := state.ReturnStep
	if returnStep != models.StepVerifiedExisting && returnStep != models.StepVerifiedNew {
		if state.CustomerID != 0 {
			returnStep = models.StepVerifiedExisting
		} else {
			returnStep = models.StepVerifiedNew
		}
	}
	state.Step = returnStep
	state.ReturnStep = ""
	return withFollowUp(replyStillConnected)
}
