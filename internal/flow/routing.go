// Package flow implements the banking conversation state machine.
//
// This file routes utterances inside the authenticated steps. The tie-break
// order between topics is an explicit route table evaluated top to bottom, so
// priority is a visible artifact rather than incidental code order.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// topicRoute pairs a predicate with its handler. Routes are evaluated in
// order; the first matching route handles the turn. The handler signature is
// receiver-first so bound methods can be used as method expressions.
type topicRoute struct {
	name   string
	match  func(f *BankingFlow, state *models.SessionState, low string) bool
	handle func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error)
}

// verifiedRoutes is the authenticated-state routing table. Global intents
// (exit, affirmative, upload) come before account topics; balance and
// transactions additionally require a verified existing customer, so for
// new-user sessions those routes never match and the utterance falls through.
var verifiedRoutes = []topicRoute{
	{
		name: "exit",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return matchesExitIntent(low)
		},
		handle: func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
			state.ReturnStep = state.Step
			state.Step = models.StepConfirmExit
			return replyConfirmExit, nil
		},
	},
	{
		name: "affirmative",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			// A bare affirmation only routes here while an offer is pending;
			// otherwise it falls through to the topic checks below.
			return matchesAffirmative(low) && state.PendingOffer == models.OfferSavings
		},
		handle: func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
			state.PendingOffer = models.OfferNone
			return withFollowUp("Apply here: " + SavingsApplicationLink), nil
		},
	},
	{
		name: "upload",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return strings.TrimSpace(low) == "upload"
		},
		handle: func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
			return replyUploadInstruction, nil
		},
	},
	{
		name: "balance",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return state.Step == models.StepVerifiedExisting && strings.Contains(low, "balance")
		},
		handle: (*BankingFlow).handleBalance,
	},
	{
		name: "transactions",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return state.Step == models.StepVerifiedExisting &&
				(strings.Contains(low, "transaction") || strings.Contains(low, "recent"))
		},
		handle: (*BankingFlow).handleTransactions,
	},
	{
		name: "savings",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return strings.Contains(low, "saving")
		},
		handle: func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
			state.PendingOffer = models.OfferSavings
			return withFollowUp(replySavingsProducts), nil
		},
	},
	{
		name: "document",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return len(state.Documents) > 0 && f.answerer != nil
		},
		handle: (*BankingFlow).handleDocumentQuestion,
	},
	{
		name: "fallback",
		match: func(f *BankingFlow, state *models.SessionState, low string) bool {
			return true
		},
		handle: func(f *BankingFlow, ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
			return anythingElse(), nil
		},
	},
}

// handleVerified routes a turn within an authenticated step through the
// ordered topic table.
func (f *BankingFlow) handleVerified(ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
	for _, route := range verifiedRoutes {
		if route.match(f, state, low) {
			slog.Debug("BankingFlow.handleVerified: route matched", "sessionID", state.SessionID, "route", route.name, "step", state.Step)
			return route.handle(f, ctx, state, msg, low)
		}
	}
	// Unreachable: the fallback route matches everything.
	return anythingElse(), nil
}

// handleBalance answers the balance topic with exactly one identity store call.
func (f *BankingFlow) handleBalance(ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
	customer, err := f.store.GetCustomer(state.CustomerID)
	if err != nil {
		return "", fmt.Errorf("balance lookup failed: %w", err)
	}
	if customer == nil {
		return "", fmt.Errorf("customer %d vanished during balance lookup", state.CustomerID)
	}
	return withFollowUp(fmt.Sprintf("Your balance is %s.", formatUSD(customer.Balance))), nil
}

// handleTransactions lists the five most recent transactions, newest first.
func (f *BankingFlow) handleTransactions(ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
	transactions, err := f.store.GetRecentTransactions(state.CustomerID, models.RecentTransactionLimit)
	if err != nil {
		return "", fmt.Errorf("transaction lookup failed: %w", err)
	}
	if len(transactions) == 0 {
		return withFollowUp(replyNoTransactions), nil
	}

	lines := []string{fmt.Sprintf("Here are your last %d transactions:", len(transactions))}
	for _, t := range transactions {
		lines = append(lines, fmt.Sprintf("- %s: %s ($%.2f)", t.Date, t.Description, t.Amount))
	}
	return withFollowUp(strings.Join(lines, "\n")), nil
}

// handleDocumentQuestion sends the utterance to the answer engine with the
// attached documents as context. Engine failures are unrecoverable at the
// turn level.
func (f *BankingFlow) handleDocumentQuestion(ctx context.Context, state *models.SessionState, msg, low string) (string, error) {
	docContext := f.documentContext(state)
	answer, err := f.answerer.Answer(ctx, msg, docContext)
	if err != nil {
		return "", fmt.Errorf("document question failed: %w", err)
	}
	return withFollowUp(answer), nil
}
