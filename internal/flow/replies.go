// Package flow implements the banking conversation state machine.
//
// This file holds the assistant's reply text. Replies are plain text; any
// markup is the presentation layer's concern.
package flow

import (
	"fmt"
	"math"
	"strings"
)

// SavingsApplicationLink is the application URL offered after the savings
// products blurb.
const SavingsApplicationLink = "https://www.chase.com/personal/savings"

// Fixed reply text.
const (
	replyWelcome = "Welcome to the Digital Banking Assistant! Are you an existing customer or a new user wishing to open an account?"

	replyChooseType = "Please type existing or new to continue."

	replyAskName = "Let's get to know you. What's your first and last name?"

	replyAskProspectPhone = "Thanks. May I have a phone number to reach you?"

	replyAskProspectEmail = "And finally, your e-mail address?"

	replyAskPhone = "Great - please enter your registered phone number:"

	replyPhoneNotFound = "Number not found - please try again:"

	replyAskZip = "Thank you. Now enter your ZIP code:"

	replyZipMismatch = "ZIP doesn't match our records - try again:"

	replyUploadInstruction = "Attach the document you'd like to discuss, then ask me about it."

	replyNoTransactions = "No recent transactions."

	replySavingsProducts = "We offer Basic Savings, High-Yield Savings (4.5% APY) and Money-Market Accounts. Reply yes for the application link."

	replyConfirmExit = "Are you sure you want to end the chat? (yes / no)"

	replySessionClosed = "Session closed. Have a great day!"

	replyStillConnected = "No worries - we're still connected."

	replyInternalError = "Internal error - please begin again."

	replyDocumentsCleared = "Attached documents removed."
)

// anythingElse is the standard follow-up appended to action replies.
func anythingElse() string {
	return "Anything else I can help with? (balance, transactions, savings - or type upload to attach a document, exit to leave)"
}

// withFollowUp appends the standard follow-up prompt to a reply.
func withFollowUp(reply string) string {
	return reply + "\n\n" + anythingElse()
}

// formatUSD renders an amount as currency with two decimals and thousands
// separators, e.g. 12500.5 -> "$12,500.50".
func formatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}
	whole := fmt.Sprintf("%.2f", amount)
	dot := strings.IndexByte(whole, '.')
	intPart, fracPart := whole[:dot], whole[dot:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	return sign + "$" + strings.Join(groups, ",") + fracPart
}
