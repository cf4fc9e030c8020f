// Package models defines flow type definitions to avoid circular imports.
package models

// FlowType represents a specific type of conversation flow
type FlowType string

// StepType represents the current position of a session within a flow
type StepType string

// Flow type constants.
const (
	FlowTypeBanking FlowType = "banking"
)

// Step constants for the banking conversation flow.
const (
	StepStart            StepType = "start"
	StepChooseType       StepType = "choose_type"
	StepNewUserName      StepType = "new_user_name"
	StepNewUserPhone     StepType = "new_user_phone"
	StepNewUserEmail     StepType = "new_user_email"
	StepAwaitPhone       StepType = "await_phone"
	StepAwaitZip         StepType = "await_zip"
	StepVerifiedExisting StepType = "verified_existing"
	StepVerifiedNew      StepType = "verified_new"
	StepConfirmExit      StepType = "confirm_exit"
)

// OfferType identifies a product offer the assistant has extended and may be
// affirmed in a later turn.
type OfferType string

// Offer constants.
const (
	OfferNone    OfferType = ""
	OfferSavings OfferType = "savings"
)

// ValidStep reports whether s is a member of the defined step set.
func ValidStep(s StepType) bool {
	switch s {
	case StepStart, StepChooseType, StepNewUserName, StepNewUserPhone, StepNewUserEmail,
		StepAwaitPhone, StepAwaitZip, StepVerifiedExisting, StepVerifiedNew, StepConfirmExit:
		return true
	}
	return false
}
