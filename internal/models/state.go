// Package models defines state management structures for FinAssist sessions.
package models

import "time"

// ProspectFields holds the partially captured contact record for a new-user
// onboarding flow. Fields fill in one per turn and the record is consumed as a
// Lead once all three are present.
type ProspectFields struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// AttachedDocument is one extracted document held as Answer Engine context.
type AttachedDocument struct {
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	AttachedAt time.Time `json:"attached_at"`
}

// SessionState is the mutable per-conversation record tracked by the
// conversation state machine. It is created lazily on a session's first turn
// and reset to initial values on exit confirmation or unrecoverable error.
type SessionState struct {
	SessionID    string         `json:"session_id"`
	Step         StepType       `json:"step"`
	CustomerID   int64          `json:"customer_id,omitempty"`
	VerifiedName string         `json:"verified_name,omitempty"`
	Prospect     ProspectFields `json:"prospect,omitempty"`
	// Documents is the ordered set of attached document extracts, bounded by
	// the flow's capacity. Written only by the document-attach side channel
	// and cleared on session reset.
	Documents []AttachedDocument `json:"documents,omitempty"`
	// PendingOffer records the most recent product offer so that a bare
	// affirmative reply can be bound to it instead of firing contextlessly.
	PendingOffer OfferType `json:"pending_offer,omitempty"`
	// ReturnStep remembers the authenticated step a session was in when exit
	// confirmation was requested, so a declined exit restores it exactly.
	ReturnStep StepType  `json:"return_step,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSessionState creates a fresh session record positioned at the initial step.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now()
	return &SessionState{
		SessionID: sessionID,
		Step:      StepStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset clears all captured fields and returns the session to the initial
// step. Attached documents are cleared as well; the reset is total.
func (s *SessionState) Reset() {
	s.Step = StepStart
	s.CustomerID = 0
	s.VerifiedName = ""
	s.Prospect = ProspectFields{}
	s.Documents = nil
	s.PendingOffer = OfferNone
	s.ReturnStep = ""
	s.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the session state.
func (s *SessionState) Clone() *SessionState {
	dup := *s
	if s.Documents != nil {
		dup.Documents = make([]AttachedDocument, len(s.Documents))
		copy(dup.Documents, s.Documents)
	}
	return &dup
}

// Verified reports whether the session is in an authenticated step.
func (s *SessionState) Verified() bool {
	return s.Step == StepVerifiedExisting || s.Step == StepVerifiedNew
}
