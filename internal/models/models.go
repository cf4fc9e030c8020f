// Package models defines the core data structures for FinAssist.
//
// It includes customer and transaction records, captured leads, and the API
// response envelope shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Validation constants for input validation
const (
	// MaxUtteranceLength defines the maximum allowed length for a single user utterance
	MaxUtteranceLength = 4096
	// RecentTransactionLimit defines how many transactions a recent-activity query returns
	RecentTransactionLimit = 5
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID      = errors.New("session ID cannot be empty")
	ErrEmptyUtterance      = errors.New("utterance cannot be empty")
	ErrUtteranceTooLong    = errors.New("utterance exceeds maximum length")
	ErrIncompleteLead      = errors.New("lead requires name, phone, and email")
	ErrInvalidSessionStep  = errors.New("session step is not a defined state")
	ErrEmptyLeadCollection = errors.New("no leads captured")
)

// Customer is an identity record held by the identity store. Phone values are
// unique within the store; ZIP comparison is exact string match.
type Customer struct {
	ID            int64   `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email,omitempty"`
	ZipCode       string  `json:"zip_code"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
}

// Transaction is a single account movement associated with a customer.
type Transaction struct {
	ID          int64   `json:"id"`
	CustomerID  int64   `json:"customer_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"` // signed; negative for debits
}

// Lead is a prospective-customer record assembled field-by-field during the
// new-user capture flow and handed off once complete.
type Lead struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that all lead fields were captured.
func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.Phone) == "" || strings.TrimSpace(l.Email) == "" {
		return ErrIncompleteLead
	}
	return nil
}

// MessageRequest is the inbound payload for a single conversation turn.
type MessageRequest struct {
	Message string `json:"message"`
}

// Validate checks the turn payload against input limits.
func (r MessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyUtterance
	}
	if len(r.Message) > MaxUtteranceLength {
		return ErrUtteranceTooLong
	}
	return nil
}

// MessageReply is the outbound payload for a single conversation turn.
type MessageReply struct {
	Reply string   `json:"reply"`
	Step  StepType `json:"step"`
}

// APIStatus represents the status field of an API response.
type APIStatus string

// API status constants.
const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Convenience functions for common response patterns

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
