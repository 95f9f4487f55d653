package search

import (
	"errors"
	"fmt"

	"fundfinder-backend/quota"
)

// DefaultPurpose is used when the client leaves purpose empty.
const DefaultPurpose = "general business funding"

type Input struct {
	BusinessType string `json:"businessType" validate:"required,max=200"`
	Location     string `json:"location" validate:"required,max=200"`
	Purpose      string `json:"purpose" validate:"max=500"`
}

type LeadType string

const (
	LeadGrant    LeadType = "Grant"
	LeadLoan     LeadType = "Loan"
	LeadInvestor LeadType = "Investor"
)

type Lead struct {
	Name        string   `json:"name"`
	Type        LeadType `json:"type"`
	Amount      string   `json:"amount"`
	Deadline    string   `json:"deadline"`
	Link        string   `json:"link"`
	MatchReason string   `json:"matchReason"`
}

var ErrNotAuthenticated = errors.New("not authenticated")

// RateLimitError carries the denying decision for display.
type RateLimitError struct {
	Decision quota.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily search limit reached (%d/%d)", e.Decision.DailyCount, e.Decision.Limit)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError covers AI call failures and unusable answers. None of them
// count toward usage.
type UpstreamError struct {
	Message    string
	Diagnostic any
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "internal error: " + e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }
