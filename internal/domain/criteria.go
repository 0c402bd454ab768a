package domain

import (
	"fmt"
	"time"
)

// --- Deal Style Enum ---

// DealStyle captures the kind of purchase a client is hunting for.
type DealStyle string

const (
	DealStyleAny        DealStyle = "any"
	DealStyleTurnkey    DealStyle = "turnkey"
	DealStyleFixer      DealStyle = "fixer"
	DealStyleValueAdd   DealStyle = "value_add"
	DealStyleInvestment DealStyle = "investment"
)

// IsValid checks if the DealStyle is one of the defined constants.
func (d DealStyle) IsValid() bool {
	switch d {
	case DealStyleAny, DealStyleTurnkey, DealStyleFixer, DealStyleValueAdd, DealStyleInvestment:
		return true
	}
	return false
}

// --- Criteria Value Object ---

// Criteria holds a client's buying requirements. It is owned by the client
// record and read-only here; this service never writes it back.
// Optional numeric constraints are pointers: nil means "no constraint",
// which is not the same as zero.
type Criteria struct {
	ClientID           string
	BrokerageID        string // scopes which slice of the listing pool the client shops in
	BudgetMin          *float64
	BudgetMax          *float64
	PreferredLocations []string // free-text tokens, matched case-insensitively
	MinBeds            *int32
	MinBaths           *float64 // fractional, half-baths count
	DealStyle          DealStyle
	PropertyTypes      []string // empty = any type
	UpdatedAt          time.Time
}

// Validate is the single validation entry point for Criteria. Callers must
// not use a Criteria value that fails validation.
func (c *Criteria) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: criteria client id cannot be empty", ErrInvalidInput)
	}
	if c.BudgetMin != nil && *c.BudgetMin < 0 {
		return fmt.Errorf("%w: budget minimum cannot be negative", ErrInvalidInput)
	}
	if c.BudgetMax != nil && *c.BudgetMax < 0 {
		return fmt.Errorf("%w: budget maximum cannot be negative", ErrInvalidInput)
	}
	if c.BudgetMin != nil && c.BudgetMax != nil && *c.BudgetMin > *c.BudgetMax {
		return fmt.Errorf("%w: budget minimum %.0f exceeds maximum %.0f", ErrInvalidInput, *c.BudgetMin, *c.BudgetMax)
	}
	if c.MinBeds != nil && *c.MinBeds < 0 {
		return fmt.Errorf("%w: minimum beds cannot be negative", ErrInvalidInput)
	}
	if c.MinBaths != nil && *c.MinBaths < 0 {
		return fmt.Errorf("%w: minimum baths cannot be negative", ErrInvalidInput)
	}
	if c.DealStyle != "" && !c.DealStyle.IsValid() {
		return fmt.Errorf("%w: unknown deal style %q", ErrInvalidInput, c.DealStyle)
	}
	return nil
}

// EffectiveDealStyle treats an unset style as "any".
func (c *Criteria) EffectiveDealStyle() DealStyle {
	if c.DealStyle == "" {
		return DealStyleAny
	}
	return c.DealStyle
}
