// Package models defines the core data types flowing through the
// affordability pipeline: extracted transactions, recurring series, and the
// terminal affordability assessment.
//
// All monetary values use decimal.Decimal. The sign convention for
// transactions is positive for credits (inflows) and negative for debits
// (outflows). Every type is built once by its producing stage and never
// mutated downstream.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds transaction descriptions. Statement narrations
// past this length carry no additional clustering signal.
const MaxDescriptionLength = 50

// Transaction represents a single normalized statement entry.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewTransaction creates a new Transaction, truncating the description to the
// bounded length.
func NewTransaction(date time.Time, description string, amount decimal.Decimal) *Transaction {
	return &Transaction{
		Date:        date,
		Description: TruncateDescription(description),
		Amount:      amount,
	}
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if t.Amount.IsZero() {
		return fmt.Errorf("transaction amount cannot be zero")
	}

	return nil
}

// IsCredit returns true if the transaction is an inflow
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// IsDebit returns true if the transaction is an outflow
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the absolute value of the transaction amount
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{Date: %s, Description: %q, Amount: %s}",
		t.Date.Format("2006-01-02"), t.Description, t.Amount.String())
}

// TruncateDescription trims and bounds a raw description string.
func TruncateDescription(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxDescriptionLength {
		return strings.TrimSpace(s[:MaxDescriptionLength])
	}
	return s
}

// RecurringSeries is a cluster of transactions judged to represent the same
// periodic obligation or income source. The classification key is the pair
// (normalized description prefix, bucketed amount); an optional category tag
// is attached for expenses matched against the keyword vocabulary.
type RecurringSeries struct {
	Label          string          `json:"label"`
	Category       string          `json:"category,omitempty"`
	BucketAmount   decimal.Decimal `json:"bucket_amount"`
	Representative decimal.Decimal `json:"representative_amount"`
	Occurrences    []time.Time     `json:"occurrences"`
	Count          int             `json:"count"`
}

// DistinctMonths returns the number of distinct calendar months covered by
// the occurrence dates. Computed over the set of dates, so scan order never
// affects the result.
func (rs *RecurringSeries) DistinctMonths() int {
	months := make(map[string]struct{}, len(rs.Occurrences))
	for _, d := range rs.Occurrences {
		months[d.Format("2006-01")] = struct{}{}
	}
	return len(months)
}

// FirstSeen returns the earliest occurrence date, or the zero time for an
// empty series.
func (rs *RecurringSeries) FirstSeen() time.Time {
	var first time.Time
	for _, d := range rs.Occurrences {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	return first
}

// LastSeen returns the latest occurrence date, or the zero time for an
// empty series.
func (rs *RecurringSeries) LastSeen() time.Time {
	var last time.Time
	for _, d := range rs.Occurrences {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// Evidence converts the series into its serializable evidence row.
func (rs *RecurringSeries) Evidence() SeriesEvidence {
	return SeriesEvidence{
		Label:          rs.Label,
		Category:       rs.Category,
		BucketAmount:   rs.BucketAmount,
		Representative: rs.Representative,
		Count:          rs.Count,
		FirstSeen:      rs.FirstSeen(),
		LastSeen:       rs.LastSeen(),
	}
}

// String returns a string representation of the RecurringSeries
func (rs *RecurringSeries) String() string {
	return fmt.Sprintf("RecurringSeries{Label: %q, Category: %q, Bucket: %s, Count: %d, Months: %d}",
		rs.Label, rs.Category, rs.BucketAmount.String(), rs.Count, rs.DistinctMonths())
}

// SeriesEvidence is the stable shape handed to callers so the evidence behind
// an assessment can be rendered or logged without re-deriving it.
type SeriesEvidence struct {
	Label          string          `json:"label"`
	Category       string          `json:"category,omitempty"`
	BucketAmount   decimal.Decimal `json:"bucket_amount"`
	Representative decimal.Decimal `json:"representative_amount"`
	Count          int             `json:"count"`
	FirstSeen      time.Time       `json:"first_seen"`
	LastSeen       time.Time       `json:"last_seen"`
}

// AffordabilityAssessment is the terminal record of a pipeline run. It is
// derived entirely from the recurring series aggregates plus policy constants
// and is never mutated after production.
type AffordabilityAssessment struct {
	GrossMonthlyIncome      decimal.Decimal `json:"gross_monthly_income"`
	NetMonthlyIncome        decimal.Decimal `json:"net_monthly_income"`
	RecurringMonthlyExpense decimal.Decimal `json:"recurring_monthly_expense"`
	EstimatedOtherDebt      decimal.Decimal `json:"estimated_other_debt"`
	DiscretionaryIncome     decimal.Decimal `json:"discretionary_income"`
	MaxMonthlyPayment       decimal.Decimal `json:"max_monthly_payment"`
	MaxLoanAmount           decimal.Decimal `json:"max_loan_amount"`
	AffordabilityRatioPct   float64         `json:"affordability_ratio_pct"`
	DebtServiceRatioPct     float64         `json:"debt_service_ratio_pct"`
	Compliant               bool            `json:"compliant"`
	DeclineReasons          []string        `json:"decline_reasons"`
}

// Qualifies reports whether the assessment results in an approved outcome.
func (a *AffordabilityAssessment) Qualifies() bool {
	return a.Compliant && len(a.DeclineReasons) == 0
}

// String returns a short human-readable summary of the assessment
func (a *AffordabilityAssessment) String() string {
	verdict := "DECLINED"
	if a.Qualifies() {
		verdict = "QUALIFIES"
	}
	return fmt.Sprintf("AffordabilityAssessment{Gross: %s, Discretionary: %s, MaxLoan: %s, %s}",
		a.GrossMonthlyIncome.StringFixed(2), a.DiscretionaryIncome.StringFixed(2),
		a.MaxLoanAmount.StringFixed(2), verdict)
}

// Utility functions for parsing statement values

// ParseAmount parses a statement amount string with validation. Handles
// currency markers, thousands separators, and parenthesized negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Strip separators and currency markers common on SA statements. The
	// minus sign may sit on either side of the currency marker.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "R")
	s = strings.TrimPrefix(s, "$")
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	if negative {
		d = d.Neg()
	}

	return d, nil
}

// statementDateFormats lists the date layouts accepted from statements, in
// order of preference. Day-first layouts follow the SA bank convention.
var statementDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParseStatementDate attempts to parse a date from a statement string using
// the supported layouts.
func ParseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range statementDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
