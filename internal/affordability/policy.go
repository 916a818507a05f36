// Package affordability derives an applicant's affordability assessment from
// their detected income and recurring expense load.
//
// The calculator is a pure function of (gross monthly income, recurring
// monthly expense) plus a fixed policy: a notional after-tax factor, an
// estimated other-debt factor, a mandated affordability buffer, and a
// fixed-rate amortization schedule that is reverse-solved for the maximum
// serviceable loan. Degenerate input never faults: non-positive income yields
// a fully zeroed, non-compliant assessment.
package affordability

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy holds the affordability policy constants. The canonical values
// approximate an NCA-style assessment; every one of them is configuration,
// not hard law.
type Policy struct {
	// NetIncomeFactor is the flat notional after-tax factor applied to
	// gross income
	NetIncomeFactor decimal.Decimal `json:"net_income_factor"`

	// OtherDebtFactor estimates existing debt obligations not detected
	// from the statement, as a fraction of gross income
	OtherDebtFactor decimal.Decimal `json:"other_debt_factor"`

	// BufferMultiplier is the mandated affordability buffer: the applicant
	// must retain this multiple of the proposed instalment as
	// discretionary income
	BufferMultiplier decimal.Decimal `json:"buffer_multiplier"`

	// TermMonths is the fixed loan term used for the reverse amortization
	TermMonths int `json:"term_months"`

	// AnnualRatePct is the annual interest rate in percent
	AnnualRatePct decimal.Decimal `json:"annual_rate_pct"`

	// MinAffordabilityRatioPct is the minimum discretionary income as a
	// percentage of net income
	MinAffordabilityRatioPct float64 `json:"min_affordability_ratio_pct"`

	// MaxDebtServiceRatioPct is the maximum instalment as a percentage of
	// net income
	MaxDebtServiceRatioPct float64 `json:"max_debt_service_ratio_pct"`

	// MinimumLoanAmount is the floor below which a computed loan is not
	// reported as qualifying
	MinimumLoanAmount decimal.Decimal `json:"minimum_loan_amount"`

	// LowIncomeFloor is the gross income below which an application is
	// declined outright
	LowIncomeFloor decimal.Decimal `json:"low_income_floor"`

	// HighExpenseLoadPct is the recurring-expense share of gross income
	// above which a decline reason fires
	HighExpenseLoadPct float64 `json:"high_expense_load_pct"`
}

// DefaultPolicy returns the canonical strict policy.
func DefaultPolicy() *Policy {
	return &Policy{
		NetIncomeFactor:          decimal.NewFromFloat(0.75),
		OtherDebtFactor:          decimal.NewFromFloat(0.10),
		BufferMultiplier:         decimal.NewFromFloat(1.5),
		TermMonths:               24,
		AnnualRatePct:            decimal.NewFromInt(22),
		MinAffordabilityRatioPct: 25.0,
		MaxDebtServiceRatioPct:   30.0,
		MinimumLoanAmount:        decimal.NewFromInt(1000),
		LowIncomeFloor:           decimal.NewFromInt(3500),
		HighExpenseLoadPct:       70.0,
	}
}

// Validate checks if the policy is internally consistent
func (p *Policy) Validate() error {
	if !p.NetIncomeFactor.IsPositive() || p.NetIncomeFactor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("net income factor must be in (0, 1]: %s", p.NetIncomeFactor)
	}

	if p.OtherDebtFactor.IsNegative() || p.OtherDebtFactor.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("other debt factor must be in [0, 1): %s", p.OtherDebtFactor)
	}

	if p.BufferMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("buffer multiplier must be at least 1: %s", p.BufferMultiplier)
	}

	if p.TermMonths <= 0 {
		return fmt.Errorf("term months must be positive: %d", p.TermMonths)
	}

	if p.AnnualRatePct.IsNegative() {
		return fmt.Errorf("annual rate cannot be negative: %s", p.AnnualRatePct)
	}

	if p.MinAffordabilityRatioPct < 0 || p.MinAffordabilityRatioPct > 100 {
		return fmt.Errorf("min affordability ratio must be between 0 and 100: %f", p.MinAffordabilityRatioPct)
	}

	if p.MaxDebtServiceRatioPct < 0 || p.MaxDebtServiceRatioPct > 100 {
		return fmt.Errorf("max debt service ratio must be between 0 and 100: %f", p.MaxDebtServiceRatioPct)
	}

	if p.MinimumLoanAmount.IsNegative() {
		return fmt.Errorf("minimum loan amount cannot be negative: %s", p.MinimumLoanAmount)
	}

	if p.LowIncomeFloor.IsNegative() {
		return fmt.Errorf("low income floor cannot be negative: %s", p.LowIncomeFloor)
	}

	if p.HighExpenseLoadPct <= 0 || p.HighExpenseLoadPct > 100 {
		return fmt.Errorf("high expense load must be between 0 and 100: %f", p.HighExpenseLoadPct)
	}

	return nil
}

// Clone creates a copy of the policy
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}

	clone := *p
	return &clone
}

// MonthlyRate returns the monthly interest rate as a fraction.
func (p *Policy) MonthlyRate() decimal.Decimal {
	return p.AnnualRatePct.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))
}

// String returns a human-readable description of the policy
func (p *Policy) String() string {
	return fmt.Sprintf("Policy{NetFactor: %s, OtherDebt: %s, Buffer: %s, Term: %dm, Rate: %s%%}",
		p.NetIncomeFactor, p.OtherDebtFactor, p.BufferMultiplier, p.TermMonths, p.AnnualRatePct)
}
