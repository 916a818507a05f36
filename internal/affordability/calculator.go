package affordability

import (
	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"

	"github.com/shopspring/decimal"
)

// Calculator produces affordability assessments under a fixed policy.
type Calculator struct {
	policy *Policy
	logger logger.Logger
}

// NewCalculator creates a Calculator with the given policy.
func NewCalculator(policy *Policy) (*Calculator, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}

	if err := policy.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"affordability_policy",
			policy,
			err,
		).WithSuggestion("Check the affordability policy constants")
	}

	log := logger.GetGlobalLogger().WithComponent("calculator")
	log.WithField("policy", policy.String()).Debug("Created affordability calculator")

	return &Calculator{
		policy: policy,
		logger: log,
	}, nil
}

// Policy returns a copy of the active policy
func (c *Calculator) Policy() *Policy {
	return c.policy.Clone()
}

// Assess derives the full affordability record from gross monthly income and
// recurring monthly expense. It is a pure function: the calculator never
// reads a value it was not explicitly given. Non-positive income yields a
// zeroed, non-compliant assessment rather than an error.
func (c *Calculator) Assess(grossIncome, recurringExpense decimal.Decimal) *models.AffordabilityAssessment {
	if !grossIncome.IsPositive() {
		c.logger.WithField("gross_income", grossIncome.String()).
			Debug("Non-positive income, returning zeroed assessment")
		return zeroedAssessment(recurringExpense)
	}

	netIncome := grossIncome.Mul(c.policy.NetIncomeFactor)
	otherDebt := grossIncome.Mul(c.policy.OtherDebtFactor)
	discretionary := netIncome.Sub(recurringExpense).Sub(otherDebt)

	maxPayment := decimal.Zero
	if discretionary.IsPositive() {
		maxPayment = discretionary.Div(c.policy.BufferMultiplier)
	}

	maxLoan := c.MaxLoanForPayment(maxPayment)

	affordabilityPct := 0.0
	debtServicePct := 0.0
	if netIncome.IsPositive() {
		affordabilityPct = discretionary.Div(netIncome).InexactFloat64() * 100
		debtServicePct = maxPayment.Div(netIncome).InexactFloat64() * 100
	}

	compliant := discretionary.IsPositive() &&
		affordabilityPct >= c.policy.MinAffordabilityRatioPct &&
		debtServicePct <= c.policy.MaxDebtServiceRatioPct &&
		maxLoan.GreaterThanOrEqual(c.policy.MinimumLoanAmount)

	assessment := &models.AffordabilityAssessment{
		GrossMonthlyIncome:      grossIncome,
		NetMonthlyIncome:        netIncome,
		RecurringMonthlyExpense: recurringExpense,
		EstimatedOtherDebt:      otherDebt,
		DiscretionaryIncome:     discretionary,
		MaxMonthlyPayment:       maxPayment,
		MaxLoanAmount:           maxLoan,
		AffordabilityRatioPct:   affordabilityPct,
		DebtServiceRatioPct:     debtServicePct,
		Compliant:               compliant,
		DeclineReasons:          []string{},
	}

	c.logger.WithFields(logger.Fields{
		"gross_income":  grossIncome.StringFixed(2),
		"discretionary": discretionary.StringFixed(2),
		"max_loan":      maxLoan.StringFixed(2),
		"compliant":     compliant,
	}).Info("Affordability assessment computed")

	return assessment
}

// MaxLoanForPayment reverse-solves the standard fixed-rate amortization: the
// principal a fixed instalment can service at the policy rate and term.
func (c *Calculator) MaxLoanForPayment(payment decimal.Decimal) decimal.Decimal {
	if !payment.IsPositive() {
		return decimal.Zero
	}

	rate := c.policy.MonthlyRate()
	term := decimal.NewFromInt(int64(c.policy.TermMonths))

	if rate.IsZero() {
		return payment.Mul(term)
	}

	one := decimal.NewFromInt(1)
	factor := one.Add(rate).Pow(term)

	return payment.Mul(factor.Sub(one)).Div(rate.Mul(factor))
}

// InstalmentForLoan computes the forward annuity instalment for a principal
// at the policy rate and term. It is the inverse of MaxLoanForPayment.
func (c *Calculator) InstalmentForLoan(principal decimal.Decimal) decimal.Decimal {
	if !principal.IsPositive() {
		return decimal.Zero
	}

	rate := c.policy.MonthlyRate()
	term := decimal.NewFromInt(int64(c.policy.TermMonths))

	if rate.IsZero() {
		return principal.Div(term)
	}

	one := decimal.NewFromInt(1)
	factor := one.Add(rate).Pow(term)

	return principal.Mul(rate.Mul(factor)).Div(factor.Sub(one))
}

// zeroedAssessment is the well-formed degenerate result: every derived figure
// zero, non-compliant, reasons left for the explainer.
func zeroedAssessment(recurringExpense decimal.Decimal) *models.AffordabilityAssessment {
	return &models.AffordabilityAssessment{
		GrossMonthlyIncome:      decimal.Zero,
		NetMonthlyIncome:        decimal.Zero,
		RecurringMonthlyExpense: recurringExpense,
		EstimatedOtherDebt:      decimal.Zero,
		DiscretionaryIncome:     decimal.Zero,
		MaxMonthlyPayment:       decimal.Zero,
		MaxLoanAmount:           decimal.Zero,
		AffordabilityRatioPct:   0,
		DebtServiceRatioPct:     0,
		Compliant:               false,
		DeclineReasons:          []string{},
	}
}
