// Package decision evaluates the compliance predicates behind a declined
// application and renders them as ordered, human-readable reasons.
//
// Every predicate is evaluated independently so a decline carries all
// applicable reasons, not just the first one that fired. A decline with no
// fired predicate still emits a generic unclear-data reason: the explainer is
// never silent on a decline.
package decision

import (
	"fmt"

	"github.com/nyefin-mf/ai-affordability-agent/internal/affordability"
	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"

	"github.com/shopspring/decimal"
)

// ReasonCode identifies a decline predicate.
type ReasonCode string

const (
	// ReasonNoTransactions fires when extraction produced nothing to assess
	ReasonNoTransactions ReasonCode = "no_transactions_found"

	// ReasonIncomeBelowFloor fires when gross income is under the
	// low-income floor
	ReasonIncomeBelowFloor ReasonCode = "income_below_floor"

	// ReasonExpenseLoadExcessive fires when recurring expenses consume too
	// high a fraction of gross income
	ReasonExpenseLoadExcessive ReasonCode = "expense_load_excessive"

	// ReasonNoDiscretionary fires when discretionary income is zero or
	// negative
	ReasonNoDiscretionary ReasonCode = "discretionary_non_positive"

	// ReasonAffordabilityRatioLow fires when the affordability ratio is
	// below the policy minimum
	ReasonAffordabilityRatioLow ReasonCode = "affordability_ratio_below_minimum"

	// ReasonDebtServiceRatioHigh fires when the debt-service ratio exceeds
	// the policy maximum
	ReasonDebtServiceRatioHigh ReasonCode = "debt_service_ratio_above_maximum"

	// ReasonLoanBelowFloor fires when the computed loan is under the
	// minimum loan floor
	ReasonLoanBelowFloor ReasonCode = "loan_below_minimum"

	// ReasonUnclearData is the fallback when a decline has no fired
	// predicate
	ReasonUnclearData ReasonCode = "compliance_calculation_unclear"
)

// Reason pairs a decline code with its human-readable explanation.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

// String returns the formatted reason
func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Explainer produces decline reasons for a computed assessment.
type Explainer struct {
	policy *affordability.Policy
	logger logger.Logger
}

// NewExplainer creates an Explainer bound to the given policy.
func NewExplainer(policy *affordability.Policy) (*Explainer, error) {
	if policy == nil {
		policy = affordability.DefaultPolicy()
	}

	if err := policy.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"explainer_policy",
			policy,
			err,
		).WithSuggestion("Check the affordability policy constants")
	}

	return &Explainer{
		policy: policy,
		logger: logger.GetGlobalLogger().WithComponent("explainer"),
	}, nil
}

// Explain evaluates every decline predicate against the assessment and the
// raw income/expense figures. It returns nil for a qualifying outcome.
func (e *Explainer) Explain(assessment *models.AffordabilityAssessment, grossIncome, recurringExpense decimal.Decimal) []Reason {
	if assessment.Compliant && assessment.MaxLoanAmount.GreaterThanOrEqual(e.policy.MinimumLoanAmount) {
		return nil
	}

	var reasons []Reason

	if grossIncome.LessThan(e.policy.LowIncomeFloor) {
		reasons = append(reasons, Reason{
			Code: ReasonIncomeBelowFloor,
			Message: fmt.Sprintf("gross monthly income R%s is below the minimum of R%s",
				grossIncome.StringFixed(2), e.policy.LowIncomeFloor.StringFixed(2)),
		})
	}

	if grossIncome.IsPositive() {
		expenseLoadPct := recurringExpense.Div(grossIncome).InexactFloat64() * 100
		if expenseLoadPct > e.policy.HighExpenseLoadPct {
			reasons = append(reasons, Reason{
				Code: ReasonExpenseLoadExcessive,
				Message: fmt.Sprintf("recurring expenses of R%s consume %.1f%% of gross income, above the %.0f%% limit",
					recurringExpense.StringFixed(2), expenseLoadPct, e.policy.HighExpenseLoadPct),
			})
		}
	}

	if !assessment.DiscretionaryIncome.IsPositive() {
		reasons = append(reasons, Reason{
			Code: ReasonNoDiscretionary,
			Message: fmt.Sprintf("discretionary income of R%s leaves nothing to service a loan",
				assessment.DiscretionaryIncome.StringFixed(2)),
		})
	}

	if assessment.DiscretionaryIncome.IsPositive() &&
		assessment.AffordabilityRatioPct < e.policy.MinAffordabilityRatioPct {
		reasons = append(reasons, Reason{
			Code: ReasonAffordabilityRatioLow,
			Message: fmt.Sprintf("affordability ratio of %.1f%% is below the %.0f%% minimum",
				assessment.AffordabilityRatioPct, e.policy.MinAffordabilityRatioPct),
		})
	}

	if assessment.DebtServiceRatioPct > e.policy.MaxDebtServiceRatioPct {
		reasons = append(reasons, Reason{
			Code: ReasonDebtServiceRatioHigh,
			Message: fmt.Sprintf("debt-service ratio of %.1f%% exceeds the %.0f%% maximum",
				assessment.DebtServiceRatioPct, e.policy.MaxDebtServiceRatioPct),
		})
	}

	if assessment.MaxLoanAmount.LessThan(e.policy.MinimumLoanAmount) {
		reasons = append(reasons, Reason{
			Code: ReasonLoanBelowFloor,
			Message: fmt.Sprintf("maximum qualifying loan of R%s is below the R%s floor",
				assessment.MaxLoanAmount.StringFixed(2), e.policy.MinimumLoanAmount.StringFixed(2)),
		})
	}

	// A decline must never go unexplained.
	if len(reasons) == 0 {
		reasons = append(reasons, Reason{
			Code:    ReasonUnclearData,
			Message: "compliance could not be established from the statement data; figures may be incomplete or unclear",
		})
	}

	e.logger.WithField("reasons", len(reasons)).Debug("Decline reasons produced")
	return reasons
}

// NoTransactionsReason is the single reason attached to the explicit
// empty-extraction state.
func NoTransactionsReason() Reason {
	return Reason{
		Code:    ReasonNoTransactions,
		Message: "no transactions could be extracted from the submitted statement",
	}
}

// Messages flattens reasons into the ordered human-readable list carried on
// the assessment record.
func Messages(reasons []Reason) []string {
	messages := make([]string, 0, len(reasons))
	for _, r := range reasons {
		messages = append(messages, r.Message)
	}
	return messages
}
