// Package pipeline wires the affordability stages into a single evaluation:
// extraction, recurring pattern detection, affordability calculation, and
// decision explanation.
//
// Data flows strictly forward. Each stage consumes the previous stage's
// immutable output and no stage mutates another's result after emission. One
// submitted statement produces one assessment; the pipeline holds no state
// across invocations and performs no I/O.
//
// Example usage:
//
//	p, err := pipeline.New(nil, nil, nil)
//	result, err := p.Evaluate(&pipeline.Request{Text: statementBlob})
//	fmt.Println(result.Assessment.MaxLoanAmount)
package pipeline

import (
	"github.com/nyefin-mf/ai-affordability-agent/internal/affordability"
	"github.com/nyefin-mf/ai-affordability-agent/internal/decision"
	"github.com/nyefin-mf/ai-affordability-agent/internal/extractor"
	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/internal/recurrence"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"
)

// Request carries one submitted statement in either input mode. Text takes
// precedence when both are set.
type Request struct {
	// Text is a newline-separated statement blob from the upstream
	// document decoder
	Text string

	// Rows are tabular statement rows with loosely named columns
	Rows []extractor.Row
}

// Result is the terminal output of one pipeline run: the assessment plus the
// recurring-series evidence it was derived from, in a stable serializable
// shape.
type Result struct {
	Assessment      *models.AffordabilityAssessment `json:"assessment"`
	IncomeSource    recurrence.IncomeSource         `json:"income_source"`
	IncomeEvidence  []models.SeriesEvidence         `json:"income_evidence"`
	ExpenseEvidence []models.SeriesEvidence         `json:"expense_evidence"`
	Reasons         []decision.Reason               `json:"reasons,omitempty"`
	ExtractionStats *extractor.Stats                `json:"extraction_stats"`
}

// Pipeline coordinates the four affordability stages.
type Pipeline struct {
	extractor  *extractor.Extractor
	clusterer  *recurrence.Clusterer
	calculator *affordability.Calculator
	explainer  *decision.Explainer
	logger     logger.Logger
}

// New creates a Pipeline. Nil configurations fall back to the canonical
// defaults of each stage.
func New(extractorConfig *extractor.Config, clusterConfig *recurrence.ClusterConfig, policy *affordability.Policy) (*Pipeline, error) {
	ex, err := extractor.New(extractorConfig)
	if err != nil {
		return nil, err
	}

	clusterer, err := recurrence.NewClusterer(clusterConfig)
	if err != nil {
		return nil, err
	}

	calculator, err := affordability.NewCalculator(policy)
	if err != nil {
		return nil, err
	}

	explainer, err := decision.NewExplainer(policy)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		extractor:  ex,
		clusterer:  clusterer,
		calculator: calculator,
		explainer:  explainer,
		logger:     logger.GetGlobalLogger().WithComponent("pipeline"),
	}, nil
}

// Evaluate runs the full pipeline over one statement. Per-item extraction
// failures are absorbed as skip counts; a run that extracts nothing returns
// the explicit empty-result state, not an error.
func (p *Pipeline) Evaluate(request *Request) (*Result, error) {
	if request == nil {
		return nil, errors.ValidationError(
			errors.CodeMissingField,
			"request",
			nil,
			nil,
		).WithSuggestion("Provide a statement blob or tabular rows")
	}

	transactions, stats, err := p.extract(request)
	if err != nil {
		return nil, err
	}

	if len(transactions) == 0 {
		p.logger.WithFields(logger.Fields{
			"skipped": stats.Skipped,
		}).Warn("Extraction produced no transactions")
		return emptyResult(stats), nil
	}

	credits := p.clusterer.DetectSeries(transactions, recurrence.PolarityCredit)
	debits := p.clusterer.DetectSeries(transactions, recurrence.PolarityDebit)

	grossIncome, incomeSource := p.clusterer.SelectIncome(credits, transactions)
	recurringExpense := p.clusterer.SumExpenses(debits)

	assessment := p.calculator.Assess(grossIncome, recurringExpense)

	reasons := p.explainer.Explain(assessment, grossIncome, recurringExpense)
	assessment.DeclineReasons = decision.Messages(reasons)

	result := &Result{
		Assessment:      assessment,
		IncomeSource:    incomeSource,
		IncomeEvidence:  evidenceList(credits),
		ExpenseEvidence: evidenceList(debits),
		Reasons:         reasons,
		ExtractionStats: stats,
	}

	p.logger.WithFields(logger.Fields{
		"transactions":   len(transactions),
		"income_series":  len(credits),
		"expense_series": len(debits),
		"income_source":  string(incomeSource),
		"qualifies":      assessment.Qualifies(),
	}).Info("Pipeline evaluation complete")

	return result, nil
}

func (p *Pipeline) extract(request *Request) ([]*models.Transaction, *extractor.Stats, error) {
	if request.Text != "" {
		return p.extractor.ExtractText(request.Text)
	}
	return p.extractor.ExtractRows(request.Rows)
}

// emptyResult is the ExtractionEmpty terminal state: a zeroed non-compliant
// assessment carrying exactly the no-transactions reason.
func emptyResult(stats *extractor.Stats) *Result {
	reason := decision.NoTransactionsReason()

	assessment := &models.AffordabilityAssessment{
		Compliant:      false,
		DeclineReasons: []string{reason.Message},
	}

	return &Result{
		Assessment:      assessment,
		IncomeEvidence:  []models.SeriesEvidence{},
		ExpenseEvidence: []models.SeriesEvidence{},
		Reasons:         []decision.Reason{reason},
		ExtractionStats: stats,
	}
}

func evidenceList(series []*models.RecurringSeries) []models.SeriesEvidence {
	evidence := make([]models.SeriesEvidence, 0, len(series))
	for _, s := range series {
		evidence = append(evidence, s.Evidence())
	}
	return evidence
}
