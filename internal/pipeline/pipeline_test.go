package pipeline

import (
	"strings"
	"testing"

	"github.com/nyefin-mf/ai-affordability-agent/internal/decision"
	"github.com/nyefin-mf/ai-affordability-agent/internal/extractor"
	"github.com/nyefin-mf/ai-affordability-agent/internal/recurrence"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"

	"github.com/shopspring/decimal"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	p, err := New(nil, nil, nil)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

// statementText builds a three-month statement with one salary series and
// three recurring expense series, plus one-off noise lines.
func statementText() string {
	var lines []string
	for _, month := range []string{"01", "02", "03"} {
		lines = append(lines,
			"2024-"+month+"-25  SALARY ACME LTD            18,500.00",
			"2024-"+month+"-01  SANTAM INSURANCE DO        -950.00",
			"2024-"+month+"-02  WESBANK VEHICLE FIN        -3,200.00",
			"2024-"+month+"-03  ABSA LOAN REPAYMENT        -1,850.00",
			"2024-"+month+"-12  POS WOOLWORTHS "+month+"       -432.19",
		)
	}
	lines = append(lines, "CLOSING BALANCE", "")
	return strings.Join(lines, "\n")
}

func TestEvaluateTextStatement(t *testing.T) {
	p := newTestPipeline(t)

	result, err := p.Evaluate(&Request{Text: statementText()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IncomeSource != recurrence.IncomeFromRecurringSeries {
		t.Errorf("expected recurring series income source, got %s", result.IncomeSource)
	}

	a := result.Assessment
	if !a.GrossMonthlyIncome.Equal(decimal.NewFromInt(18500)) {
		t.Errorf("expected gross income 18500, got %s", a.GrossMonthlyIncome)
	}
	if !a.RecurringMonthlyExpense.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("expected recurring expense 6000, got %s", a.RecurringMonthlyExpense)
	}

	// net 13875, otherDebt 1850, discretionary 6025, payment ~4016.67:
	// both ratio gates pass.
	if !a.Compliant {
		t.Errorf("expected compliant outcome, reasons: %v", a.DeclineReasons)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("qualifying outcome must carry no reasons, got %v", result.Reasons)
	}

	if len(result.IncomeEvidence) != 1 {
		t.Errorf("expected 1 income series in evidence, got %d", len(result.IncomeEvidence))
	}
	if len(result.ExpenseEvidence) != 3 {
		t.Errorf("expected 3 expense series in evidence, got %d", len(result.ExpenseEvidence))
	}

	if result.ExtractionStats == nil || result.ExtractionStats.Extracted != 15 {
		t.Errorf("expected 15 extracted transactions in stats, got %+v", result.ExtractionStats)
	}
}

func TestEvaluateTabularStatement(t *testing.T) {
	p := newTestPipeline(t)

	var rows []extractor.Row
	for _, month := range []string{"01", "02", "03"} {
		rows = append(rows,
			extractor.Row{"Date": "2024-" + month + "-25", "Description": "SALARY ACME LTD", "Amount": "18500.00"},
			extractor.Row{"Date": "2024-" + month + "-01", "Description": "SANTAM INSURANCE DO", "Amount": "-950.00"},
		)
	}

	result, err := p.Evaluate(&Request{Rows: rows})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Assessment.GrossMonthlyIncome.Equal(decimal.NewFromInt(18500)) {
		t.Errorf("expected gross income 18500, got %s", result.Assessment.GrossMonthlyIncome)
	}
	if !result.Assessment.RecurringMonthlyExpense.Equal(decimal.NewFromInt(950)) {
		t.Errorf("expected recurring expense 950, got %s", result.Assessment.RecurringMonthlyExpense)
	}
}

func TestEvaluateTextPrecedence(t *testing.T) {
	p := newTestPipeline(t)

	rows := []extractor.Row{
		{"Date": "2024-01-01", "Description": "ROW INCOME", "Amount": "9999.00"},
	}

	result, err := p.Evaluate(&Request{Text: statementText(), Rows: rows})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Text mode wins: stats count scanned lines, not rows.
	if result.ExtractionStats.RowsScanned != 0 {
		t.Error("text input must take precedence over rows")
	}
	if result.ExtractionStats.LinesScanned == 0 {
		t.Error("expected text lines to be scanned")
	}
}

func TestEvaluateEmptyExtraction(t *testing.T) {
	p := newTestPipeline(t)

	result, err := p.Evaluate(&Request{Text: "nothing resembling a transaction in here\nor here either"})
	if err != nil {
		t.Fatalf("empty extraction must not be an error: %v", err)
	}

	if result.Assessment.Compliant {
		t.Error("empty extraction must not be compliant")
	}
	if !result.Assessment.GrossMonthlyIncome.IsZero() || !result.Assessment.MaxLoanAmount.IsZero() {
		t.Error("empty extraction must carry zeroed figures")
	}

	if len(result.Reasons) != 1 {
		t.Fatalf("expected exactly one reason, got %v", result.Reasons)
	}
	if result.Reasons[0].Code != decision.ReasonNoTransactions {
		t.Errorf("expected %s, got %s", decision.ReasonNoTransactions, result.Reasons[0].Code)
	}

	if result.ExtractionStats == nil {
		t.Error("stats must be carried even on empty extraction")
	}
}

func TestEvaluateNilRequest(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Evaluate(nil)
	if err == nil {
		t.Fatal("expected error for nil request")
	}

	agentErr, ok := errors.AsAgentError(err)
	if !ok {
		t.Fatalf("expected an AgentError, got %T", err)
	}
	if agentErr.Category != errors.CategoryValidation {
		t.Errorf("expected validation category, got %s", agentErr.Category)
	}
}

func TestEvaluateFallbackIncome(t *testing.T) {
	p := newTestPipeline(t)

	// Debits only: no credit at all, so the configured fallback income is
	// used and reported as such.
	text := strings.Join([]string{
		"2024-01-01  SANTAM INSURANCE DO        -950.00",
		"2024-02-01  SANTAM INSURANCE DO        -950.00",
		"2024-03-01  SANTAM INSURANCE DO        -950.00",
	}, "\n")

	result, err := p.Evaluate(&Request{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IncomeSource != recurrence.IncomeFromFallbackDefault {
		t.Errorf("expected fallback income source, got %s", result.IncomeSource)
	}
	if !result.Assessment.GrossMonthlyIncome.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("expected fallback income 15000, got %s", result.Assessment.GrossMonthlyIncome)
	}
}

func TestEvaluateLargestCreditIncome(t *testing.T) {
	p := newTestPipeline(t)

	// Single large one-off credit: no recurring series qualifies, so the
	// largest credit above the floor is used.
	text := strings.Join([]string{
		"2024-01-15  EFT DEPOSIT J SMITH        12,000.00",
		"2024-01-01  SANTAM INSURANCE DO        -950.00",
		"2024-02-01  SANTAM INSURANCE DO        -950.00",
		"2024-03-01  SANTAM INSURANCE DO        -950.00",
	}, "\n")

	result, err := p.Evaluate(&Request{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IncomeSource != recurrence.IncomeFromLargestCredit {
		t.Errorf("expected largest credit income source, got %s", result.IncomeSource)
	}
	if !result.Assessment.GrossMonthlyIncome.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("expected income 12000, got %s", result.Assessment.GrossMonthlyIncome)
	}
}

func TestEvaluateDeclineReasonsAttached(t *testing.T) {
	p := newTestPipeline(t)

	// Salary with no recurring expenses reproduces the high debt-service
	// decline: reasons must appear both structured and flattened.
	text := strings.Join([]string{
		"2024-01-25  SALARY ACME LTD            20,000.00",
		"2024-02-25  SALARY ACME LTD            20,000.00",
		"2024-03-25  SALARY ACME LTD            20,000.00",
	}, "\n")

	result, err := p.Evaluate(&Request{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Assessment.Compliant {
		t.Error("expected non-compliant outcome")
	}
	if len(result.Reasons) == 0 {
		t.Fatal("expected structured decline reasons")
	}
	if len(result.Assessment.DeclineReasons) != len(result.Reasons) {
		t.Error("flattened reasons must mirror the structured list")
	}

	found := false
	for _, r := range result.Reasons {
		if r.Code == decision.ReasonDebtServiceRatioHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("expected debt service reason in %v", result.Reasons)
	}
}
