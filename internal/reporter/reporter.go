// Package reporter renders pipeline results for human and machine consumers.
//
// Supported output formats:
//   - Console: readable summary for terminal display
//   - JSON: the full result in its stable field-named shape
//   - CSV: assessment figures and evidence rows for spreadsheets
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/internal/pipeline"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeEvidence includes the recurring-series evidence tables
	IncludeEvidence bool `json:"include_evidence"`

	// IncludeExtractionStats includes scan/skip counts
	IncludeExtractionStats bool `json:"include_extraction_stats"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		IncludeEvidence:        true,
		IncludeExtractionStats: true,
		CSVDelimiter:           ',',
		CSVHeaders:             true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates assessment reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders a pipeline result to the provided writer
func (rg *ReportGenerator) GenerateReport(result *pipeline.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("pipeline result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *pipeline.Result, writer io.Writer) error {
	var b strings.Builder
	a := result.Assessment

	b.WriteString("AFFORDABILITY ASSESSMENT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	verdict := "DECLINED"
	if a.Qualifies() {
		verdict = "QUALIFIES"
	}
	b.WriteString(fmt.Sprintf("Verdict:                  %s\n\n", verdict))

	b.WriteString(fmt.Sprintf("Gross monthly income:     R%s  (%s)\n", a.GrossMonthlyIncome.StringFixed(2), result.IncomeSource))
	b.WriteString(fmt.Sprintf("Net monthly income:       R%s\n", a.NetMonthlyIncome.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Recurring expenses:       R%s\n", a.RecurringMonthlyExpense.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Estimated other debt:     R%s\n", a.EstimatedOtherDebt.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Discretionary income:     R%s\n", a.DiscretionaryIncome.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Max monthly payment:      R%s\n", a.MaxMonthlyPayment.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Max loan amount:          R%s\n", a.MaxLoanAmount.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Affordability ratio:      %.1f%%\n", a.AffordabilityRatioPct))
	b.WriteString(fmt.Sprintf("Debt-service ratio:       %.1f%%\n", a.DebtServiceRatioPct))

	if len(result.Reasons) > 0 {
		b.WriteString("\nDecline reasons:\n")
		for i, reason := range result.Reasons {
			b.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, reason.Code, reason.Message))
		}
	}

	if rg.config.IncludeEvidence {
		writeEvidenceSection(&b, "Income evidence", result.IncomeEvidence)
		writeEvidenceSection(&b, "Expense evidence", result.ExpenseEvidence)
	}

	if rg.config.IncludeExtractionStats && result.ExtractionStats != nil {
		b.WriteString(fmt.Sprintf("\nExtraction: %s\n", result.ExtractionStats.String()))
	}

	_, err := writer.Write([]byte(b.String()))
	return err
}

func writeEvidenceSection(b *strings.Builder, title string, evidence []models.SeriesEvidence) {
	if len(evidence) == 0 {
		return
	}

	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	for _, e := range evidence {
		label := e.Label
		if e.Category != "" {
			label = fmt.Sprintf("%s (%s)", e.Label, e.Category)
		}
		b.WriteString(fmt.Sprintf("  %-40s R%-12s x%d  %s to %s\n",
			label, e.Representative.StringFixed(2), e.Count,
			e.FirstSeen.Format("2006-01-02"), e.LastSeen.Format("2006-01-02")))
	}
}

// jsonReport wraps the result with generation metadata
type jsonReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Result      *pipeline.Result `json:"result"`
}

func (rg *ReportGenerator) generateJSONReport(result *pipeline.Result, writer io.Writer) error {
	report := jsonReport{
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateCSVReport(result *pipeline.Result, writer io.Writer) error {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter
	a := result.Assessment

	if rg.config.CSVHeaders {
		if err := w.Write([]string{"section", "label", "category", "amount", "count", "detail"}); err != nil {
			return err
		}
	}

	verdict := "declined"
	if a.Qualifies() {
		verdict = "qualifies"
	}

	assessmentRows := [][]string{
		{"assessment", "verdict", "", "", "", verdict},
		{"assessment", "gross_monthly_income", "", a.GrossMonthlyIncome.StringFixed(2), "", string(result.IncomeSource)},
		{"assessment", "net_monthly_income", "", a.NetMonthlyIncome.StringFixed(2), "", ""},
		{"assessment", "recurring_monthly_expense", "", a.RecurringMonthlyExpense.StringFixed(2), "", ""},
		{"assessment", "estimated_other_debt", "", a.EstimatedOtherDebt.StringFixed(2), "", ""},
		{"assessment", "discretionary_income", "", a.DiscretionaryIncome.StringFixed(2), "", ""},
		{"assessment", "max_monthly_payment", "", a.MaxMonthlyPayment.StringFixed(2), "", ""},
		{"assessment", "max_loan_amount", "", a.MaxLoanAmount.StringFixed(2), "", ""},
		{"assessment", "affordability_ratio_pct", "", fmt.Sprintf("%.2f", a.AffordabilityRatioPct), "", ""},
		{"assessment", "debt_service_ratio_pct", "", fmt.Sprintf("%.2f", a.DebtServiceRatioPct), "", ""},
	}

	for _, row := range assessmentRows {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, reason := range result.Reasons {
		if err := w.Write([]string{"reason", string(reason.Code), "", "", "", reason.Message}); err != nil {
			return err
		}
	}

	if rg.config.IncludeEvidence {
		if err := writeEvidenceRows(w, "income_evidence", result.IncomeEvidence); err != nil {
			return err
		}
		if err := writeEvidenceRows(w, "expense_evidence", result.ExpenseEvidence); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeEvidenceRows(w *csv.Writer, section string, evidence []models.SeriesEvidence) error {
	for _, e := range evidence {
		detail := fmt.Sprintf("%s to %s",
			e.FirstSeen.Format("2006-01-02"), e.LastSeen.Format("2006-01-02"))
		row := []string{
			section,
			e.Label,
			e.Category,
			e.Representative.StringFixed(2),
			strconv.Itoa(e.Count),
			detail,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
