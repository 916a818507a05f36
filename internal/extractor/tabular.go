package extractor

import (
	"strings"

	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"
)

// columnRoles holds the resolved column name for each transaction field.
type columnRoles struct {
	date        string
	description string
	amount      string
}

func (cr columnRoles) complete() bool {
	return cr.date != "" && cr.description != "" && cr.amount != ""
}

// ExtractRows normalizes tabular statement rows into transactions. Column
// roles are resolved against the configured hints: any column containing
// "date" supplies the date, an exact match on the description name set
// supplies the description, and any column containing "amount" supplies the
// amount. A row missing a role or failing to parse is skipped individually.
func (e *Extractor) ExtractRows(rows []Row) ([]*models.Transaction, *Stats, error) {
	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "extract_rows",
		Total:     int64(len(rows)),
		Logger:    e.logger,
	})

	stats := NewStats()
	var transactions []*models.Transaction

	for _, row := range rows {
		stats.RowsScanned++
		progress.Increment()

		tx, ok := e.extractRow(row)
		if !ok {
			stats.addSkip(describeRow(row), e.config.MaxSkipSamples)
			continue
		}

		stats.Extracted++
		transactions = append(transactions, tx)
	}

	progress.Complete()
	e.logger.WithFields(logger.Fields{
		"rows_scanned": stats.RowsScanned,
		"extracted":    stats.Extracted,
		"skipped":      stats.Skipped,
	}).Info("Tabular extraction complete")

	return transactions, stats, nil
}

func (e *Extractor) extractRow(row Row) (*models.Transaction, bool) {
	roles := e.resolveColumns(row)
	if !roles.complete() {
		return nil, false
	}

	date, err := models.ParseStatementDate(row[roles.date])
	if err != nil {
		e.logger.WithError(err).WithField("value", row[roles.date]).
			Debug("Row date failed to parse")
		return nil, false
	}

	amount, err := models.ParseAmount(row[roles.amount])
	if err != nil {
		e.logger.WithError(err).WithField("value", row[roles.amount]).
			Debug("Row amount failed to parse")
		return nil, false
	}

	description := models.TruncateDescription(row[roles.description])
	if description == "" {
		return nil, false
	}

	return models.NewTransaction(date, description, amount), true
}

// resolveColumns matches the row's column names, case-insensitively and
// whitespace-normalized, against the configured role hints.
func (e *Extractor) resolveColumns(row Row) columnRoles {
	var roles columnRoles

	for name := range row {
		normalized := normalizeColumnName(name)

		switch {
		case roles.date == "" && strings.Contains(normalized, e.config.DateColumnHint):
			roles.date = name
		case roles.description == "" && e.isDescriptionColumn(normalized):
			roles.description = name
		case roles.amount == "" && strings.Contains(normalized, e.config.AmountColumnHint):
			roles.amount = name
		}
	}

	return roles
}

func (e *Extractor) isDescriptionColumn(normalized string) bool {
	for _, candidate := range e.config.DescriptionColumns {
		if normalized == candidate {
			return true
		}
	}
	return false
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func describeRow(row Row) string {
	var parts []string
	for name, value := range row {
		parts = append(parts, name+"="+value)
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, ", ")
}
