// Package config assembles component configurations for the CLI from flags
// and defaults.
package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nyefin-mf/ai-affordability-agent/internal/affordability"
	"github.com/nyefin-mf/ai-affordability-agent/internal/extractor"
	"github.com/nyefin-mf/ai-affordability-agent/internal/recurrence"

	"github.com/shopspring/decimal"
)

// AssessOptions carries the CLI overrides for one assessment run. Zero
// values mean "use the canonical default".
type AssessOptions struct {
	CategoriesFile    string
	Lenient           bool
	MinOccurrences    int
	TermMonths        int
	AnnualRatePct     float64
	NetIncomeFactor   float64
	OtherDebtFactor   float64
	BufferMultiplier  float64
	RequireCategories bool
}

// CreateExtractorConfig creates the extractor configuration.
func CreateExtractorConfig() *extractor.Config {
	return extractor.DefaultConfig()
}

// CreateClusterConfig builds the recurrence configuration from the options,
// loading the keyword vocabulary from YAML when a file is given.
func CreateClusterConfig(opts AssessOptions) (*recurrence.ClusterConfig, error) {
	var cfg *recurrence.ClusterConfig
	if opts.Lenient {
		cfg = recurrence.LenientClusterConfig()
	} else {
		cfg = recurrence.DefaultClusterConfig()
	}

	if opts.MinOccurrences > 0 {
		cfg.MinOccurrences = opts.MinOccurrences
	}
	cfg.RequireCategoryForExpense = opts.RequireCategories

	if opts.CategoriesFile != "" {
		categories, err := recurrence.LoadCategoryMap(opts.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
		cfg.Categories = categories
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CreatePolicy builds the affordability policy from the options.
func CreatePolicy(opts AssessOptions) (*affordability.Policy, error) {
	policy := affordability.DefaultPolicy()

	if opts.TermMonths > 0 {
		policy.TermMonths = opts.TermMonths
	}
	if opts.AnnualRatePct > 0 {
		policy.AnnualRatePct = decimal.NewFromFloat(opts.AnnualRatePct)
	}
	if opts.NetIncomeFactor > 0 {
		policy.NetIncomeFactor = decimal.NewFromFloat(opts.NetIncomeFactor)
	}
	if opts.OtherDebtFactor > 0 {
		policy.OtherDebtFactor = decimal.NewFromFloat(opts.OtherDebtFactor)
	}
	if opts.BufferMultiplier > 0 {
		policy.BufferMultiplier = decimal.NewFromFloat(opts.BufferMultiplier)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return policy, nil
}

// IsTabularFile reports whether the statement file should be read as CSV
// rows rather than a text blob.
func IsTabularFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".csv")
}

// LoadStatementRows reads a CSV statement into extractor rows. The header
// row supplies the column names; the extractor resolves their roles.
func LoadStatementRows(path string) ([]extractor.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("statement file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	var rows []extractor.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or malformed rows are the extractor's problem
			// to skip, not a reason to abort the read.
			continue
		}

		row := make(extractor.Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
