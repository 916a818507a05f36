// Package extractor normalizes raw statement input into transactions.
//
// Two input modes share one output contract:
//   - Text mode: a newline-separated blob from an upstream document decoder.
//     Each line is scanned for a date token and the last amount-shaped token;
//     the description is the substring between them.
//   - Tabular mode: rows of column-name to cell-value mappings with loosely
//     named columns, resolved case-insensitively against role hints.
//
// Extraction is best effort by contract: a line or row that fails to
// normalize is skipped and counted, never fatal to the batch. Only a run that
// yields zero transactions is surfaced to the caller, and that happens one
// level up in the pipeline as an explicit empty-result state.
//
// Example usage:
//
//	ex, err := extractor.New(extractor.DefaultConfig())
//	transactions, stats, err := ex.ExtractText(blob)
//	log.Infof("extracted %d, skipped %d", len(transactions), stats.Skipped)
package extractor

import (
	"fmt"
	"strings"

	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"
)

// Row is a single tabular statement row as delivered by the upstream decoder.
// Column names are normalized here, not by the caller.
type Row map[string]string

// Config holds configuration for statement extraction
type Config struct {
	// MinLineLength is the shortest text line worth scanning for a
	// date/amount pair
	MinLineLength int `json:"min_line_length"`

	// DescriptionColumns are the exact (normalized) column names accepted
	// as the description role in tabular mode
	DescriptionColumns []string `json:"description_columns"`

	// DateColumnHint is the substring identifying a date column
	DateColumnHint string `json:"date_column_hint"`

	// AmountColumnHint is the substring identifying an amount column
	AmountColumnHint string `json:"amount_column_hint"`

	// MaxSkipSamples bounds how many skipped inputs are retained for
	// observability
	MaxSkipSamples int `json:"max_skip_samples"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MinLineLength:      12,
		DescriptionColumns: []string{"description", "details", "narration", "reference"},
		DateColumnHint:     "date",
		AmountColumnHint:   "amount",
		MaxSkipSamples:     10,
	}
}

// Validate checks if the extraction configuration is valid
func (c *Config) Validate() error {
	if c.MinLineLength < 0 {
		return fmt.Errorf("min line length cannot be negative: %d", c.MinLineLength)
	}

	if len(c.DescriptionColumns) == 0 {
		return fmt.Errorf("at least one description column name is required")
	}

	if strings.TrimSpace(c.DateColumnHint) == "" {
		return fmt.Errorf("date column hint cannot be empty")
	}

	if strings.TrimSpace(c.AmountColumnHint) == "" {
		return fmt.Errorf("amount column hint cannot be empty")
	}

	if c.MaxSkipSamples < 0 {
		return fmt.Errorf("max skip samples cannot be negative: %d", c.MaxSkipSamples)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.DescriptionColumns = append([]string(nil), c.DescriptionColumns...)
	return &clone
}

// Stats holds statistics about an extraction run. Skipped inputs are counted
// and sampled but never fail the batch.
type Stats struct {
	LinesScanned int            `json:"lines_scanned"`
	RowsScanned  int            `json:"rows_scanned"`
	Extracted    int            `json:"extracted"`
	Skipped      int            `json:"skipped"`
	StrategyHits map[string]int `json:"strategy_hits,omitempty"`
	SkipSamples  []string       `json:"skip_samples,omitempty"`
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		StrategyHits: make(map[string]int),
	}
}

func (s *Stats) addSkip(sample string, max int) {
	s.Skipped++
	if len(s.SkipSamples) < max {
		s.SkipSamples = append(s.SkipSamples, sample)
	}
}

// String returns a human-readable summary of extraction statistics
func (s *Stats) String() string {
	scanned := s.LinesScanned + s.RowsScanned
	return fmt.Sprintf("Scanned %d inputs, extracted %d transactions, skipped %d",
		scanned, s.Extracted, s.Skipped)
}

// Extractor turns raw statement input into normalized transactions.
type Extractor struct {
	config     *Config
	strategies []DateStrategy
	logger     logger.Logger
}

// New creates an Extractor with the given configuration and the default
// ordered date strategy list.
func New(config *Config) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"extractor_config",
			config,
			err,
		).WithSuggestion("Check the extractor configuration values")
	}

	log := logger.GetGlobalLogger().WithComponent("extractor")
	log.WithFields(logger.Fields{
		"min_line_length": config.MinLineLength,
		"date_hint":       config.DateColumnHint,
		"amount_hint":     config.AmountColumnHint,
	}).Debug("Created extractor")

	return &Extractor{
		config:     config,
		strategies: DefaultDateStrategies(),
		logger:     log,
	}, nil
}

// Strategies returns the ordered date extraction strategies in use.
func (e *Extractor) Strategies() []DateStrategy {
	return append([]DateStrategy(nil), e.strategies...)
}
