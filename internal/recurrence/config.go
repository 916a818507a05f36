// Package recurrence groups normalized transactions into candidate recurring
// series and decides which of them represent genuine periodic income or
// expense obligations.
//
// The clustering key is the pair (normalized description prefix, amount
// rounded to a bucket), which absorbs the small statement-to-statement
// variance banks introduce through fees and interest rounding. A group
// qualifies as recurring only when its occurrence count meets the configured
// minimum and its dates span at least two distinct calendar months.
//
// Income and expense aggregation follow different rules on purpose: the
// applicant's monthly income is the maximum qualifying credit series (income
// streams are not added), while the recurring expense load is the sum of all
// qualifying debit series.
//
// Example usage:
//
//	clusterer, err := recurrence.NewClusterer(recurrence.DefaultClusterConfig())
//	credits := clusterer.DetectSeries(transactions, recurrence.PolarityCredit)
//	income, source := clusterer.SelectIncome(credits, transactions)
package recurrence

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClusterConfig holds the thresholds governing recurring pattern detection.
// The observed bank vocabularies and policy variants disagree on several of
// these values, so all of them are configuration rather than hard law.
type ClusterConfig struct {
	// MinOccurrences is the minimum number of occurrences for a group to
	// qualify as recurring
	MinOccurrences int `json:"min_occurrences"`

	// MinDistinctMonths is the minimum number of distinct calendar months
	// the occurrences must span
	MinDistinctMonths int `json:"min_distinct_months"`

	// AmountBucketSize is the rounding granularity applied to amounts
	// before grouping
	AmountBucketSize decimal.Decimal `json:"amount_bucket_size"`

	// DebitFloor is the minimum absolute magnitude for a debit to be
	// considered a real expense rather than rounding noise
	DebitFloor decimal.Decimal `json:"debit_floor"`

	// CreditFloor is the minimum absolute magnitude for a credit to be
	// considered candidate income; set higher than the debit floor to
	// exclude minor refunds
	CreditFloor decimal.Decimal `json:"credit_floor"`

	// DescriptionPrefixLength bounds the normalized description prefix
	// used in the clustering key
	DescriptionPrefixLength int `json:"description_prefix_length"`

	// RequireCategoryForExpense, when set, only lets a debit group qualify
	// as recurring if the keyword vocabulary tags it with a category
	RequireCategoryForExpense bool `json:"require_category_for_expense"`

	// FallbackMonthlyIncome is used when no recurring credit series
	// qualifies and no single credit clears the credit floor
	FallbackMonthlyIncome decimal.Decimal `json:"fallback_monthly_income"`

	// Categories is the keyword to category vocabulary used to tag
	// expense groups
	Categories CategoryMap `json:"categories"`
}

// DefaultClusterConfig returns the canonical strict configuration.
func DefaultClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		MinOccurrences:            3,
		MinDistinctMonths:         2,
		AmountBucketSize:          decimal.NewFromInt(100),
		DebitFloor:                decimal.NewFromInt(250),
		CreditFloor:               decimal.NewFromInt(2000),
		DescriptionPrefixLength:   24,
		RequireCategoryForExpense: false,
		FallbackMonthlyIncome:     decimal.NewFromInt(15000),
		Categories:                DefaultCategoryMap(),
	}
}

// LenientClusterConfig returns a configuration matching the looser policy
// variant: two occurrences qualify and amounts bucket to the nearest ten.
func LenientClusterConfig() *ClusterConfig {
	config := DefaultClusterConfig()
	config.MinOccurrences = 2
	config.AmountBucketSize = decimal.NewFromInt(10)
	config.DebitFloor = decimal.NewFromInt(100)
	return config
}

// Validate checks if the cluster configuration is valid
func (c *ClusterConfig) Validate() error {
	if c.MinOccurrences < 2 {
		return fmt.Errorf("min occurrences must be at least 2: %d", c.MinOccurrences)
	}

	if c.MinDistinctMonths < 1 {
		return fmt.Errorf("min distinct months must be at least 1: %d", c.MinDistinctMonths)
	}

	if !c.AmountBucketSize.IsPositive() {
		return fmt.Errorf("amount bucket size must be positive: %s", c.AmountBucketSize)
	}

	if c.DebitFloor.IsNegative() {
		return fmt.Errorf("debit floor cannot be negative: %s", c.DebitFloor)
	}

	if c.CreditFloor.IsNegative() {
		return fmt.Errorf("credit floor cannot be negative: %s", c.CreditFloor)
	}

	if c.CreditFloor.LessThan(c.DebitFloor) {
		return fmt.Errorf("credit floor %s should not be below debit floor %s",
			c.CreditFloor, c.DebitFloor)
	}

	if c.DescriptionPrefixLength <= 0 {
		return fmt.Errorf("description prefix length must be positive: %d", c.DescriptionPrefixLength)
	}

	if c.FallbackMonthlyIncome.IsNegative() {
		return fmt.Errorf("fallback monthly income cannot be negative: %s", c.FallbackMonthlyIncome)
	}

	return nil
}

// Clone creates a deep copy of the cluster configuration
func (c *ClusterConfig) Clone() *ClusterConfig {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Categories = c.Categories.Clone()
	return &clone
}

// String returns a human-readable description of the configuration
func (c *ClusterConfig) String() string {
	return fmt.Sprintf("ClusterConfig{MinOccurrences: %d, MinMonths: %d, Bucket: %s, DebitFloor: %s, CreditFloor: %s}",
		c.MinOccurrences, c.MinDistinctMonths, c.AmountBucketSize, c.DebitFloor, c.CreditFloor)
}
