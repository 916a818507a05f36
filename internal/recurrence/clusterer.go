package recurrence

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"

	"github.com/shopspring/decimal"
)

// Polarity selects which side of the statement a clustering pass looks at.
type Polarity int

const (
	// PolarityCredit clusters inflows (candidate income)
	PolarityCredit Polarity = iota

	// PolarityDebit clusters outflows (candidate recurring expenses)
	PolarityDebit
)

// String returns the string representation of Polarity
func (p Polarity) String() string {
	switch p {
	case PolarityCredit:
		return "credit"
	case PolarityDebit:
		return "debit"
	default:
		return "unknown"
	}
}

// IncomeSource identifies which rule produced the selected monthly income, so
// the choice is inspectable rather than silently defaulted.
type IncomeSource string

const (
	// IncomeFromRecurringSeries means the maximum qualifying recurring
	// credit series was selected
	IncomeFromRecurringSeries IncomeSource = "recurring_series"

	// IncomeFromLargestCredit means no series qualified and the single
	// largest credit above the floor was used
	IncomeFromLargestCredit IncomeSource = "largest_credit"

	// IncomeFromFallbackDefault means no usable credit existed and the
	// configured fallback was used
	IncomeFromFallbackDefault IncomeSource = "fallback_default"
)

// Clusterer groups transactions into recurring series of a given polarity.
type Clusterer struct {
	config *ClusterConfig
	logger logger.Logger
}

// NewClusterer creates a Clusterer with the given configuration.
func NewClusterer(config *ClusterConfig) (*Clusterer, error) {
	if config == nil {
		config = DefaultClusterConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"cluster_config",
			config,
			err,
		).WithSuggestion("Check the recurrence clustering thresholds")
	}

	log := logger.GetGlobalLogger().WithComponent("clusterer")
	log.WithField("config", config.String()).Debug("Created clusterer")

	return &Clusterer{
		config: config,
		logger: log,
	}, nil
}

// Config returns a copy of the active configuration
func (c *Clusterer) Config() *ClusterConfig {
	return c.config.Clone()
}

// seriesKey is the clustering key: normalized description prefix plus
// bucketed amount.
type seriesKey struct {
	prefix string
	bucket string
}

// group accumulates the members of one candidate series during clustering.
type group struct {
	key    seriesKey
	bucket decimal.Decimal
	dates  []time.Time
	total  decimal.Decimal
	count  int
}

// DetectSeries groups the transactions of the given polarity into qualifying
// recurring series. The result is sorted by bucket amount, largest first.
func (c *Clusterer) DetectSeries(transactions []*models.Transaction, polarity Polarity) []*models.RecurringSeries {
	groups := make(map[seriesKey]*group)

	for _, tx := range transactions {
		if !c.matchesPolarity(tx, polarity) {
			continue
		}

		magnitude := tx.AbsAmount()
		if !c.clearsFloor(magnitude, polarity) {
			continue
		}

		key := seriesKey{
			prefix: normalizeDescription(tx.Description, c.config.DescriptionPrefixLength),
			bucket: c.bucketAmount(magnitude).String(),
		}
		if key.prefix == "" {
			continue
		}

		g, exists := groups[key]
		if !exists {
			g = &group{key: key, bucket: c.bucketAmount(magnitude)}
			groups[key] = g
		}
		g.dates = append(g.dates, tx.Date)
		g.total = g.total.Add(magnitude)
		g.count++
	}

	var series []*models.RecurringSeries
	for _, g := range groups {
		candidate := &models.RecurringSeries{
			Label:          g.key.prefix,
			BucketAmount:   g.bucket,
			Representative: g.total.Div(decimal.NewFromInt(int64(g.count))).Round(2),
			Occurrences:    g.dates,
			Count:          g.count,
		}

		if polarity == PolarityDebit {
			if category, ok := c.config.Categories.Categorize(g.key.prefix); ok {
				candidate.Category = category
			}
		}

		if !c.qualifies(candidate, polarity) {
			continue
		}

		series = append(series, candidate)
	}

	sort.Slice(series, func(i, j int) bool {
		if !series[i].BucketAmount.Equal(series[j].BucketAmount) {
			return series[i].BucketAmount.GreaterThan(series[j].BucketAmount)
		}
		return series[i].Label < series[j].Label
	})

	c.logger.WithFields(logger.Fields{
		"polarity":         polarity.String(),
		"candidate_groups": len(groups),
		"qualifying":       len(series),
	}).Debug("Recurring series detection complete")

	return series
}

// qualifies applies the recurrence test: enough occurrences AND enough
// distinct calendar months. Both conditions are required; either alone is not
// recurrence.
func (c *Clusterer) qualifies(series *models.RecurringSeries, polarity Polarity) bool {
	if series.Count < c.config.MinOccurrences {
		return false
	}

	if series.DistinctMonths() < c.config.MinDistinctMonths {
		return false
	}

	if polarity == PolarityDebit && c.config.RequireCategoryForExpense && series.Category == "" {
		return false
	}

	return true
}

// SelectIncome applies the income selection rule: the maximum representative
// amount among qualifying recurring credit series. Multiple income streams
// are never summed. When no series qualifies, the single largest credit above
// the credit floor is used; when none exists, the configured fallback.
func (c *Clusterer) SelectIncome(series []*models.RecurringSeries, transactions []*models.Transaction) (decimal.Decimal, IncomeSource) {
	income := decimal.Zero
	for _, s := range series {
		if s.Representative.GreaterThan(income) {
			income = s.Representative
		}
	}
	if income.IsPositive() {
		return income, IncomeFromRecurringSeries
	}

	largest := decimal.Zero
	for _, tx := range transactions {
		if !tx.IsCredit() {
			continue
		}
		if tx.Amount.GreaterThan(c.config.CreditFloor) && tx.Amount.GreaterThan(largest) {
			largest = tx.Amount
		}
	}
	if largest.IsPositive() {
		c.logger.WithField("amount", largest.String()).
			Debug("No recurring credit series, using largest single credit")
		return largest, IncomeFromLargestCredit
	}

	c.logger.WithField("amount", c.config.FallbackMonthlyIncome.String()).
		Warn("No usable credits found, using fallback income")
	return c.config.FallbackMonthlyIncome, IncomeFromFallbackDefault
}

// SumExpenses aggregates qualifying recurring debit series into the total
// recurring monthly expense. Expenses are summed, never maxed.
func (c *Clusterer) SumExpenses(series []*models.RecurringSeries) decimal.Decimal {
	total := decimal.Zero
	for _, s := range series {
		total = total.Add(s.Representative)
	}
	return total
}

func (c *Clusterer) matchesPolarity(tx *models.Transaction, polarity Polarity) bool {
	if polarity == PolarityCredit {
		return tx.IsCredit()
	}
	return tx.IsDebit()
}

func (c *Clusterer) clearsFloor(magnitude decimal.Decimal, polarity Polarity) bool {
	if polarity == PolarityCredit {
		return magnitude.GreaterThan(c.config.CreditFloor)
	}
	return magnitude.GreaterThan(c.config.DebitFloor)
}

// bucketAmount rounds a magnitude to the nearest bucket multiple.
func (c *Clusterer) bucketAmount(magnitude decimal.Decimal) decimal.Decimal {
	return magnitude.Div(c.config.AmountBucketSize).Round(0).Mul(c.config.AmountBucketSize)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9 ]+`)

// normalizeDescription lower-cases, strips non-alphanumeric characters,
// collapses whitespace, and takes a bounded prefix.
func normalizeDescription(description string, prefixLength int) string {
	s := strings.ToLower(description)
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	if len(s) > prefixLength {
		s = strings.TrimSpace(s[:prefixLength])
	}
	return s
}
