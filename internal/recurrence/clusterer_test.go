package recurrence

import (
	"testing"
	"time"

	"github.com/nyefin-mf/ai-affordability-agent/internal/models"

	"github.com/shopspring/decimal"
)

func newTestClusterer(t *testing.T, config *ClusterConfig) *Clusterer {
	t.Helper()

	clusterer, err := NewClusterer(config)
	if err != nil {
		t.Fatalf("failed to create clusterer: %v", err)
	}
	return clusterer
}

func tx(t *testing.T, date, description, amount string) *models.Transaction {
	t.Helper()

	d, err := models.ParseStatementDate(date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return models.NewTransaction(d, description, decimal.RequireFromString(amount))
}

// monthlySeries builds count occurrences of the same narration, one per
// month starting January 2024, with small amount jitter inside one bucket.
func monthlySeries(t *testing.T, description, amount string, count int) []*models.Transaction {
	t.Helper()

	base := decimal.RequireFromString(amount)
	var transactions []*models.Transaction
	for i := 0; i < count; i++ {
		date := time.Date(2024, time.Month(i+1), 25, 0, 0, 0, 0, time.UTC)
		// Jitter grows the magnitude so every member stays in one bucket.
		jitter := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(10))
		if base.IsNegative() {
			jitter = jitter.Neg()
		}
		transactions = append(transactions,
			models.NewTransaction(date, description, base.Add(jitter)))
	}
	return transactions
}

func TestDetectSeriesQualifying(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	transactions := monthlySeries(t, "SANTAM INSURANCE DO", "-950.00", 3)

	series := clusterer.DetectSeries(transactions, PolarityDebit)
	if len(series) != 1 {
		t.Fatalf("expected 1 qualifying series, got %d", len(series))
	}

	s := series[0]
	if s.Count != 3 {
		t.Errorf("expected count 3, got %d", s.Count)
	}
	if s.Category != CategoryInsurance {
		t.Errorf("expected insurance category, got %q", s.Category)
	}
	if !s.BucketAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected bucket 1000, got %s", s.BucketAmount)
	}
	if s.DistinctMonths() != 3 {
		t.Errorf("expected 3 distinct months, got %d", s.DistinctMonths())
	}
}

func TestDetectSeriesRequiresOccurrenceCount(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// Two occurrences in two months: months satisfied, count not.
	transactions := monthlySeries(t, "SANTAM INSURANCE DO", "-950.00", 2)

	if series := clusterer.DetectSeries(transactions, PolarityDebit); len(series) != 0 {
		t.Errorf("two occurrences must not qualify under the default minimum of three, got %d series", len(series))
	}
}

func TestDetectSeriesRequiresDistinctMonths(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// Three occurrences, all inside one calendar month: count satisfied,
	// months not.
	var transactions []*models.Transaction
	for day := 5; day <= 25; day += 10 {
		date := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
		transactions = append(transactions,
			models.NewTransaction(date, "GYM MEMBERSHIP DO", decimal.RequireFromString("-450.00")))
	}

	if series := clusterer.DetectSeries(transactions, PolarityDebit); len(series) != 0 {
		t.Errorf("single-month occurrences must not qualify, got %d series", len(series))
	}
}

func TestDetectSeriesBucketsAbsorbJitter(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// 948.50, 952.00, 955.75 all bucket to 900 or 1000? 948.50/100 -> 9.485
	// rounds to 9 -> 900; keep jitter inside one bucket instead.
	transactions := []*models.Transaction{
		tx(t, "2024-01-25", "MUNICIPALITY RATES", "-1080.00"),
		tx(t, "2024-02-25", "MUNICIPALITY RATES", "-1120.00"),
		tx(t, "2024-03-25", "MUNICIPALITY RATES", "-1095.50"),
	}

	series := clusterer.DetectSeries(transactions, PolarityDebit)
	if len(series) != 1 {
		t.Fatalf("amounts within one bucket should form one series, got %d", len(series))
	}
	if !series[0].BucketAmount.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("expected bucket 1100, got %s", series[0].BucketAmount)
	}

	expectedMean := decimal.RequireFromString("1098.50")
	if !series[0].Representative.Equal(expectedMean) {
		t.Errorf("expected representative %s, got %s", expectedMean, series[0].Representative)
	}
}

func TestDetectSeriesSplitsDistantAmounts(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// Same narration, amounts in different buckets: two candidate groups,
	// neither reaching three occurrences.
	transactions := []*models.Transaction{
		tx(t, "2024-01-25", "EFT PAYMENT", "-500.00"),
		tx(t, "2024-02-25", "EFT PAYMENT", "-500.00"),
		tx(t, "2024-03-25", "EFT PAYMENT", "-900.00"),
	}

	if series := clusterer.DetectSeries(transactions, PolarityDebit); len(series) != 0 {
		t.Errorf("amounts in different buckets must not merge into one series, got %d", len(series))
	}
}

func TestDetectSeriesPolarityAndFloors(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	transactions := append(
		monthlySeries(t, "SALARY ACME LTD", "18500.00", 3),
		monthlySeries(t, "BANK FEE", "-60.00", 3)...,
	)

	credits := clusterer.DetectSeries(transactions, PolarityCredit)
	if len(credits) != 1 {
		t.Fatalf("expected 1 credit series, got %d", len(credits))
	}

	// The R60 fee is below the debit floor and must not appear.
	debits := clusterer.DetectSeries(transactions, PolarityDebit)
	if len(debits) != 0 {
		t.Errorf("sub-floor debits must be ignored, got %d series", len(debits))
	}
}

func TestDetectSeriesSortedLargestFirst(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	transactions := append(
		monthlySeries(t, "VODACOM CONTRACT", "-499.00", 3),
		monthlySeries(t, "WESBANK VEHICLE FIN", "-3200.00", 3)...,
	)

	series := clusterer.DetectSeries(transactions, PolarityDebit)
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if !series[0].BucketAmount.GreaterThan(series[1].BucketAmount) {
		t.Error("series must be sorted by bucket amount, largest first")
	}
}

func TestRequireCategoryForExpense(t *testing.T) {
	config := DefaultClusterConfig()
	config.RequireCategoryForExpense = true
	clusterer := newTestClusterer(t, config)

	transactions := append(
		monthlySeries(t, "SANTAM INSURANCE DO", "-950.00", 3),
		monthlySeries(t, "UNRECOGNIZED MERCHANT", "-800.00", 3)...,
	)

	series := clusterer.DetectSeries(transactions, PolarityDebit)
	if len(series) != 1 {
		t.Fatalf("only categorized series should qualify, got %d", len(series))
	}
	if series[0].Category != CategoryInsurance {
		t.Errorf("expected insurance series, got %q", series[0].Category)
	}
}

func TestSelectIncomeMaxNotSum(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	transactions := append(
		monthlySeries(t, "SALARY ACME LTD", "18500.00", 3),
		monthlySeries(t, "RENTAL INCOME FLAT", "4500.00", 3)...,
	)

	credits := clusterer.DetectSeries(transactions, PolarityCredit)
	if len(credits) != 2 {
		t.Fatalf("expected 2 credit series, got %d", len(credits))
	}

	income, source := clusterer.SelectIncome(credits, transactions)
	if source != IncomeFromRecurringSeries {
		t.Errorf("expected recurring series source, got %s", source)
	}

	// The salary series mean, not salary+rental.
	expected := decimal.RequireFromString("18500.10")
	if !income.Equal(expected) {
		t.Errorf("income must be the maximum series, not the sum: got %s, want %s", income, expected)
	}
}

func TestSelectIncomeLargestCreditFallback(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// One-off credits only, no recurring series.
	transactions := []*models.Transaction{
		tx(t, "2024-01-10", "EFT DEPOSIT", "7200.00"),
		tx(t, "2024-02-14", "REFUND STORE", "2500.00"),
	}

	income, source := clusterer.SelectIncome(nil, transactions)
	if source != IncomeFromLargestCredit {
		t.Errorf("expected largest credit source, got %s", source)
	}
	if !income.Equal(decimal.RequireFromString("7200.00")) {
		t.Errorf("expected 7200.00, got %s", income)
	}
}

func TestSelectIncomeFallbackDefault(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	// Credits exist but none clears the credit floor.
	transactions := []*models.Transaction{
		tx(t, "2024-01-10", "SMALL REFUND", "150.00"),
		tx(t, "2024-02-03", "RENT PAYMENT", "-6000.00"),
	}

	income, source := clusterer.SelectIncome(nil, transactions)
	if source != IncomeFromFallbackDefault {
		t.Errorf("expected fallback default source, got %s", source)
	}
	if !income.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("expected fallback 15000, got %s", income)
	}
}

func TestSumExpenses(t *testing.T) {
	clusterer := newTestClusterer(t, nil)

	transactions := append(
		monthlySeries(t, "SANTAM INSURANCE DO", "-950.00", 3),
		monthlySeries(t, "WESBANK VEHICLE FIN", "-3200.00", 3)...,
	)

	debits := clusterer.DetectSeries(transactions, PolarityDebit)
	total := clusterer.SumExpenses(debits)

	// 950.10 + 3200.10: each series mean carries the 0.10 jitter average.
	expected := decimal.RequireFromString("4150.20")
	if !total.Equal(expected) {
		t.Errorf("expenses must sum across series: got %s, want %s", total, expected)
	}

	if !clusterer.SumExpenses(nil).IsZero() {
		t.Error("no series must sum to zero")
	}
}

func TestLenientClusterConfig(t *testing.T) {
	clusterer := newTestClusterer(t, LenientClusterConfig())

	// Two occurrences across two months qualify under lenient policy.
	transactions := monthlySeries(t, "SANTAM INSURANCE DO", "-950.00", 2)

	if series := clusterer.DetectSeries(transactions, PolarityDebit); len(series) != 1 {
		t.Errorf("lenient policy should qualify a two-occurrence series, got %d", len(series))
	}
}

func TestClusterConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ClusterConfig)
	}{
		{"min occurrences below two", func(c *ClusterConfig) { c.MinOccurrences = 1 }},
		{"min months below one", func(c *ClusterConfig) { c.MinDistinctMonths = 0 }},
		{"zero bucket", func(c *ClusterConfig) { c.AmountBucketSize = decimal.Zero }},
		{"negative debit floor", func(c *ClusterConfig) { c.DebitFloor = decimal.NewFromInt(-1) }},
		{"credit floor below debit floor", func(c *ClusterConfig) {
			c.CreditFloor = decimal.NewFromInt(100)
			c.DebitFloor = decimal.NewFromInt(250)
		}},
		{"zero prefix length", func(c *ClusterConfig) { c.DescriptionPrefixLength = 0 }},
		{"negative fallback income", func(c *ClusterConfig) { c.FallbackMonthlyIncome = decimal.NewFromInt(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultClusterConfig()
			tt.modify(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if _, err := NewClusterer(&ClusterConfig{}); err == nil {
		t.Error("expected error for zero-value config")
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SANTAM *INSURANCE* D/O", "santam insurance d o"},
		{"  Multiple   Spaces  ", "multiple spaces"},
		{"VERY LONG NARRATION THAT EXCEEDS THE PREFIX", "very long narration that"},
	}

	for _, tt := range tests {
		if got := normalizeDescription(tt.input, 24); got != tt.expected {
			t.Errorf("normalizeDescription(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCategorize(t *testing.T) {
	cm := DefaultCategoryMap()

	tests := []struct {
		description string
		category    string
		found       bool
	}{
		{"santam insurance do", CategoryInsurance, true},
		{"vodacom contract", CategoryCellular, true},
		{"wesbank vehicle fin", CategoryVehicle, true},
		{"skoolgeld laerskool", CategorySchool, true},
		{"munisipaliteit dienste", CategoryUtilities, true},
		{"unknown merchant xyz", "", false},
	}

	for _, tt := range tests {
		category, found := cm.Categorize(tt.description)
		if found != tt.found || category != tt.category {
			t.Errorf("Categorize(%q) = (%q, %v), want (%q, %v)",
				tt.description, category, found, tt.category, tt.found)
		}
	}
}

func TestLoadCategoryMap(t *testing.T) {
	cm, err := LoadCategoryMap("../../testdata/categories.yaml")
	if err != nil {
		t.Fatalf("failed to load categories: %v", err)
	}

	if len(cm) == 0 {
		t.Fatal("expected keywords from testdata vocabulary")
	}

	if category, found := cm.Categorize("santam insurance premium"); !found || category != CategoryInsurance {
		t.Errorf("expected insurance from loaded vocabulary, got (%q, %v)", category, found)
	}

	if _, err := LoadCategoryMap("../../testdata/does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClusterConfigClone(t *testing.T) {
	original := DefaultClusterConfig()
	clone := original.Clone()

	clone.Categories["newkeyword"] = "newcategory"
	if _, exists := original.Categories["newkeyword"]; exists {
		t.Error("clone must not share the category map")
	}
}
