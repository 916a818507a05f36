package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/nyefin-mf/ai-affordability-agent/internal/models"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"
)

// DateStrategy is one entry in the ordered list of date extraction attempts.
// Strategies are tried in order and the first match wins, so the chosen
// strategy and its confidence are inspectable rather than buried in a
// fallback chain.
type DateStrategy struct {
	Name       string
	Pattern    *regexp.Regexp
	Layout     string
	Confidence float64
}

// Match scans a line for this strategy's date token. It returns the parsed
// date, the end offset of the token within the line, and whether it matched.
func (ds DateStrategy) Match(line string) (time.Time, int, bool) {
	loc := ds.Pattern.FindStringIndex(line)
	if loc == nil {
		return time.Time{}, 0, false
	}

	parsed, err := time.Parse(ds.Layout, line[loc[0]:loc[1]])
	if err != nil {
		return time.Time{}, 0, false
	}

	return parsed, loc[1], true
}

// DefaultDateStrategies returns the ordered date token strategies. Four-digit
// year layouts rank above two-digit variants; day-first layouts follow the SA
// statement convention.
func DefaultDateStrategies() []DateStrategy {
	return []DateStrategy{
		{
			Name:       "iso",
			Pattern:    regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
			Layout:     "2006-01-02",
			Confidence: 0.95,
		},
		{
			Name:       "day_first_slash",
			Pattern:    regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
			Layout:     "02/01/2006",
			Confidence: 0.90,
		},
		{
			Name:       "day_first_dash",
			Pattern:    regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`),
			Layout:     "02-01-2006",
			Confidence: 0.85,
		},
		{
			Name:       "short_year_slash",
			Pattern:    regexp.MustCompile(`\b\d{2}/\d{2}/\d{2}\b`),
			Layout:     "02/01/06",
			Confidence: 0.60,
		},
		{
			Name:       "short_year_dash",
			Pattern:    regexp.MustCompile(`\b\d{2}-\d{2}-\d{2}\b`),
			Layout:     "02-01-06",
			Confidence: 0.55,
		},
	}
}

// amountPattern matches amount-shaped tokens: optional leading minus or rand
// marker, optional thousands separators, exactly two decimal places.
var amountPattern = regexp.MustCompile(`-?\s?R?\s?-?(?:\d{1,3}(?:[, ]\d{3})+|\d+)\.\d{2}\b`)

// ExtractText normalizes a newline-separated statement blob into
// transactions. Lines below the minimum length or lacking either a date or
// an amount token are skipped individually.
func (e *Extractor) ExtractText(blob string) ([]*models.Transaction, *Stats, error) {
	lines := strings.Split(blob, "\n")
	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "extract_text",
		Total:     int64(len(lines)),
		Logger:    e.logger,
	})

	stats := NewStats()
	var transactions []*models.Transaction

	for _, line := range lines {
		stats.LinesScanned++
		progress.Increment()

		line = strings.TrimSpace(line)
		if len(line) < e.config.MinLineLength {
			continue
		}

		tx, strategy, ok := e.extractLine(line)
		if !ok {
			stats.addSkip(line, e.config.MaxSkipSamples)
			continue
		}

		stats.StrategyHits[strategy]++
		stats.Extracted++
		transactions = append(transactions, tx)
	}

	progress.Complete()
	e.logger.WithFields(logger.Fields{
		"lines_scanned": stats.LinesScanned,
		"extracted":     stats.Extracted,
		"skipped":       stats.Skipped,
	}).Info("Text extraction complete")

	return transactions, stats, nil
}

// extractLine scans a single line for a date token and, within the remainder,
// the last amount-shaped token. Returns the transaction and the name of the
// date strategy that matched.
func (e *Extractor) extractLine(line string) (*models.Transaction, string, bool) {
	var (
		date     time.Time
		dateEnd  int
		strategy string
	)

	matched := false
	for _, ds := range e.strategies {
		if d, end, ok := ds.Match(line); ok {
			date, dateEnd, strategy = d, end, ds.Name
			matched = true
			break
		}
	}
	if !matched {
		return nil, "", false
	}

	remainder := line[dateEnd:]
	amountTokens := amountPattern.FindAllStringIndex(remainder, -1)
	if len(amountTokens) == 0 {
		return nil, "", false
	}

	// The last amount-shaped token is the transaction amount; earlier ones
	// are usually reference numbers or intermediate figures.
	last := amountTokens[len(amountTokens)-1]
	amount, err := models.ParseAmount(remainder[last[0]:last[1]])
	if err != nil {
		e.logger.WithError(err).WithField("token", remainder[last[0]:last[1]]).
			Debug("Amount token failed to parse")
		return nil, "", false
	}

	description := cleanDescription(remainder[:last[0]])
	if description == "" {
		return nil, "", false
	}

	return models.NewTransaction(date, description, amount), strategy, true
}

// cleanDescription strips the separator characters banks pad narration
// fields with.
func cleanDescription(s string) string {
	s = strings.Trim(s, " \t-|:*")
	return strings.Join(strings.Fields(s), " ")
}
