package cmd

import (
	"fmt"
	"os"

	"github.com/nyefin-mf/ai-affordability-agent/cmd/affordability/config"
	"github.com/nyefin-mf/ai-affordability-agent/internal/pipeline"
	"github.com/nyefin-mf/ai-affordability-agent/internal/reporter"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the assess command
var (
	statementFile  string
	outputFormat   string
	outputFile     string
	categoriesFile string
	lenient        bool
	requireCats    bool
	minOccurrences int
	termMonths     int
	annualRatePct  float64
	netFactor      float64
	otherDebt      float64
	buffer         float64
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess loan affordability from a bank statement",
	Long: `Assess extracts transactions from a statement file, detects recurring
income and expense patterns, and produces an affordability decision: the
maximum qualifying loan and a compliance verdict with decline reasons.

The statement may be free-form text (one transaction per line) or a CSV file
with loosely named date, description, and amount columns.

Examples:
  # Assess a plain-text statement
  affordability assess --statement-file statement.txt

  # Assess a CSV export with JSON output
  affordability assess --statement-file export.csv --output-format json

  # Custom policy constants
  affordability assess --statement-file statement.txt \
    --term-months 36 --annual-rate 20.5

  # Bank-specific keyword vocabulary
  affordability assess --statement-file statement.txt \
    --categories-file categories.yaml`,

	PreRunE: validateAssessFlags,
	RunE:    runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	// Required flags
	assessCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to the statement file, text or CSV (required)")

	// Output flags
	assessCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	assessCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Clustering flags
	assessCmd.Flags().StringVar(&categoriesFile, "categories-file", "", "YAML keyword vocabulary for expense categories")
	assessCmd.Flags().BoolVar(&lenient, "lenient", false, "use the lenient clustering thresholds (2 occurrences, R10 buckets)")
	assessCmd.Flags().BoolVar(&requireCats, "require-categories", false, "only count categorized debit groups as recurring expenses")
	assessCmd.Flags().IntVar(&minOccurrences, "min-occurrences", 0, "override the minimum recurring occurrence count")

	// Policy flags
	assessCmd.Flags().IntVar(&termMonths, "term-months", 0, "override the loan term in months")
	assessCmd.Flags().Float64Var(&annualRatePct, "annual-rate", 0, "override the annual interest rate percent")
	assessCmd.Flags().Float64Var(&netFactor, "net-income-factor", 0, "override the notional after-tax factor")
	assessCmd.Flags().Float64Var(&otherDebt, "other-debt-factor", 0, "override the estimated other-debt factor")
	assessCmd.Flags().Float64Var(&buffer, "buffer-multiplier", 0, "override the affordability buffer multiplier")

	assessCmd.MarkFlagRequired("statement-file")

	viper.BindPFlag("statement-file", assessCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("output-format", assessCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", assessCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("categories-file", assessCmd.Flags().Lookup("categories-file"))
}

func validateAssessFlags(cmd *cobra.Command, args []string) error {
	if statementFile == "" {
		return errors.ConfigurationError(
			errors.CodeMissingConfig,
			"statement-file",
			nil,
			nil,
		).WithSuggestion("Provide the statement file with --statement-file")
	}

	if _, err := os.Stat(statementFile); err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, statementFile, err)
		}
		return errors.FileError(errors.CodeFilePermission, statementFile, err)
	}

	format := reporter.OutputFormat(outputFormat)
	if !format.IsValid() {
		return errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"output-format",
			outputFormat,
			nil,
		).WithSuggestion("Use one of: console, json, csv")
	}

	return nil
}

func runAssess(cmd *cobra.Command, args []string) error {
	setupLogging()
	log := logger.GetGlobalLogger().WithComponent("cli")
	handler := NewCLIErrorHandler()

	opts := config.AssessOptions{
		CategoriesFile:    categoriesFile,
		Lenient:           lenient,
		MinOccurrences:    minOccurrences,
		TermMonths:        termMonths,
		AnnualRatePct:     annualRatePct,
		NetIncomeFactor:   netFactor,
		OtherDebtFactor:   otherDebt,
		BufferMultiplier:  buffer,
		RequireCategories: requireCats,
	}

	clusterConfig, err := config.CreateClusterConfig(opts)
	if err != nil {
		os.Exit(handler.HandleError(errors.WrapIfNeeded(err,
			errors.CategoryConfiguration, errors.CodeInvalidConfig,
			"invalid clustering configuration")))
	}

	policy, err := config.CreatePolicy(opts)
	if err != nil {
		os.Exit(handler.HandleError(errors.WrapIfNeeded(err,
			errors.CategoryConfiguration, errors.CodeInvalidConfig,
			"invalid affordability policy")))
	}

	p, err := pipeline.New(config.CreateExtractorConfig(), clusterConfig, policy)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	request, err := buildRequest()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	log.WithField("statement_file", statementFile).Info("Running affordability assessment")

	result, err := p.Evaluate(request)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if err := writeReport(result); err != nil {
		os.Exit(handler.HandleError(errors.WrapIfNeeded(err,
			errors.CategoryInternal, errors.CodeUnexpectedError,
			"failed to write report")))
	}

	return nil
}

func buildRequest() (*pipeline.Request, error) {
	if config.IsTabularFile(statementFile) {
		rows, err := config.LoadStatementRows(statementFile)
		if err != nil {
			return nil, errors.FileError(errors.CodeFileCorrupted, statementFile, err)
		}
		return &pipeline.Request{Rows: rows}, nil
	}

	blob, err := os.ReadFile(statementFile)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, statementFile, err)
	}
	return &pipeline.Request{Text: string(blob)}, nil
}

func writeReport(result *pipeline.Result) error {
	reportConfig := reporter.DefaultReportConfig()
	reportConfig.Format = reporter.OutputFormat(outputFormat)

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	return generator.GenerateReport(result, writer)
}

func setupLogging() {
	logConfig := logger.DefaultConfig()
	if verbose || viper.GetBool("verbose") {
		logConfig = logger.DebugConfig()
	}

	if log, err := logger.NewLogger(logConfig); err == nil {
		logger.SetGlobalLogger(log)
	}
}
