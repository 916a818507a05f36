package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/nyefin-mf/ai-affordability-agent/pkg/errors"
	"github.com/nyefin-mf/ai-affordability-agent/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages. It returns
// the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if agentErr, ok := errors.AsAgentError(err); ok {
		return h.handleAgentError(agentErr)
	}

	return h.handleGenericError(err)
}

// handleAgentError handles AgentError with detailed context
func (h *CLIErrorHandler) handleAgentError(err *errors.AgentError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-AgentError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: check the file path and try again\n")
		return 2
	}

	if os.IsPermission(err) {
		fmt.Fprintf(os.Stderr, "Error: permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: check file permissions\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// getCategoryHelp returns category-specific guidance for the user
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	var help []string

	switch category {
	case errors.CategoryFile:
		help = []string{
			"File troubleshooting:",
			"  - Verify the statement file path is correct",
			"  - Ensure you have read access to the file",
		}
	case errors.CategoryParse:
		help = []string{
			"Parse troubleshooting:",
			"  - Check that the statement contains dated transaction lines",
			"  - For CSV input, ensure date, description, and amount columns exist",
			"  - Run with --verbose to see skipped input samples",
		}
	case errors.CategoryValidation:
		help = []string{
			"Validation troubleshooting:",
			"  - Check amounts are decimal numbers and dates are recognizable",
		}
	case errors.CategoryConfiguration:
		help = []string{
			"Configuration troubleshooting:",
			"  - Review the flag values and config file settings",
			"  - Run 'affordability assess --help' for valid options",
		}
	case errors.CategoryAssessment:
		help = []string{
			"Assessment troubleshooting:",
			"  - Verify the statement covers at least two calendar months",
			"  - Try --lenient if the statement has few transactions",
		}
	default:
		help = []string{
			"General troubleshooting:",
			"  - Run with --verbose for detailed logging",
		}
	}

	return strings.Join(help, "\n")
}
