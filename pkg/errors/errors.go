package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryAssessment    ErrorCategory = "assessment"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"
	CodeEncodingError ErrorCode = "encoding_error"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Assessment errors
	CodeExtractionEmpty  ErrorCode = "extraction_empty"
	CodeClusteringFailed ErrorCode = "clustering_failed"
	CodeCalculationError ErrorCode = "calculation_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AgentError is the base error type for all application errors
type AgentError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AgentError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryAssessment, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AgentError) WithContext(key string, value interface{}) *AgentError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AgentError) WithSuggestion(suggestion string) *AgentError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AgentError
func New(category ErrorCategory, code ErrorCode, message string) *AgentError {
	return &AgentError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AgentError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AgentError {
	if err == nil {
		return nil
	}

	return &AgentError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *AgentError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("statement file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "re-export the statement and try again"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, source string, line int, field string, value string, err error) *AgentError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s at line %d, field '%s': '%s'", source, line, field, value)
		suggestion = "check the statement format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in %s", field, source)
		suggestion = "verify the statement has a date, description, and amount column"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in %s at line %d, field '%s': '%s'", source, line, field, value)
		suggestion = "correct the data format or remove the invalid entry"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in %s at line %d", source, line)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	default:
		message = fmt.Sprintf("parse error in %s at line %d", source, line)
		suggestion = "check the statement format and data integrity"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("line", line).
		WithContext("field", field).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *AgentError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., 'R1,234.56')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or DD/MM/YYYY"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AgentError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// AssessmentError creates an assessment-related error
func AssessmentError(code ErrorCode, operation string, err error) *AgentError {
	var message string
	var suggestion string

	switch code {
	case CodeExtractionEmpty:
		message = fmt.Sprintf("no transactions could be extracted during %s", operation)
		suggestion = "verify the statement contains dated transaction rows with amounts"
	case CodeClusteringFailed:
		message = fmt.Sprintf("recurring pattern detection failed during %s", operation)
		suggestion = "check transaction data quality and clustering configuration"
	case CodeCalculationError:
		message = fmt.Sprintf("affordability calculation error during %s", operation)
		suggestion = "review the policy constants and input figures"
	default:
		message = fmt.Sprintf("assessment error during %s", operation)
		suggestion = "review the statement data and configuration"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryAssessment, code, message)
	} else {
		result = New(CategoryAssessment, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *AgentError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "try again or contact support if the problem persists"

	if code == CodeUnexpectedError {
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	var result *AgentError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*AgentError         `json:"errors"`
	SampleErrors []*AgentError         `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*AgentError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*AgentError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsAgentError checks if an error is an AgentError
func IsAgentError(err error) bool {
	_, ok := err.(*AgentError)
	return ok
}

// AsAgentError extracts an AgentError from an error chain
func AsAgentError(err error) (*AgentError, bool) {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an AgentError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AgentError {
	if err == nil {
		return nil
	}

	if agentErr, ok := AsAgentError(err); ok {
		return agentErr
	}

	return Wrap(err, category, code, message)
}
