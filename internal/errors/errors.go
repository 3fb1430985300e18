// Package errors defines the application error taxonomy and its handling helpers.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes. The first digit groups the category.
const (
	CodeValidation  = "E100"
	CodeDatabase    = "E200"
	CodeDuplicate   = "E210"
	CodeExternalAPI = "E300"
	CodeFlow        = "E400"
	CodeRateLimit   = "E500"
)

const defaultUserMessage = "Ocorreu um erro. Tente novamente mais tarde."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Dados inválidos. %s", msg),
		Severity:    SeverityLow,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeDatabase,
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Problema temporário, tente novamente em instantes.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewDuplicateError reports a unique constraint violation on field.
func NewDuplicateError(field string, cause error) *AppError {
	return &AppError{
		Code:        CodeDuplicate,
		Message:     fmt.Sprintf("duplicate value for %s", field),
		UserMessage: "Já existe um registro com esses dados.",
		Severity:    SeverityLow,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("External API error: %s", apiName),
		UserMessage: "Serviço temporariamente indisponível.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewFlowError reports a conversation that cannot continue from its current state.
func NewFlowError(msg string) *AppError {
	return &AppError{
		Code:        CodeFlow,
		Message:     msg,
		UserMessage: "Não foi possível continuar o cadastro. Comece novamente.",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Muitas mensagens. Tente novamente em %d segundos.", retryAfter),
		Severity:    SeverityLow,
	}
}
