// Package errors classifies per-update failures and reports them.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind names the error family; it is used as the metrics label.
type Kind string

const (
	KindInvalidPayload Kind = "invalid_payload"
	KindStorage        Kind = "storage"
	KindGateway        Kind = "gateway"
	KindCorruptSession Kind = "corrupt_session_state"
	KindRateLimit      Kind = "rate_limit"
	KindTransport      Kind = "transport"
	KindInternal       Kind = "internal"
)

type AppError struct {
	Code        string
	Kind        Kind
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

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
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

func NewInvalidPayloadError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Kind:        KindInvalidPayload,
		Message:     msg,
		UserMessage: "Please use the buttons below the message.",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewStorageError(cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Kind:        KindStorage,
		Message:     "session storage error",
		UserMessage: "Temporary problem, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewGatewayError(op string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Kind:        KindGateway,
		Message:     fmt.Sprintf("catalog call %s failed", op),
		UserMessage: "The shop is temporarily unavailable, please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewCorruptSessionError(cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Kind:        KindCorruptSession,
		Message:     "session state reset",
		UserMessage: "Your session was reset, send /start to open the menu.",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Kind:        KindRateLimit,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:        "E600",
		Kind:        KindTransport,
		Message:     "telegram call failed",
		UserMessage: "",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:      "E900",
		Kind:      KindInternal,
		Message:   "internal error",
		Severity:  SeverityHigh,
		Retryable: false,
		cause:     cause,
	}
}
