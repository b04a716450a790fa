package util

import (
	"errors"
	"fmt"
)

// ErrorContext provides standardized error formatting for different operations
type ErrorContext string

const (
	ConfigError   ErrorContext = "Config"
	DaemonError   ErrorContext = "Daemon"
	MailError     ErrorContext = "Mail"
	StoreError    ErrorContext = "Store"
	TemplateError ErrorContext = "Template"
)

// FormatError creates a standardized error message with context
func FormatError(context ErrorContext, operation string, err error) string {
	return fmt.Sprintf("%s error: %s - %v", context, operation, err)
}

// LogError logs an error using the standard format
func LogError(context ErrorContext, operation string, err error) {
	Red.Println(FormatError(context, operation, err))
}

// Kind classifies failures returned across adapter boundaries so callers can
// decide between retrying, skipping and aborting.
type Kind int

const (
	// KindPermanent failures will not succeed on retry (bad address, rejected
	// message). This is the zero value: unclassified errors are permanent.
	KindPermanent Kind = iota
	// KindTransient failures may succeed later (network, throttling, 5xx,
	// expired credentials that could not be refreshed in place).
	KindTransient
	// KindConfiguration failures affect every call (missing or rejected
	// credentials, unknown sender).
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	default:
		return "permanent"
	}
}

// Error is an adapter error tagged with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a KindTransient error.
func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Permanent wraps err as a KindPermanent error.
func Permanent(op string, err error) error {
	return &Error{Kind: KindPermanent, Op: op, Err: err}
}

// Configuration wraps err as a KindConfiguration error.
func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindPermanent when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPermanent
}
