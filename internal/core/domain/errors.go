package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError is an error with a stable code of the form DK-<AREA>-<NNNN>.
// Two DomainErrors match under errors.Is when their codes are equal, so
// sentinels stay comparable after WithDetails or WithCause.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a sentinel.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Code returns the code of the first DomainError in err's chain, or "".
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Area returns the AREA part of err's code ("ARG", "STOR", "RT", ...),
// or "" when err carries no code.
func Area(err error) string {
	parts := strings.SplitN(Code(err), "-", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// System and argument errors shared by the CLI and both components.
var (
	ErrInternal        = NewDomainError("DK-SYS-5000", "internal error")
	ErrInvalidArgument = NewDomainError("DK-ARG-1001", "invalid argument")
	ErrMissingArgument = NewDomainError("DK-ARG-1002", "missing required argument")
)
