package gateway

import (
	"errors"
	"fmt"
)

// SoftDeclineError signals a transient decline: the authorization may succeed
// on a later attempt, so the pending record must be retained for retry.
type SoftDeclineError struct {
	ReasonCode string
	Message    string
}

func (e *SoftDeclineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("soft decline (%s): %s", e.ReasonCode, e.Message)
	}
	return fmt.Sprintf("soft decline (%s)", e.ReasonCode)
}

// NewSoftDecline creates a soft decline error for the given reason code.
func NewSoftDecline(reasonCode, message string) *SoftDeclineError {
	return &SoftDeclineError{ReasonCode: reasonCode, Message: message}
}

// HardDeclineError signals a permanent decline: the order must be held and
// the pending record deleted.
type HardDeclineError struct {
	ReasonCode string
	Cause      error
}

func (e *HardDeclineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hard decline (%s): %v", e.ReasonCode, e.Cause)
	}
	return fmt.Sprintf("hard decline (%s)", e.ReasonCode)
}

func (e *HardDeclineError) Unwrap() error {
	return e.Cause
}

// NewHardDecline creates a hard decline error for the given reason code.
func NewHardDecline(reasonCode string, cause error) *HardDeclineError {
	return &HardDeclineError{ReasonCode: reasonCode, Cause: cause}
}

// IsSoftDecline reports whether err is (or wraps) a soft decline.
func IsSoftDecline(err error) bool {
	var soft *SoftDeclineError
	return errors.As(err, &soft)
}

// IsHardDecline reports whether err is (or wraps) a hard decline.
func IsHardDecline(err error) bool {
	var hard *HardDeclineError
	return errors.As(err, &hard)
}
