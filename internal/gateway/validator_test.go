package gateway_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/reconciler/internal/gateway"
)

func details(state gateway.AuthorizationState, reason string) *gateway.AuthorizationDetails {
	return &gateway.AuthorizationDetails{
		AuthorizationID: "A-1",
		State:           state,
		ReasonCode:      reason,
	}
}

func TestValidate_PendingAndOpenAccepted(t *testing.T) {
	v := gateway.NewValidator()
	assert.NoError(t, v.Validate(details(gateway.AuthStatePending, "")))
	assert.NoError(t, v.Validate(details(gateway.AuthStateOpen, "")))
}

func TestValidate_SoftDeclineReasons(t *testing.T) {
	v := gateway.NewValidator()
	for _, reason := range []string{
		gateway.ReasonInvalidPaymentMethod,
		gateway.ReasonTransactionTimedOut,
	} {
		err := v.Validate(details(gateway.AuthStateDeclined, reason))
		require.Error(t, err, reason)
		assert.True(t, gateway.IsSoftDecline(err), "%s must be a soft decline", reason)
		assert.False(t, gateway.IsHardDecline(err))

		var soft *gateway.SoftDeclineError
		require.True(t, errors.As(err, &soft))
		assert.Equal(t, reason, soft.ReasonCode)
	}
}

func TestValidate_HardDeclineReasons(t *testing.T) {
	v := gateway.NewValidator()
	for _, reason := range []string{
		gateway.ReasonProcessingFailure,
		gateway.ReasonRejected,
	} {
		err := v.Validate(details(gateway.AuthStateDeclined, reason))
		require.Error(t, err, reason)
		assert.True(t, gateway.IsHardDecline(err), "%s must be a hard decline", reason)
		assert.False(t, gateway.IsSoftDecline(err))
	}
}

func TestValidate_ClosedWithCaptureAccepted(t *testing.T) {
	v := gateway.NewValidator()

	d := details(gateway.AuthStateClosed, "")
	d.CaptureID = "C-1"
	assert.NoError(t, v.Validate(d))

	d = details(gateway.AuthStateClosed, "")
	d.CaptureNow = true
	assert.NoError(t, v.Validate(d))

	assert.NoError(t, v.Validate(details(gateway.AuthStateClosed, gateway.ReasonMaxCapturesProcessed)))
}

func TestValidate_ClosedWithoutCaptureExpired(t *testing.T) {
	v := gateway.NewValidator()
	err := v.Validate(details(gateway.AuthStateClosed, ""))
	require.Error(t, err)
	require.True(t, gateway.IsHardDecline(err))

	var hard *gateway.HardDeclineError
	require.True(t, errors.As(err, &hard))
	assert.Equal(t, gateway.ReasonExpired, hard.ReasonCode)
}

func TestValidate_UnknownStateIsHardDecline(t *testing.T) {
	v := gateway.NewValidator()
	err := v.Validate(details("Suspended", ""))
	assert.True(t, gateway.IsHardDecline(err))
}

func TestDeclineErrors_NotConfused(t *testing.T) {
	plain := errors.New("boom")
	assert.False(t, gateway.IsSoftDecline(plain))
	assert.False(t, gateway.IsHardDecline(plain))
	assert.False(t, gateway.IsSoftDecline(nil))
}
