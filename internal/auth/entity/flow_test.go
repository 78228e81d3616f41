package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func TestReason(t *testing.T) {
	tests := []struct {
		reason   Reason
		terminal bool
		code     goerror.Code
		message  string
	}{
		{ReasonPasswordMismatch, false, goerror.CodeInvalidInput, "Passwords do not match"},
		{ReasonWeakPassword, false, goerror.CodeInvalidInput, "Password does not meet security requirements"},
		{ReasonOTPIncorrect, false, goerror.CodeUnauthorized, "Incorrect OTP"},
		{ReasonEmailRegistered, true, goerror.CodeConflict, "Email already registered"},
		{ReasonSignupOTPExpired, true, goerror.CodeExpired, "OTP expired. Please sign up again."},
		{ReasonLoginOTPExpired, true, goerror.CodeExpired, "OTP expired. Please login again."},
		{ReasonEmailNotVerified, true, goerror.CodeForbidden, "Email not verified. Please check your email for OTP."},
	}

	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.reason.Terminal())
			assert.Equal(t, tt.code, tt.reason.Code())
			assert.Equal(t, tt.message, tt.reason.Message())
		})
	}

	assert.Equal(t, "none", ReasonNone.String())
	assert.False(t, ReasonNone.Terminal())
	assert.Equal(t, "unknown", Reason(99).String())
}

func TestReason_IsLoginCredentialFailure(t *testing.T) {
	assert.True(t, ReasonUserNotFound.IsLoginCredentialFailure())
	assert.True(t, ReasonEmailNotVerified.IsLoginCredentialFailure())
	assert.True(t, ReasonInvalidPassword.IsLoginCredentialFailure())
	assert.False(t, ReasonOTPIncorrect.IsLoginCredentialFailure())
}

func TestChallenge_Expired(t *testing.T) {
	exp := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	c := Challenge{Code: "123456", ExpiresAt: exp}

	assert.False(t, c.Expired(exp.Add(-time.Second)))
	assert.False(t, c.Expired(exp))
	assert.True(t, c.Expired(exp.Add(time.Microsecond)))
}

func TestLifecycle(t *testing.T) {
	assert.Equal(t, "Pending", LifecyclePending.String())
	assert.Equal(t, "Verified", LifecycleVerified.String())
	assert.Equal(t, LifecycleUnknown, Lifecycle(7).Ensure())
	assert.True(t, LifecycleVerified.IsVerified())
	assert.False(t, LifecyclePending.IsVerified())
}
