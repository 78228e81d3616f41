package entity

import "github.com/shandysiswandi/otpgate/internal/pkg/goerror"

// Step names the screen a client should show next.
type Step string

const (
	StepSignup       Step = "signup"
	StepSignupVerify Step = "signup_verify"
	StepLogin        Step = "login"
	StepLoginVerify  Step = "login_verify"
	StepHome         Step = "home"
)

// Reason explains why a flow transition was rejected. ReasonNone means the
// transition succeeded.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonPasswordMismatch
	ReasonWeakPassword
	ReasonEmailRegistered
	ReasonNoPendingSignup
	ReasonSignupAccountMissing
	ReasonSignupOTPExpired
	ReasonOTPIncorrect
	ReasonUserNotFound
	ReasonEmailNotVerified
	ReasonInvalidPassword
	ReasonLoginSessionExpired
	ReasonLoginOTPExpired
	ReasonAuthenticationRequired
)

type reasonInfo struct {
	name     string
	message  string
	code     goerror.Code
	terminal bool
}

var reasons = map[Reason]reasonInfo{
	ReasonPasswordMismatch:       {"password_mismatch", "Passwords do not match", goerror.CodeInvalidInput, false},
	ReasonWeakPassword:           {"weak_password", "Password does not meet security requirements", goerror.CodeInvalidInput, false},
	ReasonEmailRegistered:        {"email_registered", "Email already registered", goerror.CodeConflict, true},
	ReasonNoPendingSignup:        {"no_pending_signup", "No pending verification. Please signup first.", goerror.CodeForbidden, true},
	ReasonSignupAccountMissing:   {"signup_account_missing", "User not found. Please signup again.", goerror.CodeNotFound, true},
	ReasonSignupOTPExpired:       {"signup_otp_expired", "OTP expired. Please sign up again.", goerror.CodeExpired, true},
	ReasonOTPIncorrect:           {"otp_incorrect", "Incorrect OTP", goerror.CodeUnauthorized, false},
	ReasonUserNotFound:           {"user_not_found", "User not found", goerror.CodeUnauthorized, true},
	ReasonEmailNotVerified:       {"email_not_verified", "Email not verified. Please check your email for OTP.", goerror.CodeForbidden, true},
	ReasonInvalidPassword:        {"invalid_password", "Invalid password", goerror.CodeUnauthorized, true},
	ReasonLoginSessionExpired:    {"login_session_expired", "Session expired. Please login again.", goerror.CodeUnauthorized, true},
	ReasonLoginOTPExpired:        {"login_otp_expired", "OTP expired. Please login again.", goerror.CodeExpired, true},
	ReasonAuthenticationRequired: {"authentication_required", "Authentication required", goerror.CodeUnauthorized, true},
}

// UnifiedLoginMessage replaces the per-cause login rejection messages when
// account existence must not be disclosed.
const UnifiedLoginMessage = "Invalid email or password"

// String returns a stable snake_case name, used as a metric attribute.
func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	if info, ok := reasons[r]; ok {
		return info.name
	}
	return "unknown"
}

// Message is the user-facing text for the rejection.
func (r Reason) Message() string { return reasons[r].message }

// Code maps the rejection to an error code and thus an HTTP status.
func (r Reason) Code() goerror.Code {
	if info, ok := reasons[r]; ok {
		return info.code
	}
	return goerror.CodeInternal
}

// Terminal reports whether the rejection ends the flow. A terminal rejection
// clears the client session; a non terminal one lets the client retry.
func (r Reason) Terminal() bool { return reasons[r].terminal }

// IsLoginCredentialFailure reports whether r discloses something about the
// account during the password step of login.
func (r Reason) IsLoginCredentialFailure() bool {
	switch r {
	case ReasonUserNotFound, ReasonEmailNotVerified, ReasonInvalidPassword:
		return true
	default:
		return false
	}
}
