package entity

import (
	"strings"
	"time"
)

// Lifecycle is the verification state of an account. It only moves forward.
type Lifecycle int16

const (
	// LifecycleUnknown is mean lifecycle is not known / not set.
	LifecycleUnknown Lifecycle = 0

	// LifecyclePending mean account exists but the signup OTP was not confirmed yet.
	LifecyclePending Lifecycle = 1

	// LifecycleVerified mean account confirmed its signup OTP and may log in.
	LifecycleVerified Lifecycle = 2
)

func (l Lifecycle) String() string {
	switch l {
	case LifecyclePending:
		return "Pending"
	case LifecycleVerified:
		return "Verified"
	default:
		return "Unknown"
	}
}

func (l Lifecycle) Ensure() Lifecycle {
	switch l {
	case LifecyclePending, LifecycleVerified:
		return l
	default:
		return LifecycleUnknown
	}
}

// IsVerified reports whether the account completed signup verification.
func (l Lifecycle) IsVerified() bool { return l == LifecycleVerified }

// Challenge is the active OTP of an account.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge can no longer be answered at now.
// The code is still accepted at exactly ExpiresAt.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NewAccount is the data persisted at signup. The account starts pending with
// its first challenge already set.
type NewAccount struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Challenge    Challenge
}

// Credentials is what login needs to know about an account.
type Credentials struct {
	ID           int64
	Email        string
	PasswordHash string
	Lifecycle    Lifecycle
}

// NormalizeEmail returns the identity key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
