package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"
	"time"

	"github.com/pquerna/otp"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

// DefaultTTL is the lifetime of an issued code.
const DefaultTTL = 5 * time.Minute

// Code is an issued passcode with its absolute expiry.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer creates codes drawn uniformly from the full digit space.
type Issuer struct {
	clock  clock.Clocker
	ttl    time.Duration
	digits otp.Digits
	max    *big.Int
	rand   io.Reader
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithRandom replaces the entropy source, crypto/rand by default.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) { i.rand = r }
}

// NewIssuer returns an Issuer producing 6 digit codes valid for DefaultTTL.
func NewIssuer(clk clock.Clocker, opts ...Option) *Issuer {
	i := &Issuer{clock: clk, ttl: DefaultTTL, digits: otp.DigitsSix, rand: rand.Reader}
	for _, opt := range opts {
		opt(i)
	}

	// 10^digits
	i.max = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(i.digits)), nil)

	return i
}

// TTL returns the configured code lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue draws a fresh code. The value is zero padded to the configured length.
func (i *Issuer) Issue() (Code, error) {
	n, err := rand.Int(i.rand, i.max)
	if err != nil {
		return Code{}, err
	}

	return Code{
		Value:     i.digits.Format(int32(n.Int64())),
		ExpiresAt: i.clock.Now().Add(i.ttl),
	}, nil
}

// Equal compares a submitted code with the stored one in constant time.
func Equal(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
