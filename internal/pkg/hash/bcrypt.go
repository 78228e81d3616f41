package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Hash hashes secrets and verifies plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) (string, error)
	Verify(hashed, plaintext string) bool
}

// Bcrypt implements Hash using bcrypt.
//
// The plaintext is first run through HMAC-SHA256 keyed with the pepper, so
// the bcrypt input is always 44 bytes. That keeps long passphrases under
// bcrypt's 72 byte ceiling and means a leaked table is useless without the
// pepper.
type Bcrypt struct {
	cost   int
	pepper []byte
}

// NewBcrypt returns a bcrypt-based hasher. Out of range costs fall back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: []byte(pepper)}
}

// Hash hashes plaintext using bcrypt.
func (h *Bcrypt) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(h.prehash(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify returns true when plaintext matches the hashed value. Malformed
// hashes never match.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.prehash(plaintext)) == nil
}

func (h *Bcrypt) prehash(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plaintext))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
