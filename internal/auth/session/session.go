// Package session models the per-client flow state. A client is in exactly
// one state at a time; the state travels as a signed token so the server
// keeps nothing per client.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

// Kind tags the variant held by a Context.
type Kind uint8

const (
	KindAnonymous Kind = iota
	KindPendingSignup
	KindPendingLogin
	KindAuthenticated
)

var kindNames = map[Kind]string{
	KindAnonymous:     "anonymous",
	KindPendingSignup: "pending_signup",
	KindPendingLogin:  "pending_login",
	KindAuthenticated: "authenticated",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindAnonymous]
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindAnonymous, false
}

// Context is the client flow state. The zero value is Anonymous.
type Context struct {
	kind  Kind
	email string
}

func Anonymous() Context { return Context{} }

func PendingSignup(email string) Context { return Context{kind: KindPendingSignup, email: email} }

func PendingLogin(email string) Context { return Context{kind: KindPendingLogin, email: email} }

func Authenticated(email string) Context { return Context{kind: KindAuthenticated, email: email} }

func (c Context) Kind() Kind { return c.kind }

// Email is the account the flow is about; empty for Anonymous.
func (c Context) Email() string { return c.email }

func (c Context) IsAnonymous() bool { return c.kind == KindAnonymous }

// Codec turns a Context into a signed token and back.
type Codec struct {
	jwt jwt.JWT
}

func NewCodec(j jwt.JWT) *Codec {
	return &Codec{jwt: j}
}

// Encode signs c. Anonymous encodes to the empty token.
func (c *Codec) Encode(s Context) (string, error) {
	if s.IsAnonymous() || s.email == "" {
		return "", nil
	}

	return c.jwt.Generate(s.email, s.kind.String())
}

// Decode verifies token. Anything that is not a valid, unexpired, well formed
// token decodes to Anonymous.
func (c *Codec) Decode(ctx context.Context, token string) Context {
	if token == "" {
		return Anonymous()
	}

	claims, err := c.jwt.Verify(token)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			slog.WarnContext(ctx, "rejected session token", "error", err)
		}
		return Anonymous()
	}

	kind, ok := parseKind(claims.Flow)
	if !ok || kind == KindAnonymous || claims.Subject == "" {
		slog.WarnContext(ctx, "session token has unknown flow", "flow", claims.Flow)
		return Anonymous()
	}

	return Context{kind: kind, email: claims.Subject}
}

type ctxKey struct{}

// NewContext stores s in ctx.
func NewContext(ctx context.Context, s Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Context stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Context {
	s, _ := ctx.Value(ctxKey{}).(Context)
	return s
}
