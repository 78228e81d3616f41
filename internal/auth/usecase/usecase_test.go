package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
)

const strongPassword = "Passw0rd!"

func signupInput(email string) SignupInput {
	return SignupInput{Username: "alice", Email: email, Password: strongPassword, Confirm: strongPassword}
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name   string
		in     SignupInput
		reason entity.Reason
	}{
		{
			name:   "password mismatch",
			in:     SignupInput{Username: "alice", Email: "a@x.io", Password: strongPassword, Confirm: "Passw0rd?"},
			reason: entity.ReasonPasswordMismatch,
		},
		{
			name:   "weak password",
			in:     SignupInput{Username: "alice", Email: "a@x.io", Password: "password", Confirm: "password"},
			reason: entity.ReasonWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, false)
			sess := session.Anonymous()

			// Act
			out, err := f.uc.Signup(context.Background(), sess, tt.in)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.reason, out.Reason)
			assert.False(t, tt.reason.Terminal())
			assert.Equal(t, entity.StepSignup, out.Step)
			assert.Equal(t, 0, f.repo.count())
		})
	}
}

func TestSignup_InvalidInput(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.uc.Signup(context.Background(), session.Anonymous(), SignupInput{Email: "not-an-email"})

	requireCode(t, err, goerror.CodeInvalidInput)
}

func TestSignup_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, false)

	// Act
	out, err := f.uc.Signup(context.Background(), session.Anonymous(), signupInput("  Alice@X.io "))

	// Assert
	require.NoError(t, err)
	assert.False(t, out.Rejected())
	assert.Equal(t, entity.StepSignupVerify, out.Step)
	assert.Equal(t, session.PendingSignup("alice@x.io"), out.Session)

	acc, ok := f.repo.get("alice@x.io")
	require.True(t, ok)
	assert.Equal(t, entity.LifecyclePending, acc.lifecycle)
	assert.NotEqual(t, strongPassword, acc.hash)
	require.NotNil(t, acc.chal)
	assert.Equal(t, t0.Add(otp.DefaultTTL), acc.chal.ExpiresAt)

	got := f.notifier.next(t)
	assert.Equal(t, "alice@x.io", got.email)
	assert.Equal(t, acc.chal.Code, got.code)
}

func TestSignup_Duplicate(t *testing.T) {
	// Arrange
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
	require.NoError(t, err)
	f.notifier.next(t)

	// Act
	out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("A@x.io"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonEmailRegistered, out.Reason)
	assert.Equal(t, "Email already registered", out.Message)
	assert.True(t, out.Session.IsAnonymous())
	assert.Equal(t, 1, f.repo.count())
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	// Arrange
	f := newFixture(t, false)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)

	// Act
	for range 8 {
		wg.Go(func() {
			out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("race@x.io"))
			if err == nil && !out.Rejected() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, f.repo.count())
}

func TestSignup_StoreFailure(t *testing.T) {
	f := newFixture(t, false)
	f.repo.err = errors.New("db down")

	_, err := f.uc.Signup(context.Background(), session.Anonymous(), signupInput("a@x.io"))

	requireCode(t, err, goerror.CodeInternal)
}

func TestSignup_IssuerFailure(t *testing.T) {
	f := newFixture(t, false)
	f.issuer.err = errors.New("no entropy")

	_, err := f.uc.Signup(context.Background(), session.Anonymous(), signupInput("a@x.io"))

	requireCode(t, err, goerror.CodeInternal)
	assert.Equal(t, 0, f.repo.count())
}

func TestSignup_NotifierFailureIsIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.notifier.err = errors.New("smtp down")

	out, err := f.uc.Signup(context.Background(), session.Anonymous(), signupInput("a@x.io"))

	require.NoError(t, err)
	assert.False(t, out.Rejected())
	f.notifier.next(t)
}

func TestSignupVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("requires pending signup", func(t *testing.T) {
		f := newFixture(t, false)

		for _, sess := range []session.Context{session.Anonymous(), session.PendingLogin("a@x.io"), session.Authenticated("a@x.io")} {
			out, err := f.uc.SignupVerify(ctx, sess, SignupVerifyInput{OTP: "123456"})

			require.NoError(t, err)
			assert.Equal(t, entity.ReasonNoPendingSignup, out.Reason)
			assert.Equal(t, entity.StepSignup, out.Step)
			assert.True(t, out.Session.IsAnonymous())
		}
	})

	t.Run("malformed otp", func(t *testing.T) {
		f := newFixture(t, false)

		_, err := f.uc.SignupVerify(ctx, session.PendingSignup("a@x.io"), SignupVerifyInput{OTP: "12ab"})

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("account missing", func(t *testing.T) {
		f := newFixture(t, false)

		out, err := f.uc.SignupVerify(ctx, session.PendingSignup("ghost@x.io"), SignupVerifyInput{OTP: "123456"})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonSignupAccountMissing, out.Reason)
		assert.True(t, out.Session.IsAnonymous())
	})

	t.Run("wrong code keeps session", func(t *testing.T) {
		f := newFixture(t, false)
		out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)

		got, err := f.uc.SignupVerify(ctx, out.Session, SignupVerifyInput{OTP: "999999"})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonOTPIncorrect, got.Reason)
		assert.Equal(t, entity.StepSignupVerify, got.Step)
		assert.Equal(t, out.Session, got.Session)
		acc, _ := f.repo.get("a@x.io")
		assert.NotNil(t, acc.chal)
	})

	t.Run("accepted at exact expiry", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false)
		out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)
		code := f.notifier.next(t).code
		f.clock.Set(t0.Add(otp.DefaultTTL))

		// Act
		got, err := f.uc.SignupVerify(ctx, out.Session, SignupVerifyInput{OTP: code})

		// Assert
		require.NoError(t, err)
		assert.False(t, got.Rejected())
		assert.Equal(t, entity.StepLogin, got.Step)
		assert.Equal(t, "Registration successful. Please login.", got.Message)
		assert.True(t, got.Session.IsAnonymous())
		acc, _ := f.repo.get("a@x.io")
		assert.Equal(t, entity.LifecycleVerified, acc.lifecycle)
		assert.Nil(t, acc.chal)
	})

	t.Run("expired one microsecond later deletes the account", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false)
		out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)
		code := f.notifier.next(t).code
		f.clock.Set(t0.Add(otp.DefaultTTL + time.Microsecond))

		// Act
		got, err := f.uc.SignupVerify(ctx, out.Session, SignupVerifyInput{OTP: code})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.ReasonSignupOTPExpired, got.Reason)
		assert.Equal(t, entity.StepSignup, got.Step)
		assert.True(t, got.Session.IsAnonymous())
		assert.Equal(t, 0, f.repo.count())

		again, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)
		assert.False(t, again.Rejected())
	})

	t.Run("old signup session cannot consume a login code", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false)
		signup, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)
		verified, err := f.uc.SignupVerify(ctx, signup.Session, SignupVerifyInput{OTP: f.notifier.next(t).code})
		require.NoError(t, err)
		require.False(t, verified.Rejected())

		login, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "a@x.io", Password: strongPassword})
		require.NoError(t, err)
		loginCode := f.notifier.next(t).code

		// Act
		got, err := f.uc.SignupVerify(ctx, signup.Session, SignupVerifyInput{OTP: loginCode})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.ReasonNoPendingSignup, got.Reason)
		assert.Equal(t, entity.StepSignup, got.Step)
		assert.True(t, got.Session.IsAnonymous())
		acc, _ := f.repo.get("a@x.io")
		require.NotNil(t, acc.chal)
		assert.Equal(t, loginCode, acc.chal.Code)

		done, err := f.uc.LoginVerify(ctx, login.Session, LoginVerifyInput{OTP: loginCode})
		require.NoError(t, err)
		assert.Equal(t, session.Authenticated("a@x.io"), done.Session)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t, false)
		f.repo.err = errors.New("db down")

		_, err := f.uc.SignupVerify(ctx, session.PendingSignup("a@x.io"), SignupVerifyInput{OTP: "123456"})

		requireCode(t, err, goerror.CodeInternal)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t, false)

		out, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "ghost@x.io", Password: strongPassword})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonUserNotFound, out.Reason)
		assert.Equal(t, "User not found", out.Message)
	})

	t.Run("unverified account gets no challenge", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false)
		_, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("a@x.io"))
		require.NoError(t, err)
		f.notifier.next(t)
		before, _ := f.repo.get("a@x.io")

		// Act
		out, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "a@x.io", Password: strongPassword})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.ReasonEmailNotVerified, out.Reason)
		after, _ := f.repo.get("a@x.io")
		assert.Equal(t, before.chal, after.chal)
		assert.Equal(t, 1, f.issuer.n)
		select {
		case s := <-f.notifier.ch:
			t.Fatalf("unexpected notification %+v", s)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")

		out, err := f.uc.Login(ctx, session.PendingLogin("other@x.io"), LoginInput{Email: "b@x.io", Password: "Wr0ngpass!"})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonInvalidPassword, out.Reason)
		assert.Equal(t, "Invalid password", out.Message)
		assert.True(t, out.Session.IsAnonymous())
	})

	t.Run("unified messages", func(t *testing.T) {
		f := newFixture(t, true)
		f.seedVerified(t, "b@x.io")

		missing, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "ghost@x.io", Password: strongPassword})
		require.NoError(t, err)
		wrong, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "b@x.io", Password: "Wr0ngpass!"})
		require.NoError(t, err)

		assert.Equal(t, entity.UnifiedLoginMessage, missing.Message)
		assert.Equal(t, missing.Message, wrong.Message)
		assert.Equal(t, entity.ReasonUserNotFound, missing.Reason)
	})

	t.Run("success issues a challenge", func(t *testing.T) {
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")

		out, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "B@x.io", Password: strongPassword})

		require.NoError(t, err)
		assert.False(t, out.Rejected())
		assert.Equal(t, entity.StepLoginVerify, out.Step)
		assert.Equal(t, session.PendingLogin("b@x.io"), out.Session)
		acc, _ := f.repo.get("b@x.io")
		require.NotNil(t, acc.chal)
		assert.Equal(t, acc.chal.Code, f.notifier.next(t).code)
	})

	t.Run("busy account", func(t *testing.T) {
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")
		_, err := f.locker.TryLock(ctx, "auth:account:b@x.io", time.Minute)
		require.NoError(t, err)

		_, err = f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "b@x.io", Password: strongPassword})

		requireCode(t, err, goerror.CodeConflict)
	})
}

func TestLoginVerify(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, f *fixture) (session.Context, string) {
		t.Helper()
		out, err := f.uc.Login(ctx, session.Anonymous(), LoginInput{Email: "b@x.io", Password: strongPassword})
		require.NoError(t, err)
		require.False(t, out.Rejected())
		return out.Session, f.notifier.next(t).code
	}

	t.Run("requires pending login", func(t *testing.T) {
		f := newFixture(t, false)

		out, err := f.uc.LoginVerify(ctx, session.PendingSignup("b@x.io"), LoginVerifyInput{OTP: "123456"})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonLoginSessionExpired, out.Reason)
		assert.Equal(t, "Session expired. Please login again.", out.Message)
		assert.True(t, out.Session.IsAnonymous())
	})

	t.Run("stale code after re-issue", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")
		_, first := login(t, f)
		sess, second := login(t, f)
		require.NotEqual(t, first, second)

		// Act
		stale, err := f.uc.LoginVerify(ctx, sess, LoginVerifyInput{OTP: first})
		require.NoError(t, err)
		fresh, err := f.uc.LoginVerify(ctx, sess, LoginVerifyInput{OTP: second})
		require.NoError(t, err)

		// Assert
		assert.Equal(t, entity.ReasonOTPIncorrect, stale.Reason)
		assert.Equal(t, sess, stale.Session)
		assert.False(t, fresh.Rejected())
		assert.Equal(t, session.Authenticated("b@x.io"), fresh.Session)
	})

	t.Run("expired keeps the account", func(t *testing.T) {
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")
		sess, code := login(t, f)
		f.clock.Advance(otp.DefaultTTL + time.Microsecond)

		out, err := f.uc.LoginVerify(ctx, sess, LoginVerifyInput{OTP: code})

		require.NoError(t, err)
		assert.Equal(t, entity.ReasonLoginOTPExpired, out.Reason)
		assert.True(t, out.Session.IsAnonymous())
		acc, ok := f.repo.get("b@x.io")
		require.True(t, ok)
		assert.Equal(t, entity.LifecycleVerified, acc.lifecycle)
		assert.Nil(t, acc.chal)
	})

	t.Run("code is single use", func(t *testing.T) {
		f := newFixture(t, false)
		f.seedVerified(t, "b@x.io")
		sess, code := login(t, f)

		first, err := f.uc.LoginVerify(ctx, sess, LoginVerifyInput{OTP: code})
		require.NoError(t, err)
		second, err := f.uc.LoginVerify(ctx, sess, LoginVerifyInput{OTP: code})
		require.NoError(t, err)

		assert.False(t, first.Rejected())
		assert.Equal(t, entity.ReasonUserNotFound, second.Reason)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t, false)
		f.repo.err = errors.New("db down")

		_, err := f.uc.LoginVerify(ctx, session.PendingLogin("b@x.io"), LoginVerifyInput{OTP: "123456"})

		requireCode(t, err, goerror.CodeInternal)
	})
}

func TestHomeLogoutState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	home, err := f.uc.Home(ctx, session.PendingLogin("b@x.io"))
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonAuthenticationRequired, home.Reason)

	home, err = f.uc.Home(ctx, session.Authenticated("b@x.io"))
	require.NoError(t, err)
	assert.False(t, home.Rejected())
	assert.Equal(t, entity.StepHome, home.Step)

	out, err := f.uc.Logout(ctx, session.Authenticated("b@x.io"))
	require.NoError(t, err)
	assert.True(t, out.Session.IsAnonymous())
	assert.Equal(t, entity.StepLogin, out.Step)

	for sess, step := range map[session.Context]entity.Step{
		session.Anonymous():              entity.StepLogin,
		session.PendingSignup("a@x.io"):  entity.StepSignupVerify,
		session.PendingLogin("a@x.io"):   entity.StepLoginVerify,
		session.Authenticated("a@x.io"): entity.StepHome,
	} {
		st, err := f.uc.State(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, step, st.Step, sess.Kind().String())
	}
}

func TestEndToEnd(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t, false)

	// Act & Assert
	out, err := f.uc.Signup(ctx, session.Anonymous(), signupInput("e2e@x.io"))
	require.NoError(t, err)
	require.Equal(t, entity.StepSignupVerify, out.Step)

	out, err = f.uc.SignupVerify(ctx, out.Session, SignupVerifyInput{OTP: f.notifier.next(t).code})
	require.NoError(t, err)
	require.Equal(t, entity.StepLogin, out.Step)

	out, err = f.uc.Login(ctx, out.Session, LoginInput{Email: "e2e@x.io", Password: strongPassword})
	require.NoError(t, err)
	require.Equal(t, entity.StepLoginVerify, out.Step)

	out, err = f.uc.LoginVerify(ctx, out.Session, LoginVerifyInput{OTP: f.notifier.next(t).code})
	require.NoError(t, err)
	require.Equal(t, entity.StepHome, out.Step)
	assert.Equal(t, "Login Successful", out.Message)
	assert.Equal(t, session.Authenticated("e2e@x.io"), out.Session)

	home, err := f.uc.Home(ctx, out.Session)
	require.NoError(t, err)
	assert.False(t, home.Rejected())

	out, err = f.uc.Logout(ctx, out.Session)
	require.NoError(t, err)
	assert.True(t, out.Session.IsAnonymous())

	home, err = f.uc.Home(ctx, out.Session)
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonAuthenticationRequired, home.Reason)
}
