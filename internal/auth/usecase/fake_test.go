package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/keylock"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type account struct {
	id        int64
	username  string
	hash      string
	lifecycle entity.Lifecycle
	chal      *entity.Challenge
}

// fakeRepo mirrors the SQL store semantics in memory.
type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*account
	err      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]*account)}
}

func (f *fakeRepo) get(email string) (account, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return account{}, false
	}
	return *a, true
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

func (f *fakeRepo) GetCredentials(_ context.Context, email string) (*entity.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.Credentials{ID: a.id, Email: email, PasswordHash: a.hash, Lifecycle: a.lifecycle}, nil
}

func (f *fakeRepo) GetChallenge(_ context.Context, email string) (*entity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[email]
	if !ok || a.chal == nil {
		return nil, goerror.ErrNotFound
	}
	c := *a.chal
	return &c, nil
}

func (f *fakeRepo) CreateAccount(_ context.Context, in entity.NewAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.accounts[in.Email]; ok {
		return goerror.ErrConflict
	}
	c := in.Challenge
	f.accounts[in.Email] = &account{id: in.ID, username: in.Username, hash: in.PasswordHash, lifecycle: entity.LifecyclePending, chal: &c}
	return nil
}

func (f *fakeRepo) SetChallenge(_ context.Context, email string, c entity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	a, ok := f.accounts[email]
	if !ok {
		return goerror.ErrNotFound
	}
	a.chal = &c
	return nil
}

func (f *fakeRepo) ClearChallenge(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if a, ok := f.accounts[email]; ok {
		a.chal = nil
	}
	return nil
}

func (f *fakeRepo) MarkVerified(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	a, ok := f.accounts[email]
	if !ok {
		return goerror.ErrNotFound
	}
	a.lifecycle = entity.LifecycleVerified
	a.chal = nil
	return nil
}

func (f *fakeRepo) DeleteUnverified(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	a, ok := f.accounts[email]
	if !ok || a.lifecycle != entity.LifecyclePending {
		return false, nil
	}
	delete(f.accounts, email)
	return true, nil
}

type sent struct {
	email string
	code  string
}

type fakeNotifier struct {
	ch  chan sent
	err error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan sent, 16)}
}

func (f *fakeNotifier) Notify(_ context.Context, destination, code string) error {
	f.ch <- sent{email: destination, code: code}
	return f.err
}

func (f *fakeNotifier) next(t *testing.T) sent {
	t.Helper()
	select {
	case s := <-f.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no otp delivered")
		return sent{}
	}
}

// sequentialIssuer hands out 100001, 100002, ... so stale codes are
// predictable.
type sequentialIssuer struct {
	mu    sync.Mutex
	clock clock.Clocker
	ttl   time.Duration
	n     int
	err   error
}

func (s *sequentialIssuer) Issue() (otp.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return otp.Code{}, s.err
	}
	s.n++
	return otp.Code{Value: fmt.Sprintf("%06d", 100000+s.n), ExpiresAt: s.clock.Now().Add(s.ttl)}, nil
}

type fixture struct {
	uc       *Usecase
	repo     *fakeRepo
	notifier *fakeNotifier
	issuer   *sequentialIssuer
	clock    *clock.Frozen
	locker   *keylock.Memory
	bcrypt   hash.Hash
}

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

const baseConfig = `
modules:
  auth:
    unify_login_errors: %t
lock:
  lease_ttl_seconds: 5
  wait_seconds: 1
`

func newFixture(t *testing.T, unify bool) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", fmt.Appendf(nil, baseConfig, unify))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewFrozen(t0)
	gm := goroutine.NewManager(10)
	t.Cleanup(func() { _ = gm.Wait() })

	f := &fixture{
		repo:     newFakeRepo(),
		notifier: newFakeNotifier(),
		issuer:   &sequentialIssuer{clock: clk, ttl: otp.DefaultTTL},
		clock:    clk,
		locker:   keylock.NewMemory(clk),
		bcrypt:   hash.NewBcrypt(4, "pepper"),
	}

	f.uc = New(Dependency{
		RepoDB:     f.repo,
		Notifier:   f.notifier,
		Locker:     f.locker,
		Validator:  v,
		Config:     cfg,
		Bcrypt:     f.bcrypt,
		UID:        sf,
		Issuer:     f.issuer,
		Clock:      clk,
		Instrument: instrument.NewNoop(),
		Goroutine:  gm,
	})

	return f
}

// seedVerified stores a verified account with password "Passw0rd!".
func (f *fixture) seedVerified(t *testing.T, email string) {
	t.Helper()
	h, err := f.bcrypt.Hash(strongPassword)
	require.NoError(t, err)
	f.repo.mu.Lock()
	f.repo.accounts[email] = &account{id: 7, username: "bob", hash: h, lifecycle: entity.LifecycleVerified}
	f.repo.mu.Unlock()
}
