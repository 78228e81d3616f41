package usecase

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
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

type repoDB interface {
	GetCredentials(ctx context.Context, email string) (*entity.Credentials, error)
	GetChallenge(ctx context.Context, email string) (*entity.Challenge, error)

	CreateAccount(ctx context.Context, in entity.NewAccount) error
	SetChallenge(ctx context.Context, email string, c entity.Challenge) error
	ClearChallenge(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string) error
	DeleteUnverified(ctx context.Context, email string) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, destination, code string) error
}

type issuer interface {
	Issue() (otp.Code, error)
}

// Outcome is the result of a flow transition. Reason is entity.ReasonNone when
// the transition succeeded; otherwise Message explains the rejection and
// Session is already reset for terminal reasons.
type Outcome struct {
	Step    entity.Step
	Session session.Context
	Message string
	Reason  entity.Reason
}

// Rejected reports whether the transition was refused.
func (o *Outcome) Rejected() bool { return o.Reason != entity.ReasonNone }

type Usecase struct {
	repoDB    repoDB
	notifier  notifier
	locker    keylock.Locker
	validator validator.Validator
	cfg       config.Config
	bcrypt    hash.Hash
	uid       uid.NumberID
	issuer    issuer
	clock     clock.Clocker
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager

	otpIssued  metric.Int64Counter
	rejections metric.Int64Counter
}

type Dependency struct {
	RepoDB     repoDB
	Notifier   notifier
	Locker     keylock.Locker
	Validator  validator.Validator
	Config     config.Config
	Bcrypt     hash.Hash
	UID        uid.NumberID
	Issuer     issuer
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:    dep.RepoDB,
		notifier:  dep.Notifier,
		locker:    dep.Locker,
		validator: dep.Validator,
		cfg:       dep.Config,
		bcrypt:    dep.Bcrypt,
		uid:       dep.UID,
		issuer:    dep.Issuer,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		goroutine: dep.Goroutine,
	}

	meter := s.ins.Meter("auth.usecase")

	var err error
	s.otpIssued, err = meter.Int64Counter("auth.otp.issued", metric.WithDescription("Number of passcodes issued"))
	if err != nil {
		slog.Warn("failed to create otp issued counter", "error", err)
		s.otpIssued = noop.Int64Counter{}
	}

	s.rejections, err = meter.Int64Counter("auth.flow.rejections", metric.WithDescription("Number of rejected flow transitions"))
	if err != nil {
		slog.Warn("failed to create flow rejections counter", "error", err)
		s.rejections = noop.Int64Counter{}
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// reject builds a refused Outcome. Terminal reasons drop the session so the
// client has to start over from step.
func (s *Usecase) reject(ctx context.Context, sess session.Context, step entity.Step, reason entity.Reason) *Outcome {
	s.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason.String())))

	msg := reason.Message()
	if reason.IsLoginCredentialFailure() && s.cfg.GetBool("modules.auth.unify_login_errors") {
		msg = entity.UnifiedLoginMessage
	}

	if reason.Terminal() {
		sess = session.Anonymous()
	}

	return &Outcome{Step: step, Session: sess, Message: msg, Reason: reason}
}

// withAccountLock serializes transitions of one account across requests and
// instances.
func (s *Usecase) withAccountLock(ctx context.Context, email string, fn func(ctx context.Context) (*Outcome, error)) (*Outcome, error) {
	var out *Outcome
	err := keylock.WithLock(ctx, s.locker, "auth:account:"+email, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	},
		keylock.WithLeaseTTL(s.cfg.GetSecond("lock.lease_ttl_seconds")),
		keylock.WithWait(s.cfg.GetSecond("lock.wait_seconds")),
	)
	if errors.Is(err, keylock.ErrBusy) {
		slog.WarnContext(ctx, "account is locked by another request", "email", email)
		return nil, goerror.NewBusiness("Another request for this account is in progress", goerror.CodeConflict)
	}
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to acquire account lock", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

// issueChallenge draws a fresh passcode for email.
func (s *Usecase) issueChallenge(ctx context.Context, email string) (entity.Challenge, error) {
	code, err := s.issuer.Issue()
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "email", email, "error", err)
		return entity.Challenge{}, goerror.NewServer(err)
	}

	return entity.Challenge{Code: code.Value, ExpiresAt: code.ExpiresAt}, nil
}

// notify hands the passcode to the notifier in the background. Delivery
// problems are logged and never reach the caller.
func (s *Usecase) notify(ctx context.Context, email, code string, flow entity.Step) {
	s.otpIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", string(flow))))

	accepted := s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.notifier.Notify(ctx, email, code); err != nil {
			slog.ErrorContext(ctx, "failed to deliver otp", "email", email, "error", err)
		}
		return nil
	})
	if !accepted {
		slog.WarnContext(ctx, "otp delivery was not scheduled", "email", email)
	}
}
