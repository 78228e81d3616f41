package auth

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/auth/inbound"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/notify"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/keylock"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *sql.DB                    `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Locker     keylock.Locker             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Issuer     *otp.Issuer                `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbAuth,
		Notifier:   newNotifier(dep),
		Locker:     dep.Locker,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Bcrypt:     dep.Bcrypt,
		UID:        dep.UID,
		Issuer:     dep.Issuer,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.CookieConfig{
		Codec:  session.NewCodec(dep.JWT),
		TTL:    dep.Config.GetMinute("session.ttl_minutes"),
		Secure: dep.Config.GetBool("session.cookie_secure"),
		Domain: dep.Config.GetString("session.cookie_domain"),
	})

	return nil
}

// newNotifier builds the notifiers listed in modules.auth.notifiers
// ("console", "broker"). The console banner is the fallback.
func newNotifier(dep Dependency) notify.Notifier {
	ttl := dep.Issuer.TTL()

	var fan notify.Fanout
	for _, name := range dep.Config.GetArray("modules.auth.notifiers") {
		switch name {
		case "console":
			fan = append(fan, notify.NewConsole(os.Stdout, ttl))
		case "broker":
			fan = append(fan, notify.NewBroker(dep.Messaging, dep.Instrument, ttl))
		default:
			slog.Warn("unknown otp notifier ignored", "notifier", name)
		}
	}

	switch len(fan) {
	case 0:
		return notify.NewConsole(os.Stdout, ttl)
	case 1:
		return fan[0]
	default:
		return fan
	}
}
