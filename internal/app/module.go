package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/auth"
	"github.com/shandysiswandi/otpgate/internal/notification"
)

func (a *App) initModules() {
	if err := auth.New(auth.Dependency{
		DBConn:     a.db.DB,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Locker:     a.locker,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Bcrypt:     a.bcrypt,
		Clock:      a.clock,
		Issuer:     a.issuer,
		Validator:  a.validator,
		JWT:        a.jwt,
	}); err != nil {
		slog.Error("failed to init module auth", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
