package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	Signup(ctx context.Context, sess session.Context, in usecase.SignupInput) (*usecase.Outcome, error)
	SignupVerify(ctx context.Context, sess session.Context, in usecase.SignupVerifyInput) (*usecase.Outcome, error)

	Login(ctx context.Context, sess session.Context, in usecase.LoginInput) (*usecase.Outcome, error)
	LoginVerify(ctx context.Context, sess session.Context, in usecase.LoginVerifyInput) (*usecase.Outcome, error)

	Logout(ctx context.Context, sess session.Context) (*usecase.Outcome, error)
	Home(ctx context.Context, sess session.Context) (*usecase.Outcome, error)
	State(ctx context.Context, sess session.Context) (*usecase.Outcome, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cookie CookieConfig) {
	jar := &cookieJar{cfg: cookie}
	end := &HTTPEndpoint{uc: uc, jar: jar}
	mw := jar.middleware()

	r.POST("/api/v1/auth/signup", end.Signup, mw)
	r.POST("/api/v1/auth/signup/verify", end.SignupVerify, mw)
	//
	r.POST("/api/v1/auth/login", end.Login, mw)
	r.POST("/api/v1/auth/login/verify", end.LoginVerify, mw)
	//
	r.POST("/api/v1/auth/logout", end.Logout, mw)

	r.GET("/api/v1/auth/session", end.Session, mw)
	r.GET("/api/v1/auth/home", end.Home, mw) // need authenticated
}
