package inbound

import (
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the signup and login flows over JSON.
type HTTPEndpoint struct {
	uc  uc
	jar *cookieJar
}

// Signup creates a pending account and sends the signup passcode.
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	sess := session.FromContext(r.Context())
	out, err := h.uc.Signup(r.Context(), sess, usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})

	return h.respond(r, out, err)
}

// SignupVerify confirms the signup passcode.
func (h *HTTPEndpoint) SignupVerify(r *router.Request) (any, error) {
	var req OTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	sess := session.FromContext(r.Context())
	out, err := h.uc.SignupVerify(r.Context(), sess, usecase.SignupVerifyInput{OTP: req.OTP})

	return h.respond(r, out, err)
}

// Login checks the password and sends the login passcode.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	sess := session.FromContext(r.Context())
	out, err := h.uc.Login(r.Context(), sess, usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	return h.respond(r, out, err)
}

// LoginVerify confirms the login passcode and authenticates the client.
func (h *HTTPEndpoint) LoginVerify(r *router.Request) (any, error) {
	var req OTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	sess := session.FromContext(r.Context())
	out, err := h.uc.LoginVerify(r.Context(), sess, usecase.LoginVerifyInput{OTP: req.OTP})

	return h.respond(r, out, err)
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	out, err := h.uc.Logout(r.Context(), session.FromContext(r.Context()))
	return h.respond(r, out, err)
}

// Session reports the current flow state without changing it.
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	out, err := h.uc.State(r.Context(), session.FromContext(r.Context()))
	return h.respond(r, out, err)
}

func (h *HTTPEndpoint) Home(r *router.Request) (any, error) {
	out, err := h.uc.Home(r.Context(), session.FromContext(r.Context()))
	return h.respond(r, out, err)
}

// respond writes the next session cookie on success and on rejection. A
// rejection becomes a business error carrying the step the client should go to.
func (h *HTTPEndpoint) respond(r *router.Request, out *usecase.Outcome, err error) (any, error) {
	if err != nil {
		return nil, err
	}

	cookie, err := h.jar.issue(out.Session)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode session", "state", out.Session.Kind().String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if out.Rejected() {
		return nil, router.WithCookies(
			goerror.NewBusiness(out.Message, out.Reason.Code(),
				"state", out.Session.Kind().String(),
				"step", string(out.Step),
			),
			cookie,
		)
	}

	resp := FlowResponse{
		State:   out.Session.Kind().String(),
		Step:    string(out.Step),
		Email:   out.Session.Email(),
		message: strings.TrimSpace(out.Message),
	}
	resp.cookies = append(resp.cookies, cookie)

	return resp, nil
}
