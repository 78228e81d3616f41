package inbound

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// CookieName carries the signed session token.
const CookieName = "otpgate_session"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Codec  *session.Codec
	TTL    time.Duration
	Secure bool
	Domain string
}

type cookieJar struct {
	cfg CookieConfig
}

// issue returns the cookie for s. Anonymous yields a deletion cookie.
func (j *cookieJar) issue(s session.Context) (*http.Cookie, error) {
	c := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		Domain:   j.cfg.Domain,
		Secure:   j.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	token, err := j.cfg.Codec.Encode(s)
	if err != nil {
		return nil, err
	}

	if token == "" {
		c.MaxAge = -1
		return c, nil
	}

	c.Value = token
	c.MaxAge = int(j.cfg.TTL / time.Second)
	return c, nil
}

// middleware decodes the session cookie once per request and stores the
// result in the request context.
func (j *cookieJar) middleware() router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess session.Context
			if c, err := r.Cookie(CookieName); err == nil {
				sess = j.cfg.Codec.Decode(r.Context(), c.Value)
			}
			if !sess.IsAnonymous() {
				slog.DebugContext(r.Context(), "session decoded", "state", sess.Kind().String())
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}
