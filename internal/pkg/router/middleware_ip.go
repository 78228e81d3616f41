package router

import (
	"net"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareIP rewrites RemoteAddr to the client address. Forwarding headers
// are only honoured when app.server.trust_proxy is set, since clients can
// forge them otherwise.
func middlewareIP(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trust := cfg != nil && cfg.GetBool("app.server.trust_proxy")
			if ip := clientIP(r, trust); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"} {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if v = strings.TrimSpace(v); net.ParseIP(v) != nil {
				return v
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
