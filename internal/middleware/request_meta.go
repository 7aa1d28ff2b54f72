package middleware

import (
	"net"
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestMeta captures the client address, user agent and request id for the
// audit trail. It expects chi's RealIP and RequestID middleware to run first.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		ctx := audit.WithRequestMeta(r.Context(), audit.RequestMeta{
			IPAddress: ip,
			UserAgent: r.UserAgent(),
			RequestID: chimw.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
