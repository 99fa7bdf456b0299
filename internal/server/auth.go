package server

import (
	"net/http"
	"strings"
)

// Verifier checks a bearer token and returns its subject.
type Verifier interface {
	Verify(token string) (string, error)
}

// WithAuth requires a bearer token on /paste, /events and the MCP endpoint.
func WithAuth(v Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// requireToken accepts "Authorization: Bearer <token>", or an access_token
// query parameter for websocket clients that cannot set headers.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("access_token")
		if h := r.Header.Get("Authorization"); h != "" {
			scheme, value, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				writeJSONError(w, http.StatusUnauthorized, "authorization must be a bearer token")
				return
			}
			token = strings.TrimSpace(value)
		}
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="imagedrop"`)
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		subject, err := s.verifier.Verify(token)
		if err != nil {
			s.logger.Debug("rejected token", "path", r.URL.Path, "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="imagedrop", error="invalid_token"`)
			writeJSONError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		s.logger.Debug("authorized request", "path", r.URL.Path, "subject", subject)
		next.ServeHTTP(w, r)
	})
}
