package middleware

import (
	"net/http"
	"strings"

	"github.com/upb/lending-edge/internal/gate"
	"go.uber.org/zap"
)

// SessionGate applies gate decisions to inbound navigation requests
type SessionGate struct {
	gate        *gate.Gate
	cookieNames []string
	logger      *zap.Logger
}

// NewSessionGate creates a new SessionGate. cookieNames are checked in
// order before the Authorization header.
func NewSessionGate(g *gate.Gate, cookieNames []string, logger *zap.Logger) *SessionGate {
	return &SessionGate{
		gate:        g,
		cookieNames: cookieNames,
		logger:      logger,
	}
}

// Handler passes allowed requests through and redirects the rest
func (m *SessionGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p := gate.NormalizePath(r.URL.EscapedPath())
		hasSession := m.hasCredential(r)

		decision := m.gate.Decide(p, hasSession)
		switch decision {
		case gate.RedirectToRoot:
			m.redirect(w, r, p, decision, m.gate.RootPath())
			return
		case gate.RedirectToProtectedEntry:
			m.redirect(w, r, p, decision, m.gate.ProtectedEntry())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSessionPresent(ctx, hasSession)))
	})
}

func (m *SessionGate) redirect(w http.ResponseWriter, r *http.Request, p string, decision gate.Decision, target string) {
	m.logger.Debug("session gate redirect",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("path", p),
		zap.String("decision", decision.String()),
		zap.String("location", target))

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// hasCredential reports presence only. The value is never parsed; a
// malformed cookie header reads as no credential.
func (m *SessionGate) hasCredential(r *http.Request) bool {
	for _, name := range m.cookieNames {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return true
		}
	}
	return extractBearerToken(r) != ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
