package middleware

import (
	"context"
	"net/http"

	"github.com/deepgram/qabot/internal/services/session"
	"github.com/deepgram/qabot/pkg/httpext"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	sessionIDKey contextKey = "sessionID"
)

// RequireSession resolves the browser session, issuing a cookie for new
// visitors, and stores its id in the request context
func RequireSession(sessionService *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := sessionService.Resolve(w, r)
			if err != nil {
				log.Error().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Failed to resolve session")
				httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID returns the session id stored by RequireSession, or ""
func GetSessionID(r *http.Request) string {
	if id, ok := r.Context().Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSessionID returns a copy of r carrying id, for handlers used outside RequireSession
func WithSessionID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionIDKey, id))
}
