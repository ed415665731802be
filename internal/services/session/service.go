package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Sweeper is implemented by stores that do not expire entries on their own
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Service maps browser cookies to stored conversation sessions. It
// implements conversation.Store.
type Service struct {
	store SessionStore
	ttl   time.Duration
}

func NewService(store SessionStore, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl}
}

// Load returns the stored session, or a fresh one when id is unknown or expired
func (s *Service) Load(ctx context.Context, id string) (*conversation.Session, error) {
	data, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return conversation.NewSession(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("Discarding unreadable session")
		return conversation.NewSession(id), nil
	}
	if sess.Messages == nil {
		sess.Messages = []conversation.Message{}
	}
	return &sess, nil
}

// Save writes the session and refreshes its ttl
func (s *Service) Save(ctx context.Context, sess *conversation.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.store.Set(ctx, sess.ID, data, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// Resolve returns the session id carried by the request's cookie, starting
// a new session when the cookie is missing or invalid. An id whose stored
// entry expired loads as an empty session.
func (s *Service) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	id, err := s.ValidateSession(r)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid session cookie")
	}
	if id != "" {
		return id, nil
	}

	return s.CreateSession(w)
}

// CreateSession issues a new session id in a signed cookie. The cookie has
// no expiry so it ends with the browser session.
func (s *Service) CreateSession(w http.ResponseWriter) (string, error) {
	sessionID := uuid.New().String()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       sessionID,
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    signedToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})

	log.Debug().Str("session_id", sessionID).Msg("Session created")
	return sessionID, nil
}

// ValidateSession returns the session id of a correctly signed cookie, or ""
func (s *Service) ValidateSession(r *http.Request) (string, error) {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", err
	}

	return parseSessionToken(cookie.Value)
}

// ClearSession deletes the stored session and expires the cookie
func (s *Service) ClearSession(w http.ResponseWriter, r *http.Request) {
	if id, err := s.ValidateSession(r); err == nil && id != "" {
		if err := s.store.Delete(r.Context(), id); err != nil {
			log.Error().Err(err).Str("session_id", id).Msg("Failed to delete session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// StartSweeper periodically removes expired entries until ctx is done. It is
// a no-op for stores that expire entries themselves.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	sweeper, ok := s.store.(Sweeper)
	if !ok || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sweeper.Sweep(ctx)
				if err != nil {
					log.Error().Err(err).Msg("Failed to sweep expired sessions")
					continue
				}
				if removed > 0 {
					log.Debug().Int64("removed", removed).Msg("Swept expired sessions")
				}
			}
		}
	}()
}

func parseSessionToken(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", errors.New("session cookie carries no session id")
	}
	return claims.SessionID, nil
}
