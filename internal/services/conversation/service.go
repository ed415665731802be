package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store persists sessions between requests. Load returns a fresh session
// when id is unknown.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// Service ties the driver to a session store. Turn, Reset and a bootstrapping
// Open hold a per-session guard so only one of them writes a session at a time.
type Service struct {
	driver *Driver
	store  Store

	mu     sync.Mutex
	active map[string]struct{}
}

func NewService(driver *Driver, store Store) *Service {
	return &Service{
		driver: driver,
		store:  store,
		active: make(map[string]struct{}),
	}
}

// Open loads the session and bootstraps it if needed, saving any identities
// created. While a turn or reset holds the session, the stored copy is
// returned as is and nothing is created or saved.
func (s *Service) Open(ctx context.Context, id string) (*Session, error) {
	if !s.acquire(id) {
		sess, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, newError(KindTurn, "load session", err)
		}
		return sess, nil
	}
	defer s.release(id)

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, newError(KindTurn, "load session", err)
	}
	if sess.Bootstrapped() {
		return sess, nil
	}

	bootErr := s.driver.EnsureSession(ctx, sess)
	// keep whichever identity was created so it is not created again
	if err := s.store.Save(ctx, sess); err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("Failed to save session after bootstrap")
		if bootErr == nil {
			return nil, newError(KindTurn, "save session", err)
		}
	}
	if bootErr != nil {
		return sess, bootErr
	}

	return sess, nil
}

// Turn runs one turn for the session with the given id and persists the result
func (s *Service) Turn(ctx context.Context, id, text string, observe Observer) (*Session, Message, error) {
	if !s.acquire(id) {
		return nil, Message{}, newError(KindBusy, "submit turn", ErrTurnInProgress)
	}
	defer s.release(id)

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, Message{}, newError(KindTurn, "load session", err)
	}

	reply, turnErr := s.driver.SubmitTurn(ctx, sess, text, observe)

	// the user entry stays even when the turn fails
	if KindOf(turnErr) != KindInvalidInput {
		if err := s.store.Save(context.WithoutCancel(ctx), sess); err != nil {
			log.Error().Err(err).Str("session_id", id).Msg("Failed to save session after turn")
			if turnErr == nil {
				return sess, reply, newError(KindTurn, "save session", fmt.Errorf("reply not persisted: %w", err))
			}
		}
	}

	return sess, reply, turnErr
}

// Reset clears the session's history and remote identities
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	if !s.acquire(id) {
		return nil, newError(KindBusy, "reset session", ErrTurnInProgress)
	}
	defer s.release(id)

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, newError(KindTurn, "load session", err)
	}

	sess.Reset()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, newError(KindTurn, "save session", err)
	}

	log.Info().Str("session_id", id).Msg("Session reset")
	return sess, nil
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[id]; busy {
		return false
	}
	s.active[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}
