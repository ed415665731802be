package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/infrastructure/openai"
	"github.com/deepgram/qabot/internal/infrastructure/redis"
	"github.com/deepgram/qabot/internal/infrastructure/sqlite"
	"github.com/deepgram/qabot/internal/services/assistant"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/deepgram/qabot/internal/services/session"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

var errRedisUnavailable = errors.New("redis session store selected but REDIS_URL is unset or unreachable")

type Services struct {
	conversationService *conversation.Service
	driver              *conversation.Driver
	sessionService      *session.Service
	closers             []io.Closer
}

// InitializeServices builds the remote client, the session store and the
// conversation service from the environment
func InitializeServices() (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	key, err := config.GetOpenAIKey()
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindConfiguration, Op: "load credential", Err: err}
	}

	persona, err := config.GetAssistantConfig()
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindConfiguration, Op: "load assistant config", Err: err}
	}

	openAIService, err := openai.NewService(key, config.GetOpenAIBaseURL())
	if err != nil {
		return nil, &conversation.Error{Kind: conversation.KindClientInit, Op: "create client", Err: err}
	}
	log.Info().Msg("Initializing OpenAI service")

	store, closers, err := newSessionStore(config.GetSessionStore())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	log.Info().Str("backend", config.GetSessionStore()).Msg("Initializing session service")

	svc := New(
		assistant.NewOpenAIClient(openAIService.GetClient()),
		assistant.Persona{Name: persona.Name, Instructions: persona.Instructions, Model: persona.Model},
		config.GetPollConfig(),
		store,
	)
	svc.closers = closers

	log.Info().
		Str("assistant_name", persona.Name).
		Str("model", persona.Model).
		Msg("All services initialized successfully")

	return svc, nil
}

// New wires services around an existing client and store
func New(client assistant.Client, persona assistant.Persona, poll config.PollConfig, store session.SessionStore) *Services {
	sessionService := session.NewService(store, config.GetSessionTTL())
	driver := conversation.NewDriver(client, persona, poll)

	return &Services{
		conversationService: conversation.NewService(driver, sessionService),
		driver:              driver,
		sessionService:      sessionService,
	}
}

func newSessionStore(backend string) (session.SessionStore, []io.Closer, error) {
	switch backend {
	case config.SessionStoreRedis:
		redisService := redis.NewService()
		if redisService == nil {
			return nil, nil, errRedisUnavailable
		}
		return session.NewRedisStore(redisService), []io.Closer{redisService}, nil
	case config.SessionStoreSQLite:
		sqliteService, err := sqlite.NewService(config.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return session.NewSQLiteStore(sqliteService), []io.Closer{sqliteService}, nil
	default:
		return session.NewMemoryStore(), nil, nil
	}
}

// GetConversationService returns the conversation service
func (s *Services) GetConversationService() *conversation.Service {
	return s.conversationService
}

// GetDriver returns the driver shared by the conversation service
func (s *Services) GetDriver() *conversation.Driver {
	return s.driver
}

// GetSessionService returns the session service
func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}

// Start launches background maintenance until ctx is done
func (s *Services) Start(ctx context.Context) {
	s.sessionService.StartSweeper(ctx, config.GetSessionTTL()/4)
}

// Close releases store connections
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
