package openai

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// ErrMissingKey is returned when the service is built without a credential
var ErrMissingKey = errors.New("openai: API key is required")

type Service struct {
	client *openai.Client
}

// NewService builds the go-openai client, pointing it at baseURL when set
func NewService(key, baseURL string) (*Service, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
		log.Info().Str("base_url", baseURL).Msg("Using custom OpenAI endpoint")
	}

	return &Service{
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

func (s *Service) GetClient() *openai.Client {
	return s.client
}
