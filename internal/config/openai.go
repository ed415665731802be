package config

import (
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrMissingAPIKey is returned when no OpenAI credential is configured
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// GetOpenAIKey returns the OpenAI API key, accepting OPENAI_KEY as a fallback name
func GetOpenAIKey() (string, error) {
	value := GetEnvOrDefault("OPENAI_API_KEY", GetEnvOrDefault("OPENAI_KEY", ""))
	if value == "" {
		log.Error().Msg("OPENAI_API_KEY environment variable not set")
		return "", ErrMissingAPIKey
	}
	return value, nil
}

// GetOpenAIBaseURL returns the API endpoint override, empty for the default endpoint
func GetOpenAIBaseURL() string {
	return GetEnvOrDefault("OPENAI_BASE_URL", "")
}
